package server

import (
	"net/http"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/realtime"
	"github.com/julianstephens/habitual/internal/service"
)

func (s *Server) routes() {
	m := s.mux
	m.HandleFunc("GET /healthz", s.handleHealth)

	m.HandleFunc("GET /api/users", s.handleListUsers)
	m.HandleFunc("POST /api/users", s.handleCreateUser)
	m.HandleFunc("GET /api/me/stats", s.handleMyStats)

	m.HandleFunc("GET /api/today", s.handleToday)
	m.HandleFunc("GET /api/habits", s.handleListHabits)
	m.HandleFunc("POST /api/habits", s.handleCreateHabit)
	m.HandleFunc("GET /api/habits/{id}", s.handleGetHabit)
	m.HandleFunc("PATCH /api/habits/{id}", s.handleUpdateHabit)
	m.HandleFunc("DELETE /api/habits/{id}", s.handleDeleteHabit)
	m.HandleFunc("POST /api/habits/{id}/restore", s.handleRestoreHabit)
	m.HandleFunc("POST /api/habits/{id}/archive", s.handleArchiveHabit)
	m.HandleFunc("POST /api/habits/{id}/unarchive", s.handleUnarchiveHabit)
	m.HandleFunc("POST /api/habits/{id}/toggle", s.handleToggleHabit)
	m.HandleFunc("GET /api/habits/{id}/status", s.handleHabitStatus)
	m.HandleFunc("GET /api/habits/{id}/week", s.handleHabitWeek)
	m.HandleFunc("GET /api/habits/{id}/summary", s.handleHabitSummary)

	m.HandleFunc("GET /api/tasks", s.handleListTasks)
	m.HandleFunc("POST /api/tasks", s.handleAddTask)
	m.HandleFunc("PUT /api/tasks/order", s.handleReorderTasks)
	m.HandleFunc("POST /api/tasks/carry", s.handleCarryOver)
	m.HandleFunc("PATCH /api/tasks/{id}", s.handleUpdateTask)
	m.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	m.HandleFunc("POST /api/tasks/{id}/toggle", s.handleToggleTask)

	m.HandleFunc("GET /api/groups", s.handleListGroups)
	m.HandleFunc("POST /api/groups", s.handleCreateGroup)
	m.HandleFunc("POST /api/groups/join", s.handleJoinGroup)
	m.HandleFunc("GET /api/groups/{id}", s.handleGetGroup)
	m.HandleFunc("PATCH /api/groups/{id}", s.handleUpdateGroup)
	m.HandleFunc("DELETE /api/groups/{id}", s.handleDeleteGroup)
	m.HandleFunc("POST /api/groups/{id}/leave", s.handleLeaveGroup)
	m.HandleFunc("GET /api/groups/{id}/members", s.handleListMembers)
	m.HandleFunc("DELETE /api/groups/{id}/members/{user}", s.handleRemoveMember)
	m.HandleFunc("PUT /api/groups/{id}/members/{user}/role", s.handleSetRole)
	m.HandleFunc("POST /api/groups/{id}/invite", s.handleRegenerateInvite)
	m.HandleFunc("PUT /api/groups/{id}/habits/{habit}", s.handleShareHabit)
	m.HandleFunc("DELETE /api/groups/{id}/habits/{habit}", s.handleUnshareHabit)
	m.HandleFunc("GET /api/groups/{id}/progress", s.handleGroupProgress)
	m.HandleFunc("GET /api/groups/{id}/stats", s.handleGroupStats)
	m.HandleFunc("GET /api/groups/{id}/events", s.handleGroupEvents)
	m.HandleFunc("GET /api/groups/{id}/challenges", s.handleListChallenges)
	m.HandleFunc("POST /api/groups/{id}/challenges", s.handleCreateChallenge)

	m.HandleFunc("GET /api/challenges/{id}", s.handleLeaderboard)
	m.HandleFunc("POST /api/challenges/{id}/join", s.handleJoinChallenge)
	m.HandleFunc("POST /api/challenges/{id}/progress", s.handleChallengeProgress)
	m.HandleFunc("GET /api/challenges/{id}/leaderboard", s.handleLeaderboard)

	m.HandleFunc("POST /api/coach/suggest", s.handleSuggest)
	m.HandleFunc("POST /api/coach/accept", s.handleAccept)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Store().Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "storage unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": constants.Version})
}

// Users

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(users))
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.svc.CreateUser(r.Context(), body.Name, body.AvatarURL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.MemberStats(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Habits

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	overview, err := s.svc.TodayOverview(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(overview))
}

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	hs, err := s.svc.ListHabits(r.Context(), currentUser(r), queryBool(r, "archived"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(hs))
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	var in service.HabitInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	h, err := s.svc.CreateHabit(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleGetHabit(w http.ResponseWriter, r *http.Request) {
	h, err := s.svc.GetHabit(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	var patch service.HabitPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	h, err := s.svc.UpdateHabit(r.Context(), currentUser(r), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteHabit(r.Context(), currentUser(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestoreHabit(w http.ResponseWriter, r *http.Request) {
	h, err := s.svc.RestoreHabit(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleArchiveHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ArchiveHabit(r.Context(), currentUser(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnarchiveHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.UnarchiveHabit(r.Context(), currentUser(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type toggleResponse struct {
	Logged bool `json:"logged"`
	Streak int  `json:"streak"`
}

func (s *Server) handleToggleHabit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Day string `json:"day"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	logged, streak, err := s.svc.ToggleHabitLog(r.Context(), currentUser(r), r.PathValue("id"), body.Day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{Logged: logged, Streak: streak})
}

func (s *Server) handleHabitStatus(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("day")
	if day == "" {
		today, err := s.svc.Today()
		if err != nil {
			writeError(w, r, err)
			return
		}
		day = today
	}
	status, err := s.svc.HabitStatus(r.Context(), currentUser(r), r.PathValue("id"), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.HabitDay{Day: day, Status: status})
}

func (s *Server) handleHabitWeek(w http.ResponseWriter, r *http.Request) {
	week, err := s.svc.HabitWeek(r.Context(), currentUser(r), r.PathValue("id"), r.URL.Query().Get("day"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

func (s *Server) handleHabitSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.HabitSummary(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Tasks

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.svc.ListTasks(r.Context(), currentUser(r), r.URL.Query().Get("day"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(tasks))
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var in service.TaskInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.svc.AddTask(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var patch service.TaskPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.svc.UpdateTask(r.Context(), currentUser(r), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTask(r.Context(), currentUser(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.ToggleTask(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleReorderTasks(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Day string   `json:"day"`
		IDs []string `json:"ids"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.ReorderTasks(r.Context(), currentUser(r), body.Day, body.IDs); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCarryOver(w http.ResponseWriter, r *http.Request) {
	var body struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	moved, err := s.svc.CarryOverTasks(r.Context(), currentUser(r), body.From, body.To)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"moved": moved})
}

// Groups

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.svc.ListGroups(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(groups))
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var in service.GroupInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.svc.CreateGroup(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.svc.JoinGroup(r.Context(), currentUser(r), body.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.GetGroup(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	var patch service.GroupPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.svc.UpdateGroup(r.Context(), currentUser(r), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteGroup(r.Context(), currentUser(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.LeaveGroup(r.Context(), currentUser(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.GetGroup(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(detail.Members))
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.RemoveMember(r.Context(), currentUser(r), r.PathValue("id"), r.PathValue("user")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role string `json:"role"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.SetMemberRole(r.Context(), currentUser(r), r.PathValue("id"), r.PathValue("user"), body.Role); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRegenerateInvite(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.RegenerateInviteCode(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleShareHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ShareHabit(r.Context(), currentUser(r), r.PathValue("id"), r.PathValue("habit")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnshareHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.UnshareHabit(r.Context(), currentUser(r), r.PathValue("id"), r.PathValue("habit")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGroupProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.svc.GroupProgress(r.Context(), currentUser(r), r.PathValue("id"), r.URL.Query().Get("day"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(progress))
}

func (s *Server) handleGroupStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.GroupStats(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(st))
}

// handleGroupEvents streams the group's change signals over a websocket.
// Membership is checked before the upgrade.
func (s *Server) handleGroupEvents(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")
	if _, err := s.svc.GetGroup(r.Context(), currentUser(r), groupID); err != nil {
		writeError(w, r, err)
		return
	}
	realtime.ServeWS(w, r, s.svc.Broker(), groupID)
}

// Challenges

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	cs, err := s.svc.ListChallenges(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cs))
}

func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	var in service.ChallengeInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.svc.CreateChallenge(r.Context(), currentUser(r), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleJoinChallenge(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.JoinChallenge(r.Context(), currentUser(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleChallengeProgress accepts either {"delta": n} or {"value": n}.
func (s *Server) handleChallengeProgress(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Delta *int `json:"delta"`
		Value *int `json:"value"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		p   models.ChallengeParticipant
		err error
	)
	switch {
	case body.Delta != nil && body.Value != nil:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "give either delta or value, not both"})
		return
	case body.Delta != nil:
		p, err = s.svc.AddProgress(r.Context(), currentUser(r), r.PathValue("id"), *body.Delta)
	case body.Value != nil:
		p, err = s.svc.SetProgress(r.Context(), currentUser(r), r.PathValue("id"), *body.Value)
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "delta or value is required"})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := s.svc.Leaderboard(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	board.Entries = nonNil(board.Entries)
	writeJSON(w, http.StatusOK, board)
}

// Coach

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Goal string `json:"goal"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	sug, err := s.svc.SuggestRoutine(r.Context(), currentUser(r), body.Goal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sug)
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Suggestion models.Suggestion `json:"suggestion"`
		Day        string            `json:"day"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.AcceptSuggestion(r.Context(), currentUser(r), body.Suggestion, body.Day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
