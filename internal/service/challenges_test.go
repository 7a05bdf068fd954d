package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

func setupChallenge(t *testing.T) (*Service, *testClock, models.User, models.User, models.Challenge) {
	t.Helper()
	svc, clock := setupService(t)
	ctx := context.Background()
	alice := mustUser(t, svc, "alice")
	bob := mustUser(t, svc, "bob")
	g, err := svc.CreateGroup(ctx, alice.ID, GroupInput{Name: "Pages"})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if _, err := svc.JoinGroup(ctx, bob.ID, g.InviteCode); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	c, err := svc.CreateChallenge(ctx, alice.ID, g.ID, ChallengeInput{
		Title:       "Read 100 pages",
		TargetValue: 100,
		Unit:        "pages",
		EndDay:      "2026-03-16",
	})
	if err != nil {
		t.Fatalf("CreateChallenge failed: %v", err)
	}
	return svc, clock, alice, bob, c
}

func TestCreateChallenge_Validation(t *testing.T) {
	svc, _, alice, _, c := setupChallenge(t)
	ctx := context.Background()

	if c.StartDay != "2026-03-10" {
		t.Errorf("expected start to default to today, got %s", c.StartDay)
	}
	p, err := svc.Store().GetParticipant(c.ID, alice.ID)
	if err != nil || p.Progress != 0 {
		t.Errorf("expected creator to join with no progress, got %+v, %v", p, err)
	}

	tests := []struct {
		name string
		in   ChallengeInput
	}{
		{"zero target", ChallengeInput{Title: "x", TargetValue: 0, EndDay: "2026-03-20"}},
		{"end before start", ChallengeInput{Title: "x", TargetValue: 1, StartDay: "2026-03-20", EndDay: "2026-03-19"}},
		{"missing end", ChallengeInput{Title: "x", TargetValue: 1}},
		{"missing title", ChallengeInput{TargetValue: 1, EndDay: "2026-03-20"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateChallenge(ctx, alice.ID, c.GroupID, tt.in); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}

	outsider := mustUser(t, svc, "outsider")
	in := ChallengeInput{Title: "x", TargetValue: 1, EndDay: "2026-03-20"}
	if _, err := svc.CreateChallenge(ctx, outsider.ID, c.GroupID, in); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-member, got %v", err)
	}
}

func TestChallengeProgressAndLeaderboard(t *testing.T) {
	svc, _, alice, bob, c := setupChallenge(t)
	ctx := context.Background()

	if _, err := svc.AddProgress(ctx, bob.ID, c.ID, 10); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden before joining, got %v", err)
	}
	if err := svc.JoinChallenge(ctx, bob.ID, c.ID); err != nil {
		t.Fatalf("JoinChallenge failed: %v", err)
	}
	if err := svc.JoinChallenge(ctx, bob.ID, c.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict joining twice, got %v", err)
	}

	if _, err := svc.AddProgress(ctx, alice.ID, c.ID, 40); err != nil {
		t.Fatalf("AddProgress failed: %v", err)
	}
	if _, err := svc.SetProgress(ctx, bob.ID, c.ID, 40); err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}
	if _, err := svc.AddProgress(ctx, bob.ID, c.ID, -41); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for negative progress, got %v", err)
	}

	board, err := svc.Leaderboard(ctx, bob.ID, c.ID)
	if err != nil {
		t.Fatalf("Leaderboard failed: %v", err)
	}
	if board.Status != constants.ChallengeActive {
		t.Errorf("expected active, got %s", board.Status)
	}
	if len(board.Entries) != 2 || board.Entries[0].Rank != 1 || board.Entries[1].Rank != 1 {
		t.Errorf("expected a tie for first, got %+v", board.Entries)
	}

	p, err := svc.AddProgress(ctx, alice.ID, c.ID, 70)
	if err != nil {
		t.Fatalf("AddProgress failed: %v", err)
	}
	if p.CompletedAt == nil {
		t.Fatal("expected completed_at once the target is reached")
	}
	first := *p.CompletedAt
	p, err = svc.SetProgress(ctx, alice.ID, c.ID, 50)
	if err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}
	if p.CompletedAt == nil || !p.CompletedAt.Equal(first) {
		t.Errorf("completed_at must never be cleared or moved, got %v", p.CompletedAt)
	}

	summaries, err := svc.ListChallenges(ctx, bob.ID, c.GroupID)
	if err != nil {
		t.Fatalf("ListChallenges failed: %v", err)
	}
	if len(summaries) != 1 || !summaries[0].Joined || summaries[0].Participants != 2 || summaries[0].Progress != 40 {
		t.Errorf("unexpected summaries %+v", summaries)
	}
}

func TestChallengeEnd(t *testing.T) {
	svc, clock, alice, bob, c := setupChallenge(t)
	ctx := context.Background()

	if err := svc.JoinChallenge(ctx, bob.ID, c.ID); err != nil {
		t.Fatalf("JoinChallenge failed: %v", err)
	}
	if _, err := svc.SetProgress(ctx, alice.ID, c.ID, 80); err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}
	if _, err := svc.SetProgress(ctx, bob.ID, c.ID, 30); err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}

	clock.advance(7) // 2026-03-17, the day after the end
	status, err := svc.ChallengeStatus(ctx, alice.ID, c.ID)
	if err != nil {
		t.Fatalf("ChallengeStatus failed: %v", err)
	}
	if status != constants.ChallengeEnded {
		t.Errorf("expected ended, got %s", status)
	}
	if _, err := svc.AddProgress(ctx, alice.ID, c.ID, 1); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid after the end, got %v", err)
	}
	carol := mustUser(t, svc, "carol")
	if _, err := svc.JoinGroup(ctx, carol.ID, mustInviteCode(t, svc, alice.ID, c.GroupID)); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	if err := svc.JoinChallenge(ctx, carol.ID, c.ID); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid joining an ended challenge, got %v", err)
	}

	results, err := svc.FinalizeEndedChallenges(ctx, "2026-03-16")
	if err != nil {
		t.Fatalf("FinalizeEndedChallenges failed: %v", err)
	}
	if len(results) != 1 || len(results[0].Winners) != 1 || results[0].Winners[0].UserID != alice.ID {
		t.Fatalf("expected alice as sole winner, got %+v", results)
	}

	stats, err := svc.MemberStats(ctx, alice.ID)
	if err != nil {
		t.Fatalf("MemberStats failed: %v", err)
	}
	if stats.ChallengesWon != 1 || stats.CommitmentScore != 50 {
		t.Errorf("expected one win worth 50 points, got %+v", stats)
	}
}

func mustInviteCode(t *testing.T, svc *Service, userID, groupID string) string {
	t.Helper()
	detail, err := svc.GetGroup(context.Background(), userID, groupID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	return detail.Group.InviteCode
}

func TestAddProgress_Concurrent(t *testing.T) {
	svc, _, alice, _, c := setupChallenge(t)
	ctx := context.Background()

	add := func(n, delta int) {
		t.Helper()
		var g errgroup.Group
		for i := 0; i < n; i++ {
			g.Go(func() error {
				_, err := svc.AddProgress(ctx, alice.ID, c.ID, delta)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatalf("AddProgress failed: %v", err)
		}
	}

	add(40, 1)
	p, err := svc.Store().GetParticipant(c.ID, alice.ID)
	if err != nil {
		t.Fatalf("GetParticipant failed: %v", err)
	}
	if p.Progress != 40 || p.CompletedAt != nil {
		t.Fatalf("expected progress 40 and not completed, got %d, %v", p.Progress, p.CompletedAt)
	}

	add(30, 2)
	p, err = svc.Store().GetParticipant(c.ID, alice.ID)
	if err != nil {
		t.Fatalf("GetParticipant failed: %v", err)
	}
	if p.Progress != 100 || p.CompletedAt == nil {
		t.Errorf("expected progress 100 and completed, got %d, %v", p.Progress, p.CompletedAt)
	}
}
