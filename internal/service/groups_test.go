package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/julianstephens/habitual/internal/constants"
)

func TestGroupMembership(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	alice := mustUser(t, svc, "alice")
	bob := mustUser(t, svc, "bob")
	carol := mustUser(t, svc, "carol")

	g, err := svc.CreateGroup(ctx, alice.ID, GroupInput{Name: "Early birds"})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if len(g.InviteCode) != constants.InviteCodeLength {
		t.Errorf("expected %d-char invite code, got %q", constants.InviteCodeLength, g.InviteCode)
	}

	if _, err := svc.JoinGroup(ctx, bob.ID, strings.ToLower(g.InviteCode)); err != nil {
		t.Fatalf("JoinGroup with lowercase code failed: %v", err)
	}
	if _, err := svc.JoinGroup(ctx, bob.ID, g.InviteCode); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict joining twice, got %v", err)
	}
	if _, err := svc.JoinGroup(ctx, carol.ID, "ZZZZZZZZ"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown code, got %v", err)
	}
	if _, err := svc.JoinGroup(ctx, carol.ID, "short"); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for malformed code, got %v", err)
	}

	if _, err := svc.GetGroup(ctx, carol.ID, g.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-member, got %v", err)
	}
	detail, err := svc.GetGroup(ctx, bob.ID, g.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if len(detail.Members) != 2 {
		t.Errorf("expected 2 members, got %d", len(detail.Members))
	}

	name := "Night owls"
	if _, err := svc.UpdateGroup(ctx, bob.ID, g.ID, GroupPatch{Name: &name}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for member update, got %v", err)
	}
	if _, err := svc.UpdateGroup(ctx, alice.ID, g.ID, GroupPatch{Name: &name}); err != nil {
		t.Errorf("admin UpdateGroup failed: %v", err)
	}

	// The last admin leaving promotes the earliest-joined remaining member.
	if err := svc.LeaveGroup(ctx, alice.ID, g.ID); err != nil {
		t.Fatalf("LeaveGroup failed: %v", err)
	}
	m, err := svc.Store().GetGroupMember(g.ID, bob.ID)
	if err != nil {
		t.Fatalf("GetGroupMember failed: %v", err)
	}
	if m.Role != constants.RoleAdmin {
		t.Errorf("expected bob promoted to admin, got %s", m.Role)
	}
	if err := svc.SetMemberRole(ctx, bob.ID, g.ID, bob.ID, "member"); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict demoting the last admin, got %v", err)
	}

	// The last member leaving deletes the group.
	if err := svc.LeaveGroup(ctx, bob.ID, g.ID); err != nil {
		t.Fatalf("LeaveGroup (last) failed: %v", err)
	}
	if _, err := svc.Store().GetGroup(g.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected group deleted, got %v", err)
	}
}

func TestGroupAdminOperations(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	alice := mustUser(t, svc, "alice")
	bob := mustUser(t, svc, "bob")

	g, err := svc.CreateGroup(ctx, alice.ID, GroupInput{Name: "Readers"})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if _, err := svc.JoinGroup(ctx, bob.ID, g.InviteCode); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}

	if err := svc.SetMemberRole(ctx, alice.ID, g.ID, bob.ID, "owner"); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for unknown role, got %v", err)
	}
	if err := svc.SetMemberRole(ctx, alice.ID, g.ID, bob.ID, "admin"); err != nil {
		t.Fatalf("SetMemberRole failed: %v", err)
	}
	if err := svc.SetMemberRole(ctx, bob.ID, g.ID, alice.ID, "member"); err != nil {
		t.Errorf("demoting one of two admins failed: %v", err)
	}

	regenerated, err := svc.RegenerateInviteCode(ctx, bob.ID, g.ID)
	if err != nil {
		t.Fatalf("RegenerateInviteCode failed: %v", err)
	}
	if regenerated.InviteCode == g.InviteCode {
		t.Error("expected a new invite code")
	}
	if _, err := svc.RegenerateInviteCode(ctx, alice.ID, g.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for member, got %v", err)
	}

	if err := svc.RemoveMember(ctx, bob.ID, g.ID, bob.ID); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid removing yourself, got %v", err)
	}
	if err := svc.RemoveMember(ctx, bob.ID, g.ID, alice.ID); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if _, err := svc.GetGroup(ctx, alice.ID, g.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected removed member forbidden, got %v", err)
	}

	if err := svc.DeleteGroup(ctx, bob.ID, g.ID); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}
	groups, _ := svc.ListGroups(ctx, bob.ID)
	if len(groups) != 0 {
		t.Errorf("expected no groups after delete, got %d", len(groups))
	}
}

func TestGroupProgressAndSharing(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	alice := mustUser(t, svc, "alice")
	bob := mustUser(t, svc, "bob")
	g, _ := svc.CreateGroup(ctx, alice.ID, GroupInput{Name: "Movers"})
	if _, err := svc.JoinGroup(ctx, bob.ID, g.InviteCode); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}

	run := mustHabit(t, svc, alice.ID, "Run", "daily")
	mustHabit(t, svc, alice.ID, "Private", "daily")
	if err := svc.ShareHabit(ctx, bob.ID, g.ID, run.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden sharing someone else's habit, got %v", err)
	}
	if err := svc.ShareHabit(ctx, alice.ID, g.ID, run.ID); err != nil {
		t.Fatalf("ShareHabit failed: %v", err)
	}
	if err := svc.ShareHabit(ctx, alice.ID, g.ID, run.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict sharing twice, got %v", err)
	}
	if _, _, err := svc.ToggleHabitLog(ctx, alice.ID, run.ID, ""); err != nil {
		t.Fatalf("ToggleHabitLog failed: %v", err)
	}

	progress, err := svc.GroupProgress(ctx, bob.ID, g.ID, "")
	if err != nil {
		t.Fatalf("GroupProgress failed: %v", err)
	}
	if len(progress) != 2 {
		t.Fatalf("expected 2 members, got %d", len(progress))
	}
	for _, mp := range progress {
		switch mp.UserID {
		case alice.ID:
			if mp.Total != 1 || mp.Completed != 1 || mp.Habits[0].Streak != 1 {
				t.Errorf("unexpected progress for alice: %+v", mp)
			}
		case bob.ID:
			if mp.Total != 0 {
				t.Errorf("expected bob to share nothing, got %+v", mp)
			}
		}
	}

	stats, err := svc.GroupStats(ctx, bob.ID, g.ID)
	if err != nil {
		t.Fatalf("GroupStats failed: %v", err)
	}
	if stats[0].UserID != alice.ID || stats[0].CommitmentScore != 15 {
		t.Errorf("expected alice first with score 15, got %+v", stats[0])
	}

	if err := svc.UnshareHabit(ctx, alice.ID, g.ID, run.ID); err != nil {
		t.Fatalf("UnshareHabit failed: %v", err)
	}
	progress, _ = svc.GroupProgress(ctx, bob.ID, g.ID, "")
	for _, mp := range progress {
		if mp.Total != 0 {
			t.Errorf("expected nothing shared after unshare, got %+v", mp)
		}
	}
}
