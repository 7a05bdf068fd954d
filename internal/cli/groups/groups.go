package groups

import (
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/service"
)

type GroupCmd struct {
	Create   GroupCreateCmd   `cmd:"" help:"Create a group."`
	List     GroupListCmd     `cmd:"" help:"List your groups."`
	Show     GroupShowCmd     `cmd:"" help:"Show a group's members and shared habits."`
	Edit     GroupEditCmd     `cmd:"" help:"Edit a group (admins)."`
	Join     GroupJoinCmd     `cmd:"" help:"Join a group with an invite code."`
	Leave    GroupLeaveCmd    `cmd:"" help:"Leave a group."`
	Role     GroupRoleCmd     `cmd:"" help:"Change a member's role (admins)."`
	Kick     GroupKickCmd     `cmd:"" help:"Remove a member (admins)."`
	Invite   GroupInviteCmd   `cmd:"" help:"Show or regenerate the invite code."`
	Share    GroupShareCmd    `cmd:"" help:"Share one of your habits with a group."`
	Unshare  GroupUnshareCmd  `cmd:"" help:"Stop sharing a habit with a group."`
	Progress GroupProgressCmd `cmd:"" help:"Show members' progress on shared habits."`
	Stats    GroupStatsCmd    `cmd:"" help:"Show member stats and ranks."`
	Delete   GroupDeleteCmd   `cmd:"" help:"Delete a group (admins)."`
	Watch    GroupWatchCmd    `cmd:"" help:"Follow a group's progress live from a running server."`
}

type GroupCreateCmd struct {
	Name        string `arg:"" help:"Group name."`
	Description string `help:"Optional description."`
	Avatar      string `help:"Avatar URL."`
}

func (c *GroupCreateCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	g, err := ctx.Service.CreateGroup(ctx.Context(), user.ID, service.GroupInput{
		Name:        c.Name,
		Description: c.Description,
		AvatarURL:   c.Avatar,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created group %s\n", g.Name)
	fmt.Printf("Invite code: %s\n", g.InviteCode)
	return nil
}

type GroupListCmd struct{}

func (c *GroupListCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	groups, err := ctx.Service.ListGroups(ctx.Context(), user.ID)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Println("You are not in any group.")
		return nil
	}
	for _, g := range groups {
		fmt.Printf("%s  %s\n", cli.ShortID(g.ID), g.Name)
	}
	return nil
}

type GroupShowCmd struct {
	Group string `arg:"" help:"Group name or ID."`
}

func (c *GroupShowCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	g, err := ctx.FindGroup(user.ID, c.Group)
	if err != nil {
		return err
	}
	d, err := ctx.Service.GetGroup(ctx.Context(), user.ID, g.ID)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", d.Group.Name)
	if d.Group.Description != "" {
		fmt.Printf("  %s\n", d.Group.Description)
	}
	fmt.Printf("  Invite code: %s\n", d.Group.InviteCode)
	fmt.Printf("\nMembers:\n")
	for _, m := range d.Members {
		fmt.Printf("  %-20s %-6s joined %s\n", m.UserName, m.Role, m.JoinedAt.Format("2006-01-02"))
	}
	fmt.Printf("\nShared habits:\n")
	if len(d.Shared) == 0 {
		fmt.Println("  none")
	}
	for _, h := range d.Shared {
		fmt.Printf("  %-30s %s\n", h.Title, h.Frequency)
	}
	return nil
}

type GroupEditCmd struct {
	Group       string  `arg:"" help:"Group name or ID."`
	Name        *string `help:"New name."`
	Description *string `help:"New description."`
	Avatar      *string `help:"New avatar URL."`
}

func (c *GroupEditCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	g, err := ctx.FindGroup(user.ID, c.Group)
	if err != nil {
		return err
	}
	patch := service.GroupPatch{Name: c.Name, Description: c.Description, AvatarURL: c.Avatar}
	if patch == (service.GroupPatch{}) {
		fmt.Println("No changes specified.")
		return nil
	}
	g, err = ctx.Service.UpdateGroup(ctx.Context(), user.ID, g.ID, patch)
	if err != nil {
		return err
	}
	fmt.Printf("Updated group: %s\n", g.Name)
	return nil
}

type GroupJoinCmd struct {
	Code string `arg:"" help:"Invite code."`
}

func (c *GroupJoinCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	g, err := ctx.Service.JoinGroup(ctx.Context(), user.ID, c.Code)
	if err != nil {
		return err
	}
	fmt.Printf("Joined group %s\n", g.Name)
	return nil
}

type GroupLeaveCmd struct {
	Group string `arg:"" help:"Group name or ID."`
}

func (c *GroupLeaveCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	g, err := ctx.FindGroup(user.ID, c.Group)
	if err != nil {
		return err
	}
	if err := ctx.Service.LeaveGroup(ctx.Context(), user.ID, g.ID); err != nil {
		return err
	}
	fmt.Printf("Left group %s\n", g.Name)
	return nil
}

type GroupRoleCmd struct {
	Group  string `arg:"" help:"Group name or ID."`
	Member string `arg:"" help:"Member name or user ID."`
	Role   string `arg:"" help:"member or admin." enum:"member,admin"`
}

func (c *GroupRoleCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	g, err := ctx.FindGroup(user.ID, c.Group)
	if err != nil {
		return err
	}
	m, err := ctx.FindMember(user.ID, g.ID, c.Member)
	if err != nil {
		return err
	}
	if err := ctx.Service.SetMemberRole(ctx.Context(), user.ID, g.ID, m.UserID, c.Role); err != nil {
		return err
	}
	fmt.Printf("%s is now %s of %s\n", m.UserName, c.Role, g.Name)
	return nil
}

type GroupKickCmd struct {
	Group  string `arg:"" help:"Group name or ID."`
	Member string `arg:"" help:"Member name or user ID."`
}

func (c *GroupKickCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	g, err := ctx.FindGroup(user.ID, c.Group)
	if err != nil {
		return err
	}
	m, err := ctx.FindMember(user.ID, g.ID, c.Member)
	if err != nil {
		return err
	}
	if err := ctx.Service.RemoveMember(ctx.Context(), user.ID, g.ID, m.UserID); err != nil {
		return err
	}
	fmt.Printf("Removed %s from %s\n", m.UserName, g.Name)
	return nil
}

type GroupInviteCmd struct {
	Group      string `arg:"" help:"Group name or ID."`
	Regenerate bool   `help:"Replace the invite code (admins)."`
}

func (c *GroupInviteCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	g, err := ctx.FindGroup(user.ID, c.Group)
	if err != nil {
		return err
	}
	if c.Regenerate {
		if g, err = ctx.Service.RegenerateInviteCode(ctx.Context(), user.ID, g.ID); err != nil {
			return err
		}
	}
	fmt.Printf("Invite code for %s: %s\n", g.Name, g.InviteCode)
	return nil
}

type GroupShareCmd struct {
	Group string `arg:"" help:"Group name or ID."`
	Habit string `arg:"" help:"Habit title or ID."`
}

func (c *GroupShareCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	g, err := ctx.FindGroup(user.ID, c.Group)
	if err != nil {
		return err
	}
	h, err := ctx.FindHabit(user.ID, c.Habit)
	if err != nil {
		return err
	}
	if err := ctx.Service.ShareHabit(ctx.Context(), user.ID, g.ID, h.ID); err != nil {
		return err
	}
	fmt.Printf("Shared %q with %s\n", h.Title, g.Name)
	return nil
}

type GroupUnshareCmd struct {
	Group string `arg:"" help:"Group name or ID."`
	Habit string `arg:"" help:"Habit title or ID."`
}

func (c *GroupUnshareCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	g, err := ctx.FindGroup(user.ID, c.Group)
	if err != nil {
		return err
	}
	h, err := ctx.FindHabit(user.ID, c.Habit)
	if err != nil {
		return err
	}
	if err := ctx.Service.UnshareHabit(ctx.Context(), user.ID, g.ID, h.ID); err != nil {
		return err
	}
	fmt.Printf("Stopped sharing %q with %s\n", h.Title, g.Name)
	return nil
}

type GroupProgressCmd struct {
	Group string `arg:"" help:"Group name or ID."`
	Day   string `help:"Day in YYYY-MM-DD format (default: today)."`
}

func (c *GroupProgressCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	g, err := ctx.FindGroup(user.ID, c.Group)
	if err != nil {
		return err
	}
	progress, err := ctx.Service.GroupProgress(ctx.Context(), user.ID, g.ID, c.Day)
	if err != nil {
		return err
	}
	printProgress(progress)
	return nil
}

func printProgress(progress []models.MemberProgress) {
	for _, p := range progress {
		fmt.Printf("%s  %d/%d\n", p.UserName, p.Completed, p.Total)
		for _, h := range p.Habits {
			fmt.Printf("  %s %-30s streak %d\n", cli.StatusMark(h.Status), h.Title, h.Streak)
		}
	}
}

type GroupStatsCmd struct {
	Group string `arg:"" help:"Group name or ID."`
}

func (c *GroupStatsCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	g, err := ctx.FindGroup(user.ID, c.Group)
	if err != nil {
		return err
	}
	stats, err := ctx.Service.GroupStats(ctx.Context(), user.ID, g.ID)
	if err != nil {
		return err
	}
	fmt.Printf("%-20s %6s %6s %5s %6s  %s\n", "MEMBER", "STREAK", "DONE", "WON", "SCORE", "RANK")
	for _, s := range stats {
		fmt.Printf("%-20s %6d %6d %5d %6d  %s (%d%%)\n", s.UserName, s.Streak, s.HabitsCompleted, s.ChallengesWon, s.CommitmentScore, s.Rank, s.RankProgress)
	}
	return nil
}

type GroupDeleteCmd struct {
	Group string `arg:"" help:"Group name or ID."`
}

func (c *GroupDeleteCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	g, err := ctx.FindGroup(user.ID, c.Group)
	if err != nil {
		return err
	}
	if err := ctx.Service.DeleteGroup(ctx.Context(), user.ID, g.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted group %s\n", g.Name)
	return nil
}
