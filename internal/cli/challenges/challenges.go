package challenges

import (
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/service"
)

type ChallengeCmd struct {
	Create      ChallengeCreateCmd      `cmd:"" help:"Create a challenge in a group."`
	List        ChallengeListCmd        `cmd:"" help:"List a group's challenges."`
	Join        ChallengeJoinCmd        `cmd:"" help:"Join a challenge."`
	Progress    ChallengeProgressCmd    `cmd:"" help:"Record progress on a challenge."`
	Leaderboard ChallengeLeaderboardCmd `cmd:"" help:"Show a challenge's leaderboard."`
}

type ChallengeCreateCmd struct {
	Group       string `arg:"" help:"Group name or ID."`
	Title       string `arg:"" help:"Challenge title."`
	Target      int    `required:"" help:"Target value to reach."`
	Unit        string `help:"Unit of progress." default:"times"`
	Start       string `help:"First day (default: today)."`
	End         string `required:"" help:"Last day, inclusive (YYYY-MM-DD)."`
	Description string `help:"Optional description."`
}

func (c *ChallengeCreateCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	g, err := ctx.FindGroup(user.ID, c.Group)
	if err != nil {
		return err
	}
	ch, err := ctx.Service.CreateChallenge(ctx.Context(), user.ID, g.ID, service.ChallengeInput{
		Title:       c.Title,
		Description: c.Description,
		TargetValue: c.Target,
		Unit:        c.Unit,
		StartDay:    c.Start,
		EndDay:      c.End,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created challenge %q: %d %s from %s to %s (%s)\n", ch.Title, ch.TargetValue, ch.Unit, ch.StartDay, ch.EndDay, cli.ShortID(ch.ID))
	return nil
}

type ChallengeListCmd struct {
	Group string `arg:"" help:"Group name or ID."`
}

func (c *ChallengeListCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	g, err := ctx.FindGroup(user.ID, c.Group)
	if err != nil {
		return err
	}
	cs, err := ctx.Service.ListChallenges(ctx.Context(), user.ID, g.ID)
	if err != nil {
		return err
	}
	if len(cs) == 0 {
		fmt.Println("No challenges found.")
		return nil
	}
	for _, s := range cs {
		joined := ""
		if s.Joined {
			joined = fmt.Sprintf("  you: %d/%d", s.Progress, s.TargetValue)
		}
		fmt.Printf("%s  %-30s %-8s %s..%s  %d joined%s\n", cli.ShortID(s.ID), s.Title, s.Status, s.StartDay, s.EndDay, s.Participants, joined)
	}
	return nil
}

type ChallengeJoinCmd struct {
	Challenge string `arg:"" help:"Challenge title or ID."`
}

func (c *ChallengeJoinCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	ch, err := ctx.FindChallenge(user.ID, c.Challenge)
	if err != nil {
		return err
	}
	if err := ctx.Service.JoinChallenge(ctx.Context(), user.ID, ch.ID); err != nil {
		return err
	}
	fmt.Printf("Joined challenge %q\n", ch.Title)
	return nil
}

type ChallengeProgressCmd struct {
	Challenge string `arg:"" help:"Challenge title or ID."`
	Add       *int   `help:"Add to your progress (may be negative)."`
	Set       *int   `help:"Set your progress to this value."`
}

func (c *ChallengeProgressCmd) Run(ctx *cli.Context) error {
	if (c.Add == nil) == (c.Set == nil) {
		return apperrors.Invalidf("pass exactly one of --add or --set")
	}
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	ch, err := ctx.FindChallenge(user.ID, c.Challenge)
	if err != nil {
		return err
	}
	if c.Add != nil {
		p, err := ctx.Service.AddProgress(ctx.Context(), user.ID, ch.ID, *c.Add)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d/%d %s\n", ch.Title, p.Progress, ch.TargetValue, ch.Unit)
		return nil
	}
	p, err := ctx.Service.SetProgress(ctx.Context(), user.ID, ch.ID, *c.Set)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d/%d %s\n", ch.Title, p.Progress, ch.TargetValue, ch.Unit)
	return nil
}

type ChallengeLeaderboardCmd struct {
	Challenge string `arg:"" help:"Challenge title or ID."`
}

func (c *ChallengeLeaderboardCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	ch, err := ctx.FindChallenge(user.ID, c.Challenge)
	if err != nil {
		return err
	}
	lb, err := ctx.Service.Leaderboard(ctx.Context(), user.ID, ch.ID)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s, target %d %s)\n\n", lb.Challenge.Title, lb.Status, lb.Challenge.TargetValue, lb.Challenge.Unit)
	if len(lb.Entries) == 0 {
		fmt.Println("No participants yet.")
		return nil
	}
	for _, e := range lb.Entries {
		done := ""
		if e.CompletedAt != nil {
			done = "  done " + e.CompletedAt.Format("2006-01-02")
		}
		fmt.Printf("%3d. %-20s %6d  %3d%%%s\n", e.Rank, e.UserName, e.Progress, e.Percent, done)
	}
	return nil
}
