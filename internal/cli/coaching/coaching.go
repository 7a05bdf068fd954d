package coaching

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
)

type CoachCmd struct {
	Suggest CoachSuggestCmd `cmd:"" help:"Ask the coach for a routine towards a goal."`
}

type CoachSuggestCmd struct {
	Goal   []string `arg:"" help:"What you want to work on."`
	Accept bool     `help:"Create the suggested habits and tasks."`
	Day    string   `help:"Day for accepted tasks (default: today)."`
	JSON   bool     `name:"json" help:"Print the suggestion as JSON."`
}

func (c *CoachSuggestCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	sug, err := ctx.Service.SuggestRoutine(ctx.Context(), user.ID, strings.Join(c.Goal, " "))
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sug); err != nil {
			return err
		}
	} else {
		printSuggestion(sug)
	}

	if !c.Accept {
		return nil
	}
	res, err := ctx.Service.AcceptSuggestion(ctx.Context(), user.ID, sug, c.Day)
	if err != nil {
		return err
	}
	fmt.Printf("\nAdded %d habit(s) and %d task(s).\n", len(res.Habits), len(res.Tasks))
	for _, title := range res.Skipped {
		fmt.Printf("  skipped %q: already tracked\n", title)
	}
	return nil
}

func printSuggestion(s models.Suggestion) {
	if s.Summary != "" {
		fmt.Println(s.Summary)
		fmt.Println()
	}
	if len(s.Habits) > 0 {
		fmt.Println("Habits:")
		for _, h := range s.Habits {
			fmt.Printf("  %-30s %-10s %s\n", h.Title, h.Frequency, h.Category)
			if h.Description != "" {
				fmt.Printf("    %s\n", h.Description)
			}
		}
	}
	if len(s.Tasks) > 0 {
		fmt.Println("Tasks:")
		for _, t := range s.Tasks {
			fmt.Printf("  %-40s %s\n", t.Title, t.Priority)
		}
	}
	if s.Source != "" {
		fmt.Printf("\n(suggested by %s)\n", s.Source)
	}
}
