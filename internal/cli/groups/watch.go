package groups

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/realtime"
)

type GroupWatchCmd struct {
	Group string `arg:"" help:"Group name or ID."`
}

// Run prints the group's progress, then reprints it whenever the server
// reports a change, until interrupted.
func (c *GroupWatchCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	g, err := ctx.FindGroup(user.ID, c.Group)
	if err != nil {
		return err
	}

	refresh := func() error {
		progress, err := ctx.Service.GroupProgress(ctx.Context(), user.ID, g.ID, "")
		if err != nil {
			return err
		}
		fmt.Printf("\n%s  %s\n", g.Name, time.Now().Format("15:04:05"))
		printProgress(progress)
		return nil
	}
	if err := refresh(); err != nil {
		return err
	}

	u := EventsURL(ctx.Addr, g.ID)
	header := http.Header{}
	header.Set(constants.UserHeader, user.ID)
	logger.Debug("Watching group", "group", g.ID, "url", u)
	return realtime.Watch(ctx.Context(), u, header, func(e realtime.Event) error {
		logger.Debug("Group event", "type", e.Type, "user", e.UserID)
		return refresh()
	})
}

// EventsURL is the websocket URL of a group's event stream on addr
// (host:port or an http(s) base URL).
func EventsURL(addr, groupID string) string {
	u, err := url.Parse(addr)
	if err != nil || u.Host == "" {
		u = &url.URL{Scheme: "http", Host: addr}
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/api/groups/" + url.PathEscape(groupID) + "/events"
	return u.String()
}
