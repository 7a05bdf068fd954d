package system

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/notifier"
	"github.com/julianstephens/habitual/internal/realtime"
	"github.com/julianstephens/habitual/internal/scheduler"
	"github.com/julianstephens/habitual/internal/server"
	"github.com/julianstephens/habitual/internal/service"
)

type ServeCmd struct {
	RedisURL       string `name:"redis-url" env:"HABITUAL_REDIS_URL" help:"Share group events between instances through Redis (redis://host:port/db)."`
	TelegramToken  string `name:"telegram-token" env:"TG_TOKEN" help:"Telegram bot token for reminders. Falls back to the OS keyring."`
	TelegramChatID int64  `name:"telegram-chat" env:"TG_CHAT_ID" help:"Telegram chat that receives reminders."`
	NoTray         bool   `help:"Do not send reminders to the desktop tray app."`
	NoScheduler    bool   `help:"Do not run background jobs (streak refresh, challenge results, reminders)."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	base := ctx.Context()
	opts := append([]service.Option{}, ctx.Options...)

	var relay *realtime.RedisBroker
	if c.RedisURL != "" {
		b, err := realtime.NewRedisBroker(base, c.RedisURL)
		if err != nil {
			return err
		}
		defer b.Close()
		relay = b
		opts = append(opts, service.WithBroker(b))
		logger.Info("Sharing group events through Redis")
	}
	svc := service.New(ctx.Store, opts...)

	// Everything that can fail is built before the first goroutine starts.
	var sched *scheduler.Scheduler
	if !c.NoScheduler {
		n, err := c.notifier()
		if err != nil {
			return err
		}
		if sched, err = scheduler.New(svc, n); err != nil {
			return err
		}
	}
	srv := server.New(svc, ctx.Addr)

	g, gctx := errgroup.WithContext(base)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if relay != nil {
		g.Go(func() error {
			return relay.Run(gctx)
		})
	}
	if sched != nil {
		g.Go(func() error {
			return sched.Run(gctx)
		})
	}

	fmt.Printf("habitual %s serving on http://%s\n", constants.Version, serveAddr(ctx.Addr))
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (c *ServeCmd) notifier() (notifier.Notifier, error) {
	var multi notifier.Multi
	if !c.NoTray {
		multi = append(multi, notifier.NewTray())
	}

	token := c.TelegramToken
	if token == "" {
		if t, err := keyring.Get(keyring.TelegramToken); err == nil {
			token = t
		}
	}
	if token != "" {
		if c.TelegramChatID == 0 {
			return nil, errors.New("a Telegram token is configured but TG_CHAT_ID is not set")
		}
		tg, err := notifier.NewTelegram(token, c.TelegramChatID)
		if err != nil {
			return nil, err
		}
		multi = append(multi, tg)
	}

	if len(multi) == 0 {
		return notifier.Discard{}, nil
	}
	return multi, nil
}

func serveAddr(addr string) string {
	if addr == "" {
		return constants.DefaultServerAddr
	}
	return addr
}
