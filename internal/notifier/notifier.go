// Package notifier delivers short reminder texts to the user: through the
// desktop tray companion, a Telegram chat, or both.
package notifier

import (
	"context"
	"errors"
	"fmt"
)

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Multi sends to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, text); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", n, err))
		}
	}
	return errors.Join(errs...)
}

// Discard drops every notification; used when nothing is configured.
type Discard struct{}

func (Discard) Notify(context.Context, string) error { return nil }
