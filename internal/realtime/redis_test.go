package realtime

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

// Set REDIS_TEST_URL (e.g. redis://localhost:6379/15) to run against a real server.
func TestRedisBroker_RoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set, skipping Redis integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	broker, err := NewRedisBroker(ctx, url)
	if err != nil {
		t.Fatalf("NewRedisBroker failed: %v", err)
	}
	defer broker.Close()

	runCtx, stop := context.WithCancel(ctx)
	runDone := make(chan error, 1)
	go func() { runDone <- broker.Run(runCtx) }()
	defer func() {
		stop()
		<-runDone
	}()

	ch, unsubscribe := broker.Subscribe("g-redis")
	defer unsubscribe()

	// PSubscribe is asynchronous; publish until the relay is live.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if err := broker.Publish(ctx, Event{Type: constants.EventGroupUpdated, GroupID: "g-redis"}); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
		select {
		case e := <-ch:
			if e.Type != constants.EventGroupUpdated {
				t.Errorf("unexpected event %+v", e)
			}
			return
		case <-ticker.C:
		case <-ctx.Done():
			t.Fatal("timed out waiting for relayed event")
		}
	}
}

func TestNewRedisBroker_InvalidURL(t *testing.T) {
	if _, err := NewRedisBroker(context.Background(), "not-a-url"); err == nil {
		t.Fatal("expected error for invalid redis url")
	}
}
