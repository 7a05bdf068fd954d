package realtime

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ServeWS upgrades the request and streams groupID's events as JSON until
// the client goes away or the request context ends. Authorization is the
// caller's job.
func ServeWS(w http.ResponseWriter, r *http.Request, broker Broker, groupID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		logger.Debug("Websocket upgrade failed", "group", groupID, "error", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := broker.Subscribe(groupID)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The read side only notices closes and keeps pong handling alive.
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(2 * constants.WSPingInterval))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * constants.WSPingInterval))
	})
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(constants.WSPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(constants.WSWriteTimeout))
			conn.Close()
			<-readDone
			return
		case e, ok := <-events:
			if !ok {
				events = nil
				cancel()
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(constants.WSWriteTimeout))
			if err := conn.WriteJSON(e); err != nil {
				logger.Debug("Websocket write failed", "group", groupID, "error", err)
				cancel()
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(constants.WSWriteTimeout)); err != nil {
				cancel()
			}
		}
	}
}

// Watch dials a group event stream at url (ws:// or wss://) and calls fn
// for each event until ctx ends, the server closes the stream, or fn
// returns an error.
func Watch(ctx context.Context, url string, header http.Header, fn func(Event) error) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return errors.Join(err, errors.New(resp.Status))
		}
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(constants.WSWriteTimeout))
		conn.Close()
	})
	defer stop()

	for {
		var e Event
		if err := conn.ReadJSON(&e); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}
