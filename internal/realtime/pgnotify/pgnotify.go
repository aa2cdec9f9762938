// Package pgnotify feeds a realtime.Registry from PostgreSQL LISTEN/NOTIFY.
//
// The migrations install triggers that call pg_notify('<table>_changes', ...)
// with a JSON payload of the form {"table": ..., "op": ..., "id": ...}.
package pgnotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/MrJamesThe3rd/finny/internal/realtime"
)

// Channel returns the notification channel of table.
func Channel(table string) string {
	return table + "_changes"
}

// Publisher receives decoded events. *realtime.Registry satisfies it.
type Publisher interface {
	Publish(e realtime.Event)
}

// Listener holds a dedicated connection listening on every table channel.
// Watch and Unwatch only decide which notifications are forwarded, so no
// statement has to run on the connection while Run waits on it.
type Listener struct {
	conn *pgx.Conn

	mu      sync.RWMutex
	watched map[string]bool
}

// Connect opens the listening connection and subscribes it to the channels
// of every known table.
func Connect(ctx context.Context, dsn string) (*Listener, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting listener: %w", err)
	}

	for _, table := range realtime.Tables {
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{Channel(table)}.Sanitize()); err != nil {
			_ = conn.Close(ctx)
			return nil, fmt.Errorf("listening on %s: %w", table, err)
		}
	}

	return &Listener{conn: conn, watched: make(map[string]bool)}, nil
}

func (l *Listener) Watch(table string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.watched[table] = true

	return nil
}

func (l *Listener) Unwatch(table string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.watched, table)

	return nil
}

func (l *Listener) isWatched(table string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.watched[table]
}

// Run forwards notifications to pub until ctx is done.
func (l *Listener) Run(ctx context.Context, pub Publisher) error {
	for {
		n, err := l.conn.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}

			return fmt.Errorf("waiting for notification: %w", err)
		}

		e, err := decode(n.Payload)
		if err != nil {
			slog.Error("failed to decode notification", "channel", n.Channel, "error", err)
			continue
		}

		if l.isWatched(e.Table) {
			pub.Publish(e)
		}
	}
}

func (l *Listener) Close(ctx context.Context) error {
	return l.conn.Close(ctx)
}

func decode(payload string) (realtime.Event, error) {
	var e realtime.Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return realtime.Event{}, fmt.Errorf("decoding payload: %w", err)
	}

	if e.Table == "" {
		return realtime.Event{}, errors.New("payload has no table")
	}

	return e, nil
}
