package store

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"notevault-api/storage"
)

// runFeed holds one collection's live subscription for one user: every change
// event triggers a snapshot refresh. A broken pub/sub channel resets the
// snapshot to empty, logs, and reconnects after a pause; subscribers never
// see a broken stream, only an empty list until the feed recovers.
func (m *Manager) runFeed(ctx context.Context, collection, userID string, refresh func(context.Context)) {
	channel := storage.ChangeChannel(m.channelPrefix, collection, userID)
	for {
		sub := m.redis.Subscribe(ctx, channel)
		ch := sub.Channel()
	recv:
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case _, ok := <-ch:
				if !ok {
					break recv
				}
				refresh(ctx)
			}
		}
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		if m.logger != nil {
			m.logger.WithFields(log.Fields{"channel": channel}).Error("change feed closed, reconnecting")
		}
		refreshEmpty(refresh)
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

// refreshEmpty forces a refresh against a cancelled context so the snapshot
// resets to empty without touching the backend.
func refreshEmpty(refresh func(context.Context)) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	refresh(cancelled)
}
