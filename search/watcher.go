package search

import (
	"context"

	"notevault-api/domain"
)

// NoteSource is the slice of a note store the watcher needs: the current
// snapshot and a change-signal subscription.
type NoteSource interface {
	Snapshot() []domain.Note
	Subscribe() (<-chan struct{}, func())
}

// Watch builds an index over src and rebuilds it whenever src signals a
// change, until ctx ends. The index is usable immediately.
func Watch(ctx context.Context, src NoteSource, cfg Config) *Index {
	ix := NewIndex(cfg)
	ix.Rebuild(src.Snapshot())

	ch, cancel := src.Subscribe()
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				ix.Rebuild(src.Snapshot())
			}
		}
	}()
	return ix
}
