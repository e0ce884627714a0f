package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/corey/survey/internal/domain/status"
	"github.com/corey/survey/internal/ports"
	"go.uber.org/zap"
)

// FollowStatus calls onChange with the current status snapshot, then again
// each time the controller rewrites it, until ctx is done. The snapshot is
// written by whichever process holds the session, so this works alongside
// a running `survey run`. A removed snapshot (reset) reports nil.
//
// Partially written snapshots fail to parse and are skipped; the write that
// completes them fires another event.
func FollowStatus(ctx context.Context, w ports.Watcher, p *Paths, log *zap.Logger, onChange func(*status.StatusData)) error {
	if log == nil {
		log = zap.NewNop()
	}
	target, err := filepath.Abs(p.Status)
	if err != nil {
		return err
	}

	err = w.Watch(p.Root, func(changed string) {
		if changed != target {
			return
		}
		sd, err := status.Read(changed)
		if err != nil {
			log.Debug("status unreadable", zap.String("path", changed), zap.Error(err))
			return
		}
		onChange(sd)
	})
	if err != nil {
		w.Stop()
		return fmt.Errorf("watch %s: %w", p.Root, err)
	}
	defer w.Stop()

	// Read after watching so no write between the two is missed.
	sd, err := status.Read(p.Status)
	if err != nil {
		log.Debug("status unreadable", zap.Error(err))
	} else {
		onChange(sd)
	}

	<-ctx.Done()
	return nil
}
