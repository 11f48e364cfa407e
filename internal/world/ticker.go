package world

import (
	"context"
	"time"

	"github.com/telgard/server/internal/gamemap"
	"go.uber.org/zap"
)

// Ticker drives the global heartbeat: one pulse per tick_rate to the world,
// every map actor and every player actor. Map actors run their sub-cadences
// off this pulse; player actors use it for ping liveness and hangup checks.
func (w *World) Ticker(ctx context.Context) {
	t := time.NewTicker(w.cfg.World.TickRate.Duration)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			w.tick()
		case <-ctx.Done():
			return
		case <-w.done:
			return
		}
	}
}

func (w *World) tick() {
	w.post(func(ww *World) {
		for _, m := range ww.maps {
			m.Tick()
		}
		for _, h := range ww.players {
			h.Pulse()
		}

		ww.saveTicks++
		if ww.saveTicks >= ww.cfg.World.SaveRate {
			ww.saveTicks = 0
			ww.saveAll()
		}
	})
}

// saveAll snapshots every map's characters and flushes them to SQL off the
// coordinator goroutine.
func (w *World) saveAll() {
	if w.chars == nil {
		return
	}
	maps := make([]*gamemap.Map, 0, len(w.maps))
	for _, m := range w.maps {
		maps = append(maps, m)
	}
	go func() {
		saved := 0
		for _, m := range maps {
			chars, err := m.SnapshotCharacters()
			if err != nil {
				continue
			}
			for _, c := range chars {
				ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
				err := w.chars.Save(ctx, c)
				cancel()
				if err != nil {
					w.log.Error("週期存檔失敗", zap.String("name", c.Name), zap.Error(err))
					continue
				}
				saved++
			}
		}
		if saved > 0 {
			w.log.Debug("週期存檔完成", zap.Int("characters", saved))
		}
	}()
}
