package services

import (
	"context"
	"time"

	"github.com/yeremiapane/digital-menu/utils"
)

// LivenessChecker -> biasanya hub.Registry
type LivenessChecker interface {
	Has(connID string) bool
}

// ConnectionPruner secara berkala membersihkan jejak koneksi yang tidak ada di registry.
type ConnectionPruner struct {
	Presence *PresenceService
	Live     LivenessChecker
	StopChan chan struct{}
	Interval time.Duration
	Grace    time.Duration
}

func NewConnectionPruner(presence *PresenceService, live LivenessChecker, interval, grace time.Duration) *ConnectionPruner {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ConnectionPruner{
		Presence: presence,
		Live:     live,
		StopChan: make(chan struct{}),
		Interval: interval,
		Grace:    grace,
	}
}

func (p *ConnectionPruner) Start() {
	go func() {
		ticker := time.NewTicker(p.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.RunOnce(context.Background())
			case <-p.StopChan:
				return
			}
		}
	}()
}

func (p *ConnectionPruner) Stop() {
	close(p.StopChan)
}

func (p *ConnectionPruner) RunOnce(ctx context.Context) int {
	removed, err := p.Presence.PruneStale(ctx, p.Live.Has, time.Now().Add(-p.Grace))
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("Error pruning stale connections")
		return 0
	}
	return removed
}
