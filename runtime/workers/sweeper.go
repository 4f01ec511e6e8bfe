package workers

import (
	"context"
	"log/slog"
	"time"

	"batepapo/domain"
	"batepapo/repositories"
	"batepapo/services"
)

// EvictionWorker removes participants that stopped signaling activity.
// The sweep interval is deliberately longer than the idle timeout would
// require, so nobody survives more than one extra interval past expiry.
type EvictionWorker struct {
	log          *slog.Logger
	participants repositories.IParticipantRepository
	messages     repositories.IMessageRepository
	interval     time.Duration
	timeout      time.Duration
	now          services.Clock
}

func NewEvictionWorker(
	log *slog.Logger,
	participants repositories.IParticipantRepository,
	messages repositories.IMessageRepository,
	interval, timeout time.Duration,
	now services.Clock,
) *EvictionWorker {
	return &EvictionWorker{
		log:          log,
		participants: participants,
		messages:     messages,
		interval:     interval,
		timeout:      timeout,
		now:          now,
	}
}

// Run executes one sweep per tick. A sweep always runs to completion
// before the next tick fires, so sweeps never overlap.
func (w *EvictionWorker) Run(ctx context.Context) error {
	w.log.Info("Starting eviction worker", "interval", w.interval, "timeout", w.timeout)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep snapshots the directory and evicts every participant idle beyond
// the timeout. Each removal is independent: a failure on one participant
// is logged and the remaining candidates are still processed.
func (w *EvictionWorker) Sweep() {
	now := w.now()
	snapshot, err := w.participants.List()
	if err != nil {
		w.log.Error("Failed to snapshot participants", "err", err)
		return
	}

	for _, participant := range snapshot {
		if now.Sub(participant.LastActivity) <= w.timeout {
			continue
		}
		if err := w.evict(participant.Name, now); err != nil {
			w.log.Error("Failed to evict idle participant", "name", participant.Name, "err", err)
			continue
		}
		w.log.Info("Evicted idle participant", "name", participant.Name)
	}
}

// evict removes one participant and appends the "left" status notice.
func (w *EvictionWorker) evict(name string, now time.Time) error {
	if err := w.participants.Remove(name); err != nil {
		return err
	}
	_, err := w.messages.Append(domain.Message{
		From:      name,
		To:        domain.Broadcast,
		Text:      domain.LeftNotice,
		Kind:      domain.KindStatus,
		Time:      now.Format(domain.TimeLayout),
		CreatedAt: now,
	})
	return err
}
