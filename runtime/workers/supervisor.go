package workers

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	apperr "batepapo/errors"
)

const waitTimeBeforeRestart = 200 * time.Millisecond

// Worker is a long-lived background task. It does not protect itself;
// the Supervisor handles panics and restarts.
type Worker interface {
	Run(ctx context.Context) error
}

// Supervisor runs each worker in its own goroutine, recovers panics,
// restarts crashed workers, and waits for all of them on shutdown.
type Supervisor struct {
	cancel  context.CancelFunc
	wg      *sync.WaitGroup
	log     *slog.Logger
	workers []Worker
}

func NewSupervisor(log *slog.Logger) *Supervisor {
	return &Supervisor{wg: &sync.WaitGroup{}, log: log}
}

func (s *Supervisor) Add(worker ...Worker) *Supervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Run starts every registered worker under a cancellation scope derived
// from ctx and blocks until all of them have returned.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer s.cancel()

	for _, worker := range s.workers {
		s.start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

// start runs one worker under supervision. A panic or error in the worker
// restarts it after a short delay; it never takes the supervisor down.
// A worker that returns nil is considered finished and is not restarted.
func (s *Supervisor) start(ctx context.Context, worker Worker) {
	s.wg.Add(1)
	name := workerName(worker)

	go func() {
		defer s.wg.Done()

		for {
			if ctx.Err() != nil {
				s.log.Info(fmt.Sprintf("Stopping : %s", name))
				return
			}

			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = apperr.ErrWorkerPanic
					}
				}()
				return worker.Run(ctx)
			}()

			if err == nil {
				s.log.Info("Worker finished", "name", name)
				return
			}
			if ctx.Err() != nil {
				s.log.Info("Worker stopped (context canceled)", "name", name)
				return
			}

			s.log.Warn("Worker crashed, restarting", "name", name, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(waitTimeBeforeRestart):
			}
		}
	}()
}

// Stop cancels all supervised workers; Run returns once they are done.
func (s *Supervisor) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// workerName resolves the concrete type name for logs, sparing workers a
// naming method.
func workerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
