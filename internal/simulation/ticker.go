// Package simulation drives the fleet forward on a fixed interval, standing in
// for devices that are not reporting on their own.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"uld-tracker/internal/analytics"
	"uld-tracker/internal/domain/uld"
)

var ErrAlreadyRunning = errors.New("simulation already running")

// Fleet is the part of the fleet service the ticker drives.
type Fleet interface {
	AssetIDs() []string
	Mutate(id string, fn func(u *uld.ULD)) (uld.ULD, error)
	PublishAnalytics() analytics.Snapshot
}

type Observer interface {
	TickCompleted(elapsed time.Duration, result TickResult)
}

type TickResult struct {
	Considered int
	Advanced   int
	Failed     int
	Analytics  bool
}

// Ticker is a start/stop handle around the periodic simulation step.
type Ticker struct {
	fleet    Fleet
	model    Model
	interval time.Duration
	log      *zap.Logger
	observer Observer

	stepMu sync.Mutex
	rng    *rand.Rand

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewTicker(fleet Fleet, model Model, interval time.Duration, rng *rand.Rand, log *zap.Logger) *Ticker {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ticker{
		fleet:    fleet,
		model:    model,
		interval: interval,
		rng:      rng,
		log:      log,
	}
}

func (t *Ticker) SetObserver(o Observer) {
	t.observer = o
}

// Start launches the tick loop. It runs until Stop is called or ctx ends.
func (t *Ticker) Start(ctx context.Context) error {
	if t.interval <= 0 {
		return fmt.Errorf("invalid tick interval %v", t.interval)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})

	go t.run(ctx, t.done)

	t.log.Info("Simulation started",
		zap.Duration("interval", t.interval),
		zap.Float64("inclusion_probability", t.model.InclusionProbability),
		zap.Float64("analytics_probability", t.model.AnalyticsProbability),
	)
	return nil
}

// Stop ends the loop and waits for an in-flight tick to finish.
func (t *Ticker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	t.log.Info("Simulation stopped")
}

func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

func (t *Ticker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Step()
		}
	}
}

// Step runs one tick synchronously.
func (t *Ticker) Step() TickResult {
	t.stepMu.Lock()
	defer t.stepMu.Unlock()

	start := time.Now()
	ids := t.fleet.AssetIDs()
	result := TickResult{Considered: len(ids)}

	for _, id := range ids {
		if t.rng.Float64() >= t.model.InclusionProbability {
			continue
		}
		if err := t.advance(id); err != nil {
			result.Failed++
			t.log.Warn("Failed to advance ULD",
				zap.String("uld_id", id),
				zap.Error(err),
			)
			continue
		}
		result.Advanced++
	}

	if t.rng.Float64() < t.model.AnalyticsProbability {
		if err := t.publishAnalytics(); err != nil {
			t.log.Warn("Failed to publish analytics snapshot", zap.Error(err))
		} else {
			result.Analytics = true
		}
	}

	elapsed := time.Since(start)
	if t.observer != nil {
		t.observer.TickCompleted(elapsed, result)
	}

	t.log.Debug("Tick completed",
		zap.Int("advanced", result.Advanced),
		zap.Int("failed", result.Failed),
		zap.Bool("analytics", result.Analytics),
		zap.Duration("elapsed", elapsed),
	)

	return result
}

// advance isolates one ULD: a panic here is reported as that ULD's error and
// the rest of the tick carries on.
func (t *Ticker) advance(id string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic advancing %s: %v", id, r)
		}
	}()

	_, err = t.fleet.Mutate(id, func(u *uld.ULD) {
		t.model.Advance(u, t.rng)
	})
	return err
}

func (t *Ticker) publishAnalytics() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic publishing analytics: %v", r)
		}
	}()

	t.fleet.PublishAnalytics()
	return nil
}
