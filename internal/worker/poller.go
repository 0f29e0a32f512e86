package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task is one unit of periodic work. It returns how many items it handled.
type Task func(ctx context.Context) (int, error)

// PollerConfig holds configuration for a Poller.
type PollerConfig struct {
	// Name identifies the poller in logs.
	Name string

	// Interval is how often the task runs (default: 5m).
	Interval time.Duration

	// RunOnStart runs the task once before the first tick.
	RunOnStart bool
}

// Poller runs a Task on a fixed interval until stopped. A failing run is
// logged and retried on the next tick.
type Poller struct {
	task   Task
	config PollerConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewPoller(task Task, config PollerConfig) *Poller {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Minute
	}
	if config.Name == "" {
		config.Name = "poller"
	}
	return &Poller{task: task, config: config}
}

// Start begins the polling loop. Returns an error if already running.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("%s is already running", p.config.Name)
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Poller started",
		"name", p.config.Name,
		"interval", p.config.Interval)
	return nil
}

// Run blocks until ctx is done, for use under an errgroup.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// Stop signals the loop and waits for the current run to finish.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Poller stopped", "name", p.config.Name)
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Poller stop timed out", "name", p.config.Name)
		return ctx.Err()
	}
}

func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	if p.config.RunOnStart {
		p.runOnce(ctx)
	}

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	n, err := p.task(ctx)
	switch {
	case err == nil:
		if n > 0 {
			slog.InfoContext(ctx, "Poll completed", "name", p.config.Name, "items", n)
		}
	case errors.Is(err, context.Canceled):
	default:
		slog.ErrorContext(ctx, "Poll failed", "name", p.config.Name, "error", err)
	}
}
