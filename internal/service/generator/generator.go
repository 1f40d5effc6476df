package generator

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"tradevision/internal/domain/models"
	"tradevision/internal/usecase"
	applogger "tradevision/pkg/logger"
)

// Config holds generator settings.
type Config struct {
	Symbols     []string
	Timeframes  []string
	MinInterval time.Duration
	MaxInterval time.Duration
}

// Status is a point-in-time view of the generator task.
type Status struct {
	Running   bool      `json:"running"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Emitted   int64     `json:"emitted"`
	Symbols   []string  `json:"symbols"`
}

// ErrAlreadyRunning is returned by Start when a task is active.
var ErrAlreadyRunning = errors.New("generator: already running")

// ErrNotRunning is returned by Stop when no task is active.
var ErrNotRunning = errors.New("generator: not running")

// Generator emits synthetic webhook events through the regular ingestion
// pipeline at randomized intervals. It is a demo aid: events it produces go
// through the same validation, idempotency and storage path as real ones.
//
// The task is an explicit handle. Start spawns at most one loop; Stop cancels
// it and waits for exit, so a Stop/Start sequence never leaves two loops
// racing.
type Generator struct {
	ingestor *usecase.Ingestor
	logger   *applogger.Logger
	cfg      Config

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time
	emitted   int64
}

// New creates a generator. Intervals default to 20-40s when unset.
func New(ingestor *usecase.Ingestor, cfg Config, l *applogger.Logger) *Generator {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 20 * time.Second
	}
	if cfg.MaxInterval < cfg.MinInterval {
		cfg.MaxInterval = 2 * cfg.MinInterval
	}
	if len(cfg.Timeframes) == 0 {
		cfg.Timeframes = []string{"5m"}
	}
	return &Generator{ingestor: ingestor, logger: l, cfg: cfg}
}

// Start launches the emit loop. Returns ErrAlreadyRunning if one is active.
func (g *Generator) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		return ErrAlreadyRunning
	}
	if len(g.cfg.Symbols) == 0 {
		return errors.New("generator: no symbols configured")
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	g.cancel = cancel
	g.done = make(chan struct{})
	g.startedAt = time.Now().UTC()
	g.emitted = 0

	go g.run(runCtx, g.done)

	g.logger.Info("signal generator started",
		applogger.Strings("symbols", g.cfg.Symbols),
		applogger.Strings("timeframes", g.cfg.Timeframes),
	)
	return nil
}

// Stop cancels the loop and waits for it to exit.
func (g *Generator) Stop() error {
	g.mu.Lock()
	if g.cancel == nil {
		g.mu.Unlock()
		return ErrNotRunning
	}
	cancel, done := g.cancel, g.done
	g.cancel = nil
	g.done = nil
	g.mu.Unlock()

	cancel()
	<-done

	g.logger.Info("signal generator stopped")
	return nil
}

// Status reports whether a task is running and how much it has emitted.
func (g *Generator) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := Status{
		Running: g.cancel != nil,
		Emitted: g.emitted,
		Symbols: g.cfg.Symbols,
	}
	if st.Running {
		st.StartedAt = g.startedAt
	}
	return st
}

func (g *Generator) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(g.nextInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		g.emit(ctx)
		timer.Reset(g.nextInterval())
	}
}

func (g *Generator) emit(ctx context.Context) {
	ev := models.WebhookEvent{
		TS:     time.Now().UnixMilli(),
		Symbol: g.cfg.Symbols[rand.IntN(len(g.cfg.Symbols))],
		TF:     g.cfg.Timeframes[rand.IntN(len(g.cfg.Timeframes))],
		Direction: func() string {
			if rand.IntN(2) == 0 {
				return string(models.DirectionUp)
			}
			return string(models.DirectionDown)
		}(),
	}

	out, err := g.ingestor.Submit(ctx, ev)
	if err != nil {
		g.logger.Warn("generator submit failed",
			applogger.Error(err),
			applogger.String("symbol", ev.Symbol),
			applogger.String("tf", ev.TF),
		)
		return
	}

	g.mu.Lock()
	g.emitted++
	g.mu.Unlock()

	g.logger.Debug("generator emitted",
		applogger.String("symbol", ev.Symbol),
		applogger.String("tf", ev.TF),
		applogger.String("status", out.Status),
	)
}

func (g *Generator) nextInterval() time.Duration {
	spread := g.cfg.MaxInterval - g.cfg.MinInterval
	if spread <= 0 {
		return g.cfg.MinInterval
	}
	return g.cfg.MinInterval + time.Duration(rand.Int64N(int64(spread)))
}
