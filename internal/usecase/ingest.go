package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tradevision/internal/domain/models"
	"tradevision/internal/domain/repository"
	"tradevision/internal/events"
	"tradevision/internal/service/auth"
	"tradevision/internal/service/idempotency"
	"tradevision/internal/service/signalcache"
	applogger "tradevision/pkg/logger"
	"tradevision/pkg/metrics"
)

// Outcome is the result of submitting one webhook event.
type Outcome struct {
	Status string // models.StatusSuccess or models.StatusDuplicate
	Signal *models.Signal
}

// Ingestor drives the webhook pipeline: validate, duplicate-gate, commit,
// then best-effort side effects. Only the commit is authoritative; everything
// after it may fail without affecting the stored signal.
type Ingestor struct {
	validator *auth.Validator
	gate      *idempotency.Gate
	symbols   repository.SymbolStore
	signals   repository.SignalStore
	lastCache *signalcache.Cache
	stats     *StatsAggregator
	publisher events.Publisher
	recorder  *metrics.Recorder
	logger    *applogger.Logger
	window    int
}

// IngestorOption configures Ingestor.
type IngestorOption func(*Ingestor)

// WithStatsWindow sets the rolling window recomputed after each commit.
func WithStatsWindow(n int) IngestorOption {
	return func(i *Ingestor) {
		if n > 0 {
			i.window = n
		}
	}
}

// NewIngestor creates an ingestor.
func NewIngestor(
	validator *auth.Validator,
	gate *idempotency.Gate,
	symbols repository.SymbolStore,
	signals repository.SignalStore,
	lastCache *signalcache.Cache,
	stats *StatsAggregator,
	publisher events.Publisher,
	recorder *metrics.Recorder,
	l *applogger.Logger,
	opts ...IngestorOption,
) *Ingestor {
	ing := &Ingestor{
		validator: validator,
		gate:      gate,
		symbols:   symbols,
		signals:   signals,
		lastCache: lastCache,
		stats:     stats,
		publisher: publisher,
		recorder:  recorder,
		logger:    l,
		window:    DefaultWindow,
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Submit processes a decoded, signature-verified event. It returns a
// rejection error for events that fail validation, a duplicate outcome for
// retransmissions, and a success outcome carrying the stored signal
// otherwise. Signature verification happens at the transport boundary, over
// the raw body, before decoding.
func (i *Ingestor) Submit(ctx context.Context, ev models.WebhookEvent) (*Outcome, error) {
	start := time.Now()
	i.recorder.RecordReceived(ev.Symbol, ev.TF)

	if err := i.validator.ValidateEvent(ev); err != nil {
		var rej *auth.RejectionError
		if errors.As(err, &rej) {
			i.recorder.RecordRejection(string(rej.Reason))
			i.logger.Warn("event rejected",
				applogger.String("symbol", ev.Symbol),
				applogger.String("tf", ev.TF),
				applogger.String("reason", string(rej.Reason)),
			)
		}
		i.recorder.RecordIngestLatency("rejected", time.Since(start).Seconds())
		return nil, err
	}

	key := idempotency.Key(ev.Symbol, ev.TF, ev.TS)
	if i.gate.IsDuplicate(ctx, key) {
		i.recorder.RecordDuplicate(ev.Symbol, ev.TF, "gate")
		i.recorder.RecordIngestLatency("duplicate", time.Since(start).Seconds())
		i.logger.Info("duplicate event filtered",
			applogger.String("key", key),
		)
		return &Outcome{Status: models.StatusDuplicate}, nil
	}

	symbol, sig, created, err := i.createSignal(ctx, ev)
	if err != nil {
		i.recorder.RecordError("storage")
		i.recorder.RecordIngestLatency("error", time.Since(start).Seconds())
		return nil, fmt.Errorf("create signal: %w", err)
	}

	// Side effects run on a detached context: a dropped client connection
	// must not abort them once the signal is committed.
	post := context.WithoutCancel(ctx)

	if !created {
		i.recorder.RecordDuplicate(ev.Symbol, ev.TF, "store")
		i.recorder.RecordIngestLatency("duplicate", time.Since(start).Seconds())
		if err := i.gate.MarkProcessed(post, key); err != nil {
			i.logger.Warn("mark processed failed", applogger.Error(err))
		}
		return &Outcome{Status: models.StatusDuplicate}, nil
	}

	i.recorder.RecordCreated(sig.Symbol, sig.TF, string(sig.Direction))
	i.postCommit(post, key, symbol, sig)
	i.recorder.RecordIngestLatency("created", time.Since(start).Seconds())

	i.logger.Info("signal created",
		applogger.Int64("signal_id", sig.ID),
		applogger.String("symbol", sig.Symbol),
		applogger.String("tf", sig.TF),
		applogger.String("direction", string(sig.Direction)),
	)

	return &Outcome{Status: models.StatusSuccess, Signal: sig}, nil
}

// createSignal resolves the symbol and inserts the signal. The uniqueness
// constraint is the authority on duplicates: the pre-check only saves a
// round-trip, and a concurrent insert between check and create still lands
// here as ErrDuplicateSignal.
func (i *Ingestor) createSignal(ctx context.Context, ev models.WebhookEvent) (*models.Symbol, *models.Signal, bool, error) {
	symbol, err := i.symbols.GetOrCreate(ctx, ev.Symbol)
	if err != nil {
		return nil, nil, false, fmt.Errorf("resolve symbol: %w", err)
	}

	tf := repository.Timeframe(ev.TF)
	ts := ev.Time()

	existing, err := i.signals.GetByKey(ctx, symbol.ID, tf, ts)
	if err == nil {
		return symbol, existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, false, err
	}

	enterAt, expireAt := repository.SignalWindow(ts, tf)
	sig := &models.Signal{
		SymbolID:  symbol.ID,
		Symbol:    symbol.Name,
		TF:        ev.TF,
		TS:        ts,
		Direction: models.Direction(ev.Direction),
		EnterAt:   enterAt,
		ExpireAt:  expireAt,
	}

	if err := i.signals.Create(ctx, sig); err != nil {
		if errors.Is(err, repository.ErrDuplicateSignal) {
			return symbol, nil, false, nil
		}
		return nil, nil, false, err
	}
	return symbol, sig, true, nil
}

// postCommit runs the non-authoritative stages after a successful commit.
// Each failure is logged and swallowed: the signal is already durable.
func (i *Ingestor) postCommit(ctx context.Context, key string, symbol *models.Symbol, sig *models.Signal) {
	if _, err := i.stats.Update(ctx, symbol, repository.Timeframe(sig.TF), i.window); err != nil {
		i.recorder.RecordError("stats")
		i.logger.Error("stats update failed", applogger.Error(err),
			applogger.Int64("signal_id", sig.ID))
	}

	if err := i.lastCache.Refresh(ctx, sig); err != nil {
		i.recorder.RecordError("cache")
		i.logger.Warn("signal cache refresh failed", applogger.Error(err),
			applogger.Int64("signal_id", sig.ID))
	}

	if err := i.publisher.SignalCreated(ctx, sig); err != nil {
		i.recorder.RecordError("publish")
		i.logger.Error("event publish failed", applogger.Error(err),
			applogger.Int64("signal_id", sig.ID))
	}

	if err := i.gate.MarkProcessed(ctx, key); err != nil {
		i.logger.Warn("mark processed failed", applogger.Error(err),
			applogger.String("key", key))
	}
}

// LatestSignal serves the most recent signal for (symbol, tf), cache first,
// store on miss. A store hit repopulates the cache.
func (i *Ingestor) LatestSignal(ctx context.Context, symbolName, tf string) (*models.SignalSnapshot, error) {
	snap, err := i.lastCache.Latest(ctx, symbolName, tf)
	if err == nil {
		return snap, nil
	}

	symbol, err := i.symbols.GetByName(ctx, symbolName)
	if err != nil {
		return nil, err
	}
	sig, err := i.signals.Latest(ctx, symbol.ID, repository.Timeframe(tf))
	if err != nil {
		return nil, err
	}

	if err := i.lastCache.Refresh(ctx, sig); err != nil {
		i.logger.Warn("signal cache refresh failed", applogger.Error(err))
	}

	s := models.SnapshotOf(sig)
	return &s, nil
}
