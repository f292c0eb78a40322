package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"youtube-analytics/internal/domain"
	"youtube-analytics/internal/metrics"
)

// StoreHandle owns the persistence store and its lifecycle state.
// Writes are refused unless the store is connected; reads are attempted
// while degraded. Any failing operation degrades a connected store.
type StoreHandle struct {
	store  domain.Store
	logger *zap.Logger

	mu    sync.RWMutex
	state domain.StoreState
}

// NewStoreHandle wraps store in the Uninitialized state.
func NewStoreHandle(store domain.Store, logger *zap.Logger) *StoreHandle {
	metrics.StoreConnected.Set(0)
	return &StoreHandle{
		store:  store,
		logger: logger,
		state:  domain.StoreUninitialized,
	}
}

// Open initializes the schema. On failure the handle is Degraded and the
// error is returned, but the handle stays usable for reads and probes.
func (h *StoreHandle) Open(ctx context.Context) error {
	err := h.store.InitSchema(ctx)

	h.mu.Lock()
	h.transition(h.state.OnOpened(err))
	h.mu.Unlock()

	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	return nil
}

// State returns the current lifecycle state.
func (h *StoreHandle) State() domain.StoreState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Write runs fn when the store is connected and returns ErrStoreUnavailable otherwise.
func (h *StoreHandle) Write(ctx context.Context, op string, fn func(context.Context, domain.Store) error) error {
	if !h.State().CanWrite() {
		metrics.StoreOperations.WithLabelValues(op, "skipped").Inc()
		return fmt.Errorf("%s: %w", op, domain.ErrStoreUnavailable)
	}
	return h.run(ctx, op, fn)
}

// Read runs fn when the store is connected or degraded.
func (h *StoreHandle) Read(ctx context.Context, op string, fn func(context.Context, domain.Store) error) error {
	if !h.State().CanRead() {
		metrics.StoreOperations.WithLabelValues(op, "skipped").Inc()
		return fmt.Errorf("%s: %w", op, domain.ErrStoreUnavailable)
	}
	return h.run(ctx, op, fn)
}

func (h *StoreHandle) run(ctx context.Context, op string, fn func(context.Context, domain.Store) error) error {
	err := fn(ctx, h.store)
	metrics.Observe(metrics.StoreOperations, op, err)

	// Caller mistakes and cancellations say nothing about the store's health.
	if err == nil || errors.Is(err, domain.ErrInvalidArgument) || ctx.Err() != nil {
		return err
	}

	h.mu.Lock()
	prev := h.state
	h.transition(h.state.OnFailure())
	h.mu.Unlock()

	if prev == domain.StoreConnected {
		h.logger.Warn("store degraded after failed operation",
			zap.String("operation", op),
			zap.Error(err),
		)
	}

	return err
}

// Probe re-runs schema initialization on a degraded store and restores
// Connected when it succeeds. It is a no-op in any other state.
func (h *StoreHandle) Probe(ctx context.Context) error {
	if h.State() != domain.StoreDegraded {
		return nil
	}

	if err := h.store.InitSchema(ctx); err != nil {
		h.logger.Debug("store probe failed", zap.Error(err))
		return fmt.Errorf("probing store: %w", err)
	}

	h.mu.Lock()
	h.transition(h.state.OnRecovered())
	h.mu.Unlock()

	h.logger.Info("store recovered")
	return nil
}

// Close releases the store. The handle is Closed afterwards.
func (h *StoreHandle) Close() error {
	h.mu.Lock()
	if h.state == domain.StoreClosed {
		h.mu.Unlock()
		return nil
	}
	h.transition(h.state.OnClose())
	h.mu.Unlock()

	return h.store.Close()
}

// transition must be called with mu held.
func (h *StoreHandle) transition(next domain.StoreState) {
	if next == h.state {
		return
	}

	h.logger.Info("store state changed",
		zap.String("from", string(h.state)),
		zap.String("to", string(next)),
	)
	h.state = next

	metrics.StoreTransitions.WithLabelValues(string(next)).Inc()
	if next == domain.StoreConnected {
		metrics.StoreConnected.Set(1)
	} else {
		metrics.StoreConnected.Set(0)
	}
}
