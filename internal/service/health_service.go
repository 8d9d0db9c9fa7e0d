package service

import (
	"context"
	"sync"
	"time"

	"wallet-ledger/internal/core/ports"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// HealthServiceImpl implements ports.HealthService.
type HealthServiceImpl struct {
	store   ports.HealthChecker
	cache   ports.HealthChecker
	timeout time.Duration
	log     zerolog.Logger
}

// NewHealthService creates a reporter probing the ledger store and the cache,
// each bounded by timeout.
func NewHealthService(store, cache ports.HealthChecker, timeout time.Duration, log zerolog.Logger) *HealthServiceImpl {
	return &HealthServiceImpl{
		store:   store,
		cache:   cache,
		timeout: timeout,
		log:     log,
	}
}

// Check queries both dependencies concurrently. A check that does not answer
// within the timeout counts as down.
func (s *HealthServiceImpl) Check(ctx context.Context) ports.HealthReport {
	var (
		mu   sync.Mutex
		deps = make(map[string]ports.DependencyStatus, 2)
		up   = make(map[ports.HealthChecker]bool, 2)
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, checker := range []ports.HealthChecker{s.store, s.cache} {
		g.Go(func() error {
			err := s.checkOne(gctx, checker)

			status := ports.DependencyStatus{Status: ports.StatusHealthy}
			if err != nil {
				status = ports.DependencyStatus{Status: ports.StatusUnhealthy, Error: err.Error()}
				s.log.Warn().Err(err).Str("dependency", checker.Name()).Msg("health check failed")
			}

			mu.Lock()
			deps[checker.Name()] = status
			up[checker] = err == nil
			mu.Unlock()
			// Never cancel the sibling check.
			return nil
		})
	}
	_ = g.Wait()

	report := ports.HealthReport{
		Store:        up[s.store],
		Cache:        up[s.cache],
		Dependencies: deps,
		Timestamp:    time.Now().UTC(),
	}
	report.Status = ports.StatusUnhealthy
	if report.Store && report.Cache {
		report.Status = ports.StatusHealthy
	}
	return report
}

func (s *HealthServiceImpl) checkOne(ctx context.Context, checker ports.HealthChecker) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- checker.Ping(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
