// Package dashboard aggregates read-only views of the ledger: account
// balances, recent activity and monthly totals. Results are cached in
// Redis and may trail the ledger by up to the cache TTL.
package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	finshared "github.com/servitec-erp/servitec-erp/internal/finance/shared"
)

const defaultSnapshotLimit = 10

// Snapshot is the cached dashboard payload.
type Snapshot struct {
	GeneratedAt time.Time        `json:"generadoEn"`
	Accounts    []AccountBalance `json:"cuentas"`
	Recent      []RecentMovement `json:"movimientos"`
}

type Service struct {
	repo          Repository
	cache         *Cache
	snapshotLimit int
	now           func() time.Time
}

func NewService(repo Repository, cache *Cache, snapshotLimit int) *Service {
	if snapshotLimit <= 0 {
		snapshotLimit = defaultSnapshotLimit
	}
	return &Service{repo: repo, cache: cache, snapshotLimit: snapshotLimit, now: time.Now}
}

// GetSnapshot returns the cached snapshot, rebuilding it when the
// cache misses. Balances and recent movements load in parallel.
func (s *Service) GetSnapshot(ctx context.Context) (Snapshot, error) {
	key, err := s.cache.BuildKey(ctx, keySnapshot())
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	err = s.cache.FetchJSON(ctx, key, &snap, func(ctx context.Context) (interface{}, error) {
		return s.buildSnapshot(ctx)
	})
	return snap, err
}

// RefreshSnapshot bumps the cache version and rebuilds the snapshot.
// The warmup job calls this so interactive reads stay warm.
func (s *Service) RefreshSnapshot(ctx context.Context) (Snapshot, error) {
	if err := s.cache.Bump(ctx); err != nil {
		return Snapshot{}, err
	}
	return s.GetSnapshot(ctx)
}

func (s *Service) buildSnapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{GeneratedAt: s.now()}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		accounts, err := s.repo.ActiveBalances(ctx)
		if err != nil {
			return err
		}
		snap.Accounts = accounts
		return nil
	})
	g.Go(func() error {
		recent, err := s.repo.RecentMovements(ctx, s.snapshotLimit)
		if err != nil {
			return err
		}
		snap.Recent = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// GetMonthlyTotals returns confirmed plus reconciled sums per direction
// for the requested month, optionally narrowed to a set of accounts.
func (s *Service) GetMonthlyTotals(ctx context.Context, month, year int, accountIDs []int64) (MonthlyTotals, error) {
	if month < 1 || month > 12 {
		return MonthlyTotals{}, finshared.Validationf("mes fuera de rango: %d", month)
	}
	if year < 2000 || year > 2200 {
		return MonthlyTotals{}, finshared.Validationf("anio fuera de rango: %d", year)
	}
	key, err := s.cache.BuildKey(ctx, keyMonthly(month, year, accountIDs))
	if err != nil {
		return MonthlyTotals{}, err
	}
	var totals MonthlyTotals
	err = s.cache.FetchJSON(ctx, key, &totals, func(ctx context.Context) (interface{}, error) {
		return s.repo.MonthlyTotals(ctx, month, year, accountIDs)
	})
	return totals, err
}

// GetBalances returns the live per-account balances, bypassing the
// cache. The saldos panel wants current numbers.
func (s *Service) GetBalances(ctx context.Context) ([]AccountBalance, error) {
	return s.repo.ActiveBalances(ctx)
}
