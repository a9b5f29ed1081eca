package dashboard

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type mockRepo struct {
	balances      []AccountBalance
	balanceCalls  int
	recent        []RecentMovement
	recentCalls   int
	recentLimit   int
	totals        MonthlyTotals
	totalCalls    int
	totalAccounts []int64
}

func (m *mockRepo) ActiveBalances(ctx context.Context) ([]AccountBalance, error) {
	m.balanceCalls++
	return m.balances, nil
}

func (m *mockRepo) RecentMovements(ctx context.Context, limit int) ([]RecentMovement, error) {
	m.recentCalls++
	m.recentLimit = limit
	return m.recent, nil
}

func (m *mockRepo) MonthlyTotals(ctx context.Context, month, year int, accountIDs []int64) (MonthlyTotals, error) {
	m.totalCalls++
	m.totalAccounts = accountIDs
	return m.totals, nil
}

func newTestService(t *testing.T, repo Repository) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, cache, 5)
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func TestGetSnapshotCaches(t *testing.T) {
	repo := &mockRepo{
		balances: []AccountBalance{{AccountID: 1, Name: "Caja Chica", Kind: "CAJA_CHICA", Currency: "ARS", Balance: 700}},
		recent:   []RecentMovement{{ID: 10, Code: "MOV-000010", Direction: "EGRESO", Amount: 300}},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	snap, err := svc.GetSnapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Accounts) != 1 || snap.Accounts[0].Balance != 700 {
		t.Fatalf("unexpected accounts: %+v", snap.Accounts)
	}
	if repo.recentLimit != 5 {
		t.Fatalf("expected snapshot limit 5, got %d", repo.recentLimit)
	}
	if repo.balanceCalls != 1 || repo.recentCalls != 1 {
		t.Fatalf("expected 1 repo call each, got %d/%d", repo.balanceCalls, repo.recentCalls)
	}

	// Second call should hit cache.
	if _, err := svc.GetSnapshot(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.balanceCalls != 1 || repo.recentCalls != 1 {
		t.Fatalf("expected cached result, repo called %d/%d times", repo.balanceCalls, repo.recentCalls)
	}
}

func TestRefreshSnapshotBumpsCache(t *testing.T) {
	repo := &mockRepo{
		balances: []AccountBalance{{AccountID: 1, Balance: 1000}},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	if _, err := svc.GetSnapshot(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.balances[0].Balance = 400
	snap, err := svc.RefreshSnapshot(ctx)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if snap.Accounts[0].Balance != 400 {
		t.Fatalf("expected refreshed balance 400, got %.2f", snap.Accounts[0].Balance)
	}
	if repo.balanceCalls != 2 {
		t.Fatalf("expected repo to refresh, calls %d", repo.balanceCalls)
	}
}

func TestGetMonthlyTotalsValidatesPeriod(t *testing.T) {
	svc, cleanup := newTestService(t, &mockRepo{})
	defer cleanup()

	ctx := context.Background()
	if _, err := svc.GetMonthlyTotals(ctx, 13, 2026, nil); err == nil {
		t.Fatal("expected error for month 13")
	}
	if _, err := svc.GetMonthlyTotals(ctx, 0, 2026, nil); err == nil {
		t.Fatal("expected error for month 0")
	}
	if _, err := svc.GetMonthlyTotals(ctx, 6, 1815, nil); err == nil {
		t.Fatal("expected error for year 1815")
	}
}

func TestGetMonthlyTotalsCachesPerFilter(t *testing.T) {
	repo := &mockRepo{totals: MonthlyTotals{Month: 3, Year: 2026, Income: 900, Expense: 300, Net: 600}}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	totals, err := svc.GetMonthlyTotals(ctx, 3, 2026, []int64{1, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.Net != 600 {
		t.Fatalf("expected net 600, got %.2f", totals.Net)
	}
	if len(repo.totalAccounts) != 2 {
		t.Fatalf("expected account filter to reach repo, got %v", repo.totalAccounts)
	}

	if _, err := svc.GetMonthlyTotals(ctx, 3, 2026, []int64{1, 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.totalCalls != 1 {
		t.Fatalf("expected cached result, repo called %d times", repo.totalCalls)
	}

	// Different filter is a different key.
	if _, err := svc.GetMonthlyTotals(ctx, 3, 2026, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.totalCalls != 2 {
		t.Fatalf("expected new filter to miss cache, calls %d", repo.totalCalls)
	}
}

func TestSnapshotWithoutRedis(t *testing.T) {
	repo := &mockRepo{balances: []AccountBalance{{AccountID: 7, Balance: 50}}}
	svc := NewService(repo, nil, 0)

	snap, err := svc.GetSnapshot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Accounts) != 1 || snap.Accounts[0].AccountID != 7 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if repo.recentLimit != defaultSnapshotLimit {
		t.Fatalf("expected default limit, got %d", repo.recentLimit)
	}
}
