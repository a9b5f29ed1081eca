package statement

import (
	"context"
	"time"

	"github.com/servitec-erp/servitec-erp/internal/finance/chart"
)

// ChartPort is the slice of the chart package the statement needs.
type ChartPort interface {
	List(ctx context.Context, onlyActive bool) ([]chart.Node, error)
}

type Service struct {
	charts   ChartPort
	postings Repository
	now      func() time.Time
}

func NewService(charts ChartPort, postings Repository) *Service {
	return &Service{charts: charts, postings: postings, now: time.Now}
}

// BalanceSheet builds the statement as of the given cutoff, defaulting
// to now. Inactive chart accounts stay in the report: their historical
// postings still belong on the sheet.
func (s *Service) BalanceSheet(ctx context.Context, asOf *time.Time) (BalanceSheet, error) {
	cutoff := s.now()
	if asOf != nil {
		cutoff = *asOf
	}
	nodes, err := s.charts.List(ctx, false)
	if err != nil {
		return BalanceSheet{}, err
	}
	balances, err := s.postings.ImputableBalances(ctx, cutoff)
	if err != nil {
		return BalanceSheet{}, err
	}
	return Build(nodes, balances, cutoff)
}
