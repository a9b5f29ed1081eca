package accounts

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/currency"

	finshared "github.com/servitec-erp/servitec-erp/internal/finance/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates kind-specific fields and registers the account with
// saldoActual = saldoInicial.
func (s *Service) Create(ctx context.Context, req CreateAccountRequest, createdBy int64) (*Account, error) {
	if req.Name == "" {
		return nil, finshared.Validationf("nombre requerido")
	}
	if !req.Kind.Valid() {
		return nil, finshared.Validationf("tipo de cuenta desconocido: %s", req.Kind)
	}
	if _, err := currency.ParseISO(req.Currency); err != nil {
		return nil, finshared.Validationf("moneda invalida: %s", req.Currency)
	}
	hasBankFields := req.Bank != nil || req.AccountNumber != nil || req.RoutingCode != nil
	if hasBankFields && !req.Kind.AllowsBankFields() {
		return nil, finshared.Validationf("cuenta %s no admite datos bancarios", req.Kind)
	}
	if req.Kind == KindInvestment {
		if req.Rate == nil || req.MaturityDate == nil {
			return nil, finshared.Validationf("cuenta INVERSION requiere tasa y vencimiento")
		}
	} else if req.Rate != nil || req.MaturityDate != nil {
		return nil, finshared.Validationf("tasa y vencimiento solo aplican a INVERSION")
	}

	account := Account{
		Name:           req.Name,
		Kind:           req.Kind,
		Bank:           req.Bank,
		AccountNumber:  req.AccountNumber,
		RoutingCode:    req.RoutingCode,
		InitialBalance: req.InitialBalance,
		CurrentBalance: req.InitialBalance,
		Currency:       req.Currency,
		IsActive:       true,
		Rate:           req.Rate,
		MaturityDate:   req.MaturityDate,
		CreatedBy:      createdBy,
	}

	id, err := s.repo.Create(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	account.ID = id
	return &account, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Account, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListAccountsRequest) ([]Account, int, error) {
	return s.repo.List(ctx, req)
}

// Update changes mutable fields only; balances are owned by the
// movement engine.
func (s *Service) Update(ctx context.Context, id int64, req UpdateAccountRequest) (*Account, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if req.Name != nil {
		if *req.Name == "" {
			return nil, finshared.Validationf("nombre requerido")
		}
		updates["nombre"] = *req.Name
	}
	if req.Bank != nil || req.AccountNumber != nil || req.RoutingCode != nil {
		if !existing.Kind.AllowsBankFields() {
			return nil, finshared.Validationf("cuenta %s no admite datos bancarios", existing.Kind)
		}
		if req.Bank != nil {
			updates["banco"] = *req.Bank
		}
		if req.AccountNumber != nil {
			updates["numero_cuenta"] = *req.AccountNumber
		}
		if req.RoutingCode != nil {
			updates["cbu"] = *req.RoutingCode
		}
	}
	if req.Rate != nil || req.MaturityDate != nil {
		if existing.Kind != KindInvestment {
			return nil, finshared.Validationf("tasa y vencimiento solo aplican a INVERSION")
		}
		if req.Rate != nil {
			updates["tasa"] = *req.Rate
		}
		if req.MaturityDate != nil {
			updates["vencimiento"] = *req.MaturityDate
		}
	}
	if len(updates) == 0 {
		return existing, nil
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Deactivate soft-deletes the account. Accounts with unresolved
// (PENDIENTE or CONFIRMADO) movements must be settled first; the
// repository enforces that under a row lock.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}

// Balance returns the current balance, or a reconstructed balance by
// replaying confirmed/reconciled movements up to asOf.
func (s *Service) Balance(ctx context.Context, id int64, asOf *time.Time) (BalanceResponse, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return BalanceResponse{}, err
	}
	if asOf == nil {
		return BalanceResponse{AccountID: id, Balance: account.CurrentBalance}, nil
	}
	replayed, err := s.repo.BalanceAsOf(ctx, id, *asOf)
	if err != nil {
		return BalanceResponse{}, fmt.Errorf("balance as of: %w", err)
	}
	return BalanceResponse{AccountID: id, Balance: account.InitialBalance + replayed, AsOf: asOf}, nil
}
