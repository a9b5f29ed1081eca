package chart

import (
	"context"
	"fmt"

	finshared "github.com/servitec-erp/servitec-erp/internal/finance/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a node. Classification is inherited from the parent
// when one is given; roots must state theirs. Aggregator nodes without
// children are accepted here and only become meaningful once children
// are added.
func (s *Service) Create(ctx context.Context, req CreateNodeRequest) (*Node, error) {
	if req.Code == "" || req.Name == "" {
		return nil, finshared.Validationf("codigo y nombre requeridos")
	}
	if existing, err := s.repo.GetByCode(ctx, req.Code); err == nil && existing != nil {
		return nil, finshared.Conflictf("codigo %s ya existe", req.Code)
	}

	node := Node{
		Code:           req.Code,
		Name:           req.Name,
		Classification: req.Classification,
		ParentID:       req.ParentID,
		Level:          1,
		Imputable:      req.Imputable,
		IsActive:       true,
		Description:    req.Description,
	}
	if req.ParentID != nil {
		parent, err := s.repo.Get(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.Imputable {
			return nil, finshared.Validationf("el padre %s es imputable y no puede agregar hijos", parent.Code)
		}
		if node.Classification == "" {
			node.Classification = parent.Classification
		} else if node.Classification != parent.Classification {
			return nil, finshared.Validationf("clasificacion %s difiere del padre (%s)", node.Classification, parent.Classification)
		}
		node.Level = parent.Level + 1
	}
	if !node.Classification.Valid() {
		return nil, finshared.Validationf("clasificacion desconocida: %s", node.Classification)
	}

	id, err := s.repo.Create(ctx, node)
	if err != nil {
		return nil, fmt.Errorf("create chart node: %w", err)
	}
	node.ID = id
	return &node, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Node, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, onlyActive bool) ([]Node, error) {
	return s.repo.List(ctx, onlyActive)
}

// Tree assembles the full hierarchy from the flat record set.
func (s *Service) Tree(ctx context.Context) ([]*NestedNode, error) {
	nodes, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, err
	}
	tree, err := BuildTree(nodes)
	if err != nil {
		return nil, err
	}
	return tree.Nested(), nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateNodeRequest) (*Node, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	updates := make(map[string]any)
	if req.Name != nil {
		if *req.Name == "" {
			return nil, finshared.Validationf("nombre requerido")
		}
		updates["nombre"] = *req.Name
	}
	if req.Description != nil {
		updates["descripcion"] = *req.Description
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update chart node: %w", err)
		}
	}
	return s.repo.Get(ctx, id)
}

// Deactivate soft-deletes a node. Nodes referenced by postings or with
// active children stay.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	postings, err := s.repo.CountPostings(ctx, id)
	if err != nil {
		return fmt.Errorf("count postings: %w", err)
	}
	if postings > 0 {
		return finshared.Conflictf("la cuenta contable %d tiene %d imputaciones", id, postings)
	}
	children, err := s.repo.CountActiveChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("count children: %w", err)
	}
	if children > 0 {
		return finshared.Conflictf("la cuenta contable %d tiene %d hijos activos", id, children)
	}
	return s.repo.SetActive(ctx, id, false)
}
