package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/farmgate/farmgate-pos/internal/shared"
)

// Service handles customer registration and maintenance.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a customer with a zero ledger balance.
func (s *Service) Create(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	code := req.Code
	if code == "" {
		generated, err := s.repo.GenerateCode(ctx)
		if err != nil {
			return nil, fmt.Errorf("generate customer code: %w", err)
		}
		code = generated
	}

	existing, err := s.repo.GetByCode(ctx, code)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("check existing customer: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: customer code %s", shared.ErrDuplicate, code)
	}

	customer := Customer{
		Code:     code,
		Name:     req.Name,
		Phone:    req.Phone,
		Address:  req.Address,
		IsActive: true,
		Notes:    req.Notes,
	}

	id, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Update patches a customer. Nil request fields are left untouched.
func (s *Service) Update(ctx context.Context, id int64, req UpdateCustomerRequest) (*Customer, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) == 0 {
		return existing, nil
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Get returns one customer.
func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

// List returns customers matching the filter.
func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// SuggestCode returns the next customer code for form pre-fill.
func (s *Service) SuggestCode(ctx context.Context) (string, error) {
	return s.repo.GenerateCode(ctx)
}
