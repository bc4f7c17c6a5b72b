package trucks

import (
	"context"
	"fmt"
)

// Service handles truck registration and maintenance.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers an active truck.
func (s *Service) Create(ctx context.Context, req CreateTruckRequest) (*Truck, error) {
	id, err := s.repo.Create(ctx, Truck{
		PlateNumber: req.PlateNumber,
		DriverName:  req.DriverName,
		IsActive:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("create truck: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Update patches a truck. Nil request fields are left untouched.
func (s *Service) Update(ctx context.Context, id int64, req UpdateTruckRequest) (*Truck, error) {
	updates := make(map[string]any)
	if req.PlateNumber != nil {
		updates["plate_number"] = *req.PlateNumber
	}
	if req.DriverName != nil {
		updates["driver_name"] = *req.DriverName
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, id)
}

// Get returns one truck.
func (s *Service) Get(ctx context.Context, id int64) (*Truck, error) {
	return s.repo.Get(ctx, id)
}

// List returns trucks, optionally restricted to active ones.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]Truck, error) {
	return s.repo.List(ctx, activeOnly)
}
