package customers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/farmgate/farmgate-pos/internal/shared"
)

type memoryCustomerRepo struct {
	customers map[int64]*Customer
	nextID    int64
}

func newMemoryCustomerRepo() *memoryCustomerRepo {
	return &memoryCustomerRepo{customers: make(map[int64]*Customer)}
}

func (r *memoryCustomerRepo) Get(ctx context.Context, id int64) (*Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *memoryCustomerRepo) GetByCode(ctx context.Context, code string) (*Customer, error) {
	for _, c := range r.customers {
		if c.Code == code {
			copied := *c
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryCustomerRepo) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	var out []Customer
	for _, c := range r.customers {
		if req.IsActive != nil && c.IsActive != *req.IsActive {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (r *memoryCustomerRepo) Create(ctx context.Context, customer Customer) (int64, error) {
	r.nextID++
	customer.ID = r.nextID
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = time.Now()
	r.customers[customer.ID] = &customer
	return customer.ID, nil
}

func (r *memoryCustomerRepo) Update(ctx context.Context, id int64, updates map[string]any) error {
	c, ok := r.customers[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		c.Name = v.(string)
	}
	if v, ok := updates["phone"]; ok {
		phone := v.(string)
		c.Phone = &phone
	}
	if v, ok := updates["is_active"]; ok {
		c.IsActive = v.(bool)
	}
	if v, ok := updates["notes"]; ok {
		notes := v.(string)
		c.Notes = &notes
	}
	c.UpdatedAt = time.Now()
	return nil
}

func (r *memoryCustomerRepo) GenerateCode(ctx context.Context) (string, error) {
	return fmt.Sprintf("CUST-%05d", len(r.customers)+1), nil
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("registers with a generated code and zero debt", func(t *testing.T) {
		svc := NewService(newMemoryCustomerRepo())

		c, err := svc.Create(ctx, CreateCustomerRequest{Name: "Rahma Poultry"})
		require.NoError(t, err)

		require.Equal(t, "CUST-00001", c.Code)
		require.True(t, c.IsActive)
		require.True(t, c.TotalDebt.IsZero())
	})

	t.Run("rejects duplicate codes", func(t *testing.T) {
		svc := NewService(newMemoryCustomerRepo())

		_, err := svc.Create(ctx, CreateCustomerRequest{Code: "CUST-00042", Name: "First"})
		require.NoError(t, err)

		_, err = svc.Create(ctx, CreateCustomerRequest{Code: "CUST-00042", Name: "Second"})
		require.ErrorIs(t, err, shared.ErrDuplicate)
	})
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("patches only the provided fields", func(t *testing.T) {
		repo := newMemoryCustomerRepo()
		svc := NewService(repo)

		created, err := svc.Create(ctx, CreateCustomerRequest{Name: "Old Name"})
		require.NoError(t, err)

		name := "New Name"
		updated, err := svc.Update(ctx, created.ID, UpdateCustomerRequest{Name: &name})
		require.NoError(t, err)

		require.Equal(t, "New Name", updated.Name)
		require.Equal(t, created.Code, updated.Code)
		require.True(t, updated.IsActive)
	})

	t.Run("empty patch is a no-op", func(t *testing.T) {
		repo := newMemoryCustomerRepo()
		svc := NewService(repo)

		created, err := svc.Create(ctx, CreateCustomerRequest{Name: "Unchanged"})
		require.NoError(t, err)

		updated, err := svc.Update(ctx, created.ID, UpdateCustomerRequest{})
		require.NoError(t, err)
		require.Equal(t, created.Name, updated.Name)
	})

	t.Run("unknown customer", func(t *testing.T) {
		svc := NewService(newMemoryCustomerRepo())

		_, err := svc.Update(ctx, 99, UpdateCustomerRequest{})
		require.ErrorIs(t, err, shared.ErrNotFound)
	})
}
