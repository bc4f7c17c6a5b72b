package billing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/farmgate/farmgate-pos/internal/ledger"
	"github.com/farmgate/farmgate-pos/internal/shared"
)

type memoryBillingRepo struct {
	invoices map[int64]*Invoice
	debts    map[int64]decimal.Decimal
	nextID   int64
	saves    int
}

func newMemoryBillingRepo() *memoryBillingRepo {
	return &memoryBillingRepo{
		invoices: make(map[int64]*Invoice),
		debts:    make(map[int64]decimal.Decimal),
	}
}

func (r *memoryBillingRepo) SaveInvoice(ctx context.Context, invoice Invoice) (*Invoice, error) {
	priorDebt := r.debts[invoice.CustomerID]
	newDebt, err := ledger.ApplyCharge(priorDebt, invoice.FinalAmount)
	if err != nil {
		return nil, err
	}
	invoice.PreviousBalance = priorDebt
	invoice.CurrentBalance = newDebt
	r.debts[invoice.CustomerID] = newDebt

	r.nextID++
	r.saves++
	invoice.ID = r.nextID
	invoice.Number = time.Now().Format("INV-20060102-") + "00001"
	invoice.CreatedAt = time.Now()
	for i := range invoice.Lines {
		invoice.Lines[i].InvoiceID = invoice.ID
	}
	r.invoices[invoice.ID] = &invoice
	return &invoice, nil
}

func (r *memoryBillingRepo) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return inv, nil
}

func (r *memoryBillingRepo) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	for _, inv := range r.invoices {
		if inv.Number == number {
			return inv, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryBillingRepo) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]InvoiceWithDetails, int, error) {
	var out []InvoiceWithDetails
	for _, inv := range r.invoices {
		if req.CustomerID != 0 && inv.CustomerID != req.CustomerID {
			continue
		}
		out = append(out, InvoiceWithDetails{Invoice: *inv})
	}
	return out, len(out), nil
}

func (r *memoryBillingRepo) GetCustomerDebt(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	return r.debts[customerID], nil
}

func newTestService(repo *memoryBillingRepo) *Service {
	return NewService(repo, nil, shared.Locker{}, nil)
}

func TestServiceSave(t *testing.T) {
	ctx := context.Background()

	t.Run("charges the ledger with the invoice final amount", func(t *testing.T) {
		repo := newMemoryBillingRepo()
		repo.debts[1] = dec("93.83")
		svc := newTestService(repo)

		saved, err := svc.Save(ctx, SaveInvoiceRequest{
			CustomerID: 1,
			TruckID:    2,
			Lines:      []LineRequest{{GrossWeight: dec("82"), CagesCount: 3, CageUnitWeight: dec("8"), UnitPrice: dec("1.80")}},
		})
		require.NoError(t, err)

		require.True(t, saved.FinalAmount.Equal(dec("104.40")), "final: %s", saved.FinalAmount)
		require.True(t, saved.PreviousBalance.Equal(dec("93.83")), "previous: %s", saved.PreviousBalance)
		require.True(t, saved.CurrentBalance.Equal(dec("198.23")), "current: %s", saved.CurrentBalance)
		require.True(t, repo.debts[1].Equal(dec("198.23")), "debt: %s", repo.debts[1])
		require.Len(t, saved.Lines, 1)
		require.True(t, saved.Lines[0].NetWeight.Equal(dec("58")))
	})

	t.Run("validation failure leaves the ledger untouched", func(t *testing.T) {
		repo := newMemoryBillingRepo()
		repo.debts[1] = dec("100")
		svc := newTestService(repo)

		_, err := svc.Save(ctx, SaveInvoiceRequest{
			CustomerID: 1,
			TruckID:    2,
			Lines: []LineRequest{
				{GrossWeight: dec("82"), CagesCount: 3, CageUnitWeight: dec("8"), UnitPrice: dec("1.80")},
				{GrossWeight: dec("50"), CagesCount: 5, CageUnitWeight: dec("10"), UnitPrice: dec("1.80")},
			},
		})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.ErrorIs(t, err, shared.ErrValidationFailed)
		require.Len(t, verr.Violations, 1)
		require.Contains(t, verr.Violations[0], "line 2")
		require.Zero(t, repo.saves)
		require.True(t, repo.debts[1].Equal(dec("100")))
	})

	t.Run("rejects an invoice without a customer", func(t *testing.T) {
		svc := newTestService(newMemoryBillingRepo())

		_, err := svc.Save(ctx, SaveInvoiceRequest{TruckID: 2})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, []string{"a customer must be selected"}, verr.Violations)
	})

	t.Run("derived fields sent by the client are ignored", func(t *testing.T) {
		repo := newMemoryBillingRepo()
		svc := newTestService(repo)

		saved, err := svc.Save(ctx, SaveInvoiceRequest{
			CustomerID: 1,
			TruckID:    2,
			Lines:      []LineRequest{{GrossWeight: dec("82"), CagesCount: 3, CageUnitWeight: dec("8"), UnitPrice: dec("1.80"), DiscountPct: dec("10")}},
		})
		require.NoError(t, err)
		require.True(t, saved.DiscountAmount.Equal(dec("10.44")))
		require.True(t, saved.FinalAmount.Equal(dec("93.96")))
	})
}

func TestServicePreview(t *testing.T) {
	ctx := context.Background()

	t.Run("recalculates against the current debt without saving", func(t *testing.T) {
		repo := newMemoryBillingRepo()
		repo.debts[1] = dec("93.83")
		svc := newTestService(repo)

		resp, err := svc.Preview(ctx, PreviewRequest{
			CustomerID: 1,
			Lines:      []LineRequest{{GrossWeight: dec("82"), CagesCount: 3, CageUnitWeight: dec("8"), UnitPrice: dec("1.80")}},
		})
		require.NoError(t, err)

		require.True(t, resp.Totals.CurrentBalance.Equal(dec("198.23")))
		require.Zero(t, repo.saves)
	})

	t.Run("previews with no customer selected", func(t *testing.T) {
		svc := newTestService(newMemoryBillingRepo())

		resp, err := svc.Preview(ctx, PreviewRequest{
			Lines: []LineRequest{{GrossWeight: dec("40"), CagesCount: 6, CageUnitWeight: dec("10"), UnitPrice: dec("2.00")}},
		})
		require.NoError(t, err)

		require.True(t, resp.Lines[0].NetWeight.IsZero())
		require.True(t, resp.Totals.PreviousBalance.IsZero())
	})
}
