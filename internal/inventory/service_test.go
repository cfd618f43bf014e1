package inventory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sailcare/clinic-api/internal/clinictime"
	"github.com/sailcare/clinic-api/internal/validation"
)

type memRepo struct {
	mu      sync.Mutex
	items   map[string]Product
	updates int
}

func newMemRepo(ps ...Product) *memRepo {
	r := &memRepo{items: map[string]Product{}}
	for _, p := range ps {
		r.items[p.ID] = p
	}
	return r
}

func (r *memRepo) Create(ctx context.Context, p Product) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = p
	return &p, nil
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (r *memRepo) List(ctx context.Context) ([]Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Product, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) Update(ctx context.Context, p Product) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; !ok {
		return nil, ErrProductNotFound
	}
	r.items[p.ID] = p
	return &p, nil
}

func (r *memRepo) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return ErrProductNotFound
	}
	p.Status = status
	r.items[id] = p
	r.updates++
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrProductNotFound
	}
	delete(r.items, id)
	return nil
}

var refNow = time.Date(2025, 6, 1, 9, 0, 0, 0, clinictime.Zone)

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }
func inDays(n int) time.Time      { return refNow.AddDate(0, 0, n) }

func sampleProducts() []Product {
	return []Product{
		{ID: "1", Name: "Condoms", Manufacturer: "Durex", SupplyType: SupplyMedical, Quantity: 500, ReorderLevel: 100, Status: StatusInStock, ExpirationDate: inDays(400)},
		{ID: "2", Name: "Rapid HIV Test Kit", Manufacturer: "Abbott", SupplyType: SupplyMedical, Quantity: 20, ReorderLevel: 50, Status: StatusInStock, ExpirationDate: inDays(10)},
		{ID: "3", Name: "Tenofovir", Manufacturer: "Mylan", SupplyType: SupplyMedication, Quantity: 0, ReorderLevel: 30, Status: StatusInStock, ExpirationDate: inDays(200)},
		{ID: "4", Name: "Dolutegravir", Manufacturer: "ViiV", SupplyType: SupplyMedication, Quantity: 60, ReorderLevel: 30, Status: StatusInStock, ExpirationDate: inDays(-3)},
	}
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, StatusOutOfStock, DeriveStatus(0, 10))
	assert.Equal(t, StatusLowStock, DeriveStatus(9, 10))
	assert.Equal(t, StatusInStock, DeriveStatus(10, 10))
	assert.Equal(t, StatusInStock, DeriveStatus(5, 0))
}

func TestSearch(t *testing.T) {
	list := sampleProducts()

	got := Search(list, Query{Name: "hiv"})
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)

	assert.Len(t, Search(list, Query{SupplyType: "medication"}), 2)
	assert.Len(t, Search(list, Query{Manufacturer: "VI", SupplyType: SupplyMedication}), 1)
	assert.Len(t, Search(list, Query{}), 4)
	assert.Empty(t, Search(list, Query{Name: "hiv", SupplyType: SupplyMedication}))
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleProducts(), refNow, 30*24*time.Hour)
	assert.Equal(t, Summary{TotalUnits: 580, LowStock: 1, OutOfStock: 1, Expiring: 2}, s)
}

func TestAddValidation(t *testing.T) {
	svc := NewService(newMemRepo(), 30*24*time.Hour)

	_, err := svc.Add(context.Background(), Input{Name: "Gloves", Quantity: intPtr(-1)})
	var fe validation.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "must not be negative", fe["quantity"])
	for _, field := range []string{"manufacturer", "supply_type", "unit", "reorder_level", "cost_per_unit", "expiration_date"} {
		assert.Contains(t, fe, field)
	}
}

func TestAddDerivesStatusWhenBlank(t *testing.T) {
	svc := NewService(newMemRepo(), 30*24*time.Hour)

	p, err := svc.Add(context.Background(), Input{
		Name:           "Gloves",
		Manufacturer:   "Ansell",
		SupplyType:     SupplyMedical,
		Unit:           "box",
		Quantity:       intPtr(3),
		ReorderLevel:   intPtr(10),
		CostPerUnit:    floatPtr(250.5),
		ExpirationDate: "2027-10-04",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusLowStock, p.Status)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 2027, p.ExpirationDate.Year())
}

func TestUpdate(t *testing.T) {
	svc := NewService(newMemRepo(sampleProducts()...), 30*24*time.Hour)
	ctx := context.Background()

	p, err := svc.Update(ctx, "1", Patch{Quantity: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, StatusOutOfStock, p.Status)

	p, err = svc.Update(ctx, "1", Patch{Quantity: intPtr(5), Status: strPtr("Quarantined")})
	require.NoError(t, err)
	assert.Equal(t, "Quarantined", p.Status)

	_, err = svc.Update(ctx, "1", Patch{Name: strPtr("")})
	var fe validation.FieldErrors
	assert.True(t, errors.As(err, &fe))

	_, err = svc.Update(ctx, "missing", Patch{})
	assert.ErrorIs(t, err, ErrProductNotFound)

	require.NoError(t, svc.Delete(ctx, "1"))
	assert.ErrorIs(t, svc.Delete(ctx, "1"), ErrProductNotFound)
}

func TestRefreshStatuses(t *testing.T) {
	repo := newMemRepo(sampleProducts()...)
	svc := NewService(repo, 30*24*time.Hour)

	report, err := svc.RefreshStatuses(context.Background(), refNow)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Checked)
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, []string{"2", "4"}, report.Expiring)

	assert.Equal(t, StatusLowStock, repo.items["2"].Status)
	assert.Equal(t, StatusOutOfStock, repo.items["3"].Status)

	report, err = svc.RefreshStatuses(context.Background(), refNow)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 2, repo.updates)
}
