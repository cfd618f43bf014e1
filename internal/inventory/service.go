package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sailcare/clinic-api/internal/clinictime"
	"github.com/sailcare/clinic-api/internal/logger"
	"github.com/sailcare/clinic-api/internal/validation"
)

type Service struct {
	repo   Repository
	window time.Duration
	now    func() time.Time
}

// NewService builds the inventory service; window is how far ahead an expiration
// date counts as expiring.
func NewService(repo Repository, window time.Duration) *Service {
	return &Service{repo: repo, window: window, now: time.Now}
}

func (s *Service) Add(ctx context.Context, in Input) (*Product, error) {
	fe := validation.FieldErrors{}
	fe.Required("name", in.Name)
	fe.Required("manufacturer", in.Manufacturer)
	fe.Required("supply_type", in.SupplyType)
	fe.Required("unit", in.Unit)

	switch {
	case in.Quantity == nil:
		fe.Add("quantity", "is required")
	case *in.Quantity < 0:
		fe.Add("quantity", "must not be negative")
	}
	switch {
	case in.ReorderLevel == nil:
		fe.Add("reorder_level", "is required")
	case *in.ReorderLevel < 0:
		fe.Add("reorder_level", "must not be negative")
	}
	switch {
	case in.CostPerUnit == nil:
		fe.Add("cost_per_unit", "is required")
	case *in.CostPerUnit < 0:
		fe.Add("cost_per_unit", "must not be negative")
	}

	var expires time.Time
	if fe.Required("expiration_date", in.ExpirationDate) {
		t, err := clinictime.ParseQueryDate(in.ExpirationDate)
		if err != nil {
			fe.Add("expiration_date", "must be a valid date")
		}
		expires = t
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	p := Product{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(in.Name),
		Manufacturer:   strings.TrimSpace(in.Manufacturer),
		SupplyType:     strings.TrimSpace(in.SupplyType),
		Unit:           strings.TrimSpace(in.Unit),
		Quantity:       *in.Quantity,
		ReorderLevel:   *in.ReorderLevel,
		CostPerUnit:    *in.CostPerUnit,
		ExpirationDate: expires,
		Status:         strings.TrimSpace(in.Status),
	}
	if p.Status == "" {
		p.Status = DeriveStatus(p.Quantity, p.ReorderLevel)
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	logger.L().Infow("product added", "id", created.ID, "name", created.Name, "quantity", created.Quantity)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Update applies the edit form. A quantity or reorder change without an explicit
// status re-derives the status.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}

	fe := validation.FieldErrors{}
	text := func(field string, dst *string, v *string) {
		if v != nil && fe.Required(field, *v) {
			*dst = strings.TrimSpace(*v)
		}
	}
	text("name", &p.Name, patch.Name)
	text("manufacturer", &p.Manufacturer, patch.Manufacturer)
	text("supply_type", &p.SupplyType, patch.SupplyType)
	text("unit", &p.Unit, patch.Unit)

	if patch.Quantity != nil {
		if *patch.Quantity < 0 {
			fe.Add("quantity", "must not be negative")
		} else {
			p.Quantity = *patch.Quantity
		}
	}
	if patch.ReorderLevel != nil {
		if *patch.ReorderLevel < 0 {
			fe.Add("reorder_level", "must not be negative")
		} else {
			p.ReorderLevel = *patch.ReorderLevel
		}
	}
	if patch.CostPerUnit != nil {
		if *patch.CostPerUnit < 0 {
			fe.Add("cost_per_unit", "must not be negative")
		} else {
			p.CostPerUnit = *patch.CostPerUnit
		}
	}
	if patch.ExpirationDate != nil && fe.Required("expiration_date", *patch.ExpirationDate) {
		t, err := clinictime.ParseQueryDate(*patch.ExpirationDate)
		if err != nil {
			fe.Add("expiration_date", "must be a valid date")
		} else {
			p.ExpirationDate = t
		}
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	switch {
	case patch.Status != nil && strings.TrimSpace(*patch.Status) != "":
		p.Status = strings.TrimSpace(*patch.Status)
	case patch.Quantity != nil || patch.ReorderLevel != nil || patch.Status != nil:
		p.Status = DeriveStatus(p.Quantity, p.ReorderLevel)
	}

	updated, err := s.repo.Update(ctx, *p)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	logger.L().Infow("product deleted", "id", id)
	return nil
}

func (s *Service) Search(ctx context.Context, q Query) ([]Product, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return Search(list, q), nil
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list products: %w", err)
	}
	return Summarize(list, s.now(), s.window), nil
}

// RefreshStatuses recomputes every product's stock status and reports the products
// that expire within the warning window.
func (s *Service) RefreshStatuses(ctx context.Context, now time.Time) (RefreshReport, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return RefreshReport{}, fmt.Errorf("list products: %w", err)
	}

	report := RefreshReport{Checked: len(list), Expiring: []string{}}
	for _, p := range list {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		want := DeriveStatus(p.Quantity, p.ReorderLevel)
		if want != p.Status {
			if err := s.repo.UpdateStatus(ctx, p.ID, want); err != nil {
				logger.L().Errorw("failed to update product status", "id", p.ID, "status", want, "error", err)
				continue
			}
			report.Updated++
			logger.L().Infow("product status changed", "id", p.ID, "name", p.Name, "from", p.Status, "to", want)
		}

		if expiringWithin(p, now, s.window) {
			report.Expiring = append(report.Expiring, p.ID)
			logger.L().Warnw("product expiring soon",
				"id", p.ID,
				"name", p.Name,
				"expires", clinictime.Format(p.ExpirationDate),
			)
		}
	}

	return report, nil
}
