package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sailcare/clinic-api/internal/clinictime"
	"github.com/sailcare/clinic-api/internal/logger"
	redisclient "github.com/sailcare/clinic-api/internal/redis"
	"github.com/sailcare/clinic-api/internal/validation"
)

const sequenceName = "patients"

type Service struct {
	repo Repository
	seq  redisclient.Sequencer
	now  func() time.Time
}

func NewService(repo Repository, seq redisclient.Sequencer) *Service {
	return &Service{repo: repo, seq: seq, now: time.Now}
}

// Create stores a new profile under the next sequential patient id.
func (s *Service) Create(ctx context.Context, p Patient) (*Patient, error) {
	fe := validation.FieldErrors{}
	fe.Required("first_name", p.FirstName)
	fe.Required("last_name", p.LastName)
	if err := fe.Err(); err != nil {
		return nil, err
	}

	if p.RegistrationDate.IsZero() {
		p.RegistrationDate = s.now()
	}

	for attempt := 0; ; attempt++ {
		id, err := s.seq.Next(ctx, sequenceName, s.repo.MaxNumericID)
		if err != nil {
			return nil, fmt.Errorf("allocate patient id: %w", err)
		}
		p.ID = id

		created, err := s.repo.Create(ctx, p)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, ErrDuplicateID) || attempt > 0 {
			return nil, fmt.Errorf("create patient: %w", err)
		}

		logger.L().Warnw("patient id collision, resyncing sequence", "id", id)
		if err := s.seq.Resync(ctx, sequenceName, s.repo.MaxNumericID); err != nil {
			return nil, fmt.Errorf("resync patient ids: %w", err)
		}
	}
}

func (s *Service) Get(ctx context.Context, id string) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (s *Service) GetByUID(ctx context.Context, uid string) (*Patient, error) {
	p, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get patient profile: %w", err)
	}
	return p, nil
}

// Search resolves the patient lookup bar. The id wins when given; an unknown id
// yields an empty result rather than an error.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]Patient, error) {
	q.ID = strings.TrimSpace(q.ID)
	q.FirstName = strings.TrimSpace(q.FirstName)
	q.LastName = strings.TrimSpace(q.LastName)

	if q.ID != "" {
		p, err := s.repo.GetByID(ctx, q.ID)
		if errors.Is(err, ErrPatientNotFound) {
			return []Patient{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("search patient by id: %w", err)
		}
		return []Patient{*p}, nil
	}

	if q.FirstName == "" && q.LastName == "" {
		list, err := s.repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list patients: %w", err)
		}
		return list, nil
	}

	list, err := s.repo.FindByName(ctx, q.FirstName, q.LastName)
	if err != nil {
		return nil, fmt.Errorf("search patient by name: %w", err)
	}
	if list == nil {
		list = []Patient{}
	}
	return list, nil
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if err := apply(p, patch); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, *p)
	if err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return updated, nil
}

// UpdateByUID edits the caller's own profile.
func (s *Service) UpdateByUID(ctx context.Context, uid string, patch Patch) (*Patient, error) {
	p, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load patient profile: %w", err)
	}
	return s.Update(ctx, p.ID, patch)
}

func (s *Service) DeleteByUID(ctx context.Context, uid string) error {
	if err := s.repo.DeleteByUID(ctx, uid); err != nil {
		return fmt.Errorf("delete patient profile: %w", err)
	}
	logger.L().Infow("patient profile deleted", "uid", uid)
	return nil
}

func apply(p *Patient, patch Patch) error {
	fe := validation.FieldErrors{}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}

	if patch.FirstName != nil && fe.Required("first_name", *patch.FirstName) {
		set(&p.FirstName, patch.FirstName)
	}
	if patch.LastName != nil && fe.Required("last_name", *patch.LastName) {
		set(&p.LastName, patch.LastName)
	}
	if patch.BirthDate != nil {
		if strings.TrimSpace(*patch.BirthDate) == "" {
			p.BirthDate = nil
		} else if bd, err := clinictime.ParseQueryDate(*patch.BirthDate); err != nil {
			fe.Add("birth_date", "must be a valid date")
		} else {
			p.BirthDate = &bd
		}
	}
	if patch.EmailAddress != nil && strings.TrimSpace(*patch.EmailAddress) != "" {
		fe.Email("email_address", *patch.EmailAddress)
	}

	set(&p.Sex, patch.Sex)
	set(&p.Gender, patch.Gender)
	set(&p.Address, patch.Address)
	set(&p.ContactNumbers, patch.ContactNumbers)
	set(&p.EmailAddress, patch.EmailAddress)
	set(&p.EmergencyContact, patch.EmergencyContact)
	set(&p.InsuranceProvider, patch.InsuranceProvider)

	return fe.Err()
}
