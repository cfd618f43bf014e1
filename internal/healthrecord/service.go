package healthrecord

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
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Add(ctx context.Context, in Input) (*Record, error) {
	fe := validation.FieldErrors{}
	fe.Required("patient_uid", in.PatientUID)
	fe.Required("service_type", in.ServiceType)
	fe.Required("record_type", in.RecordType)
	fe.Required("result", in.Result)

	var testDate time.Time
	if fe.Required("test_date", in.TestDate) {
		t, err := clinictime.ParseQueryDate(in.TestDate)
		if err != nil {
			fe.Add("test_date", "must be a valid date")
		}
		testDate = t
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	rec := Record{
		ID:          uuid.NewString(),
		PatientUID:  strings.TrimSpace(in.PatientUID),
		PatientName: strings.TrimSpace(in.PatientName),
		ServiceType: strings.TrimSpace(in.ServiceType),
		RecordType:  strings.TrimSpace(in.RecordType),
		Result:      strings.TrimSpace(in.Result),
		Clinician:   strings.TrimSpace(in.Clinician),
		Encoder:     strings.TrimSpace(in.Encoder),
		Attachment:  strings.TrimSpace(in.Attachment),
		TestDate:    testDate,
	}

	created, err := s.repo.Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("create health record: %w", err)
	}

	logger.L().Infow("health record added", "id", created.ID, "patient_uid", created.PatientUID, "record_type", created.RecordType)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get health record: %w", err)
	}
	return r, nil
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load health record: %w", err)
	}

	fe := validation.FieldErrors{}
	required := func(field string, dst *string, v *string) {
		if v != nil && fe.Required(field, *v) {
			*dst = strings.TrimSpace(*v)
		}
	}
	optional := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}

	required("service_type", &rec.ServiceType, patch.ServiceType)
	required("record_type", &rec.RecordType, patch.RecordType)
	required("result", &rec.Result, patch.Result)
	optional(&rec.Clinician, patch.Clinician)
	optional(&rec.Encoder, patch.Encoder)
	optional(&rec.Attachment, patch.Attachment)

	if patch.TestDate != nil && fe.Required("test_date", *patch.TestDate) {
		t, err := clinictime.ParseQueryDate(*patch.TestDate)
		if err != nil {
			fe.Add("test_date", "must be a valid date")
		} else {
			rec.TestDate = t
		}
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, *rec)
	if err != nil {
		return nil, fmt.Errorf("update health record: %w", err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete health record: %w", err)
	}
	logger.L().Infow("health record deleted", "id", id)
	return nil
}

// ListForPatient applies the record-type filter and the Newest/Oldest toggle.
func (s *Service) ListForPatient(ctx context.Context, uid, filter string, newestFirst bool) ([]Record, error) {
	list, err := s.repo.ListByPatient(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list health records: %w", err)
	}
	out := FilterByType(list, filter)
	SortByTestDate(out, newestFirst)
	return out, nil
}

func (s *Service) Summary(ctx context.Context, uid string) (Summary, error) {
	list, err := s.repo.ListByPatient(ctx, uid)
	if err != nil {
		return Summary{}, fmt.Errorf("list health records: %w", err)
	}
	return Summarize(list, s.now()), nil
}
