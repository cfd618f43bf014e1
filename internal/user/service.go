package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sailcare/clinic-api/internal/appointment"
	"github.com/sailcare/clinic-api/internal/auth"
	"github.com/sailcare/clinic-api/internal/logger"
	"github.com/sailcare/clinic-api/internal/patient"
	"github.com/sailcare/clinic-api/internal/risk"
	"github.com/sailcare/clinic-api/internal/validation"
)

// ProfileCreator creates the patient profile that goes with a patient account.
type ProfileCreator interface {
	Create(ctx context.Context, p patient.Patient) (*patient.Patient, error)
}

// Booker books the appointment carried by a registration.
type Booker interface {
	Book(ctx context.Context, actor appointment.Actor, in appointment.BookingInput) (*appointment.Appointment, error)
}

type Service struct {
	repo     Repository
	profiles ProfileCreator
	bookings Booker
}

func NewService(repo Repository, profiles ProfileCreator, bookings Booker) *Service {
	return &Service{repo: repo, profiles: profiles, bookings: bookings}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(in RegisterInput) error {
	fe := validation.FieldErrors{}
	fe.Name("first_name", in.FirstName)
	fe.Name("last_name", in.LastName)
	fe.Email("email", in.Email)
	fe.Phone("phone", in.Phone)
	fe.Password("password", in.Password, "confirm_password", in.ConfirmPassword)
	if len(in.Assessment) > 0 {
		if err := risk.Validate(in.Assessment); err != nil {
			fe.Add("assessment", err.Error())
		}
	}
	return fe.Err()
}

func (s *Service) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return ErrEmailTaken
	case errors.Is(err, ErrUserNotFound):
		return nil
	default:
		return fmt.Errorf("check email: %w", err)
	}
}

// Register creates a patient account. Once the account exists, the profile,
// assessment and booking steps are attempted in turn; their failures are logged
// and returned as warnings rather than undoing the account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	email := normalizeEmail(in.Email)
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.Create(ctx, User{
		UID:          uuid.NewString(),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         RolePatient,
		Status:       StatusActive,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.L().Infow("patient account registered", "uid", u.UID)
	reg := &Registration{User: u}

	profile, err := s.createProfile(ctx, u)
	if err != nil {
		reg.Warnings = append(reg.Warnings, "patient profile was not created: "+err.Error())
	}
	reg.Patient = profile

	if len(in.Assessment) > 0 {
		res, err := s.SaveAssessment(ctx, u.UID, in.Assessment)
		if err != nil {
			logger.L().Warnw("failed to save registration assessment", "uid", u.UID, "error", err)
			reg.Warnings = append(reg.Warnings, "risk assessment was not saved: "+err.Error())
		} else {
			u.Assessment = res.Record
			reg.Assessment = res
		}
	}

	if in.Booking != nil {
		b := *in.Booking
		b.UID = ""
		if strings.TrimSpace(b.FirstName) == "" {
			b.FirstName = u.FirstName
		}
		if strings.TrimSpace(b.LastName) == "" {
			b.LastName = u.LastName
		}

		appt, err := s.bookings.Book(ctx, appointment.Actor{UID: u.UID}, b)
		if err != nil {
			logger.L().Warnw("failed to book registration appointment", "uid", u.UID, "error", err)
			reg.Warnings = append(reg.Warnings, "appointment was not booked: "+err.Error())
		}
		reg.Appointment = appt
	}

	return reg, nil
}

func (s *Service) createProfile(ctx context.Context, u *User) (*patient.Patient, error) {
	p, err := s.profiles.Create(ctx, patient.Patient{
		UID:            u.UID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		ContactNumbers: u.Phone,
		EmailAddress:   u.Email,
	})
	if err != nil {
		logger.L().Warnw("failed to create patient profile", "uid", u.UID, "error", err)
		return nil, err
	}
	return p, nil
}

// Authenticate checks a login. Unknown emails, wrong passwords and inactive
// accounts all fail with ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if u.Status != StatusActive {
		logger.L().Infow("login refused for inactive account", "uid", u.UID)
		return nil, fmt.Errorf("%w: account is inactive", ErrInvalidCredentials)
	}
	return u, nil
}

func validateAccount(in AccountInput) error {
	fe := validation.FieldErrors{}
	fe.Required("first_name", in.FirstName)
	fe.Required("last_name", in.LastName)
	fe.Email("email", in.Email)
	fe.Phone("phone", in.Phone)
	if fe.Required("role", in.Role) && !IsValidRole(strings.TrimSpace(in.Role)) {
		fe.Add("role", "is not a known role")
	}
	if fe.Required("status", in.Status) && !validStatus(strings.TrimSpace(in.Status)) {
		fe.Add("status", "must be Active or Inactive")
	}
	fe.Password("password", in.Password, "", "")
	return fe.Err()
}

func validStatus(status string) bool {
	return status == StatusActive || status == StatusInactive
}

// CreateAccount is the admin path: any role, explicit status. A patient account
// also gets its patient profile; a failed profile insert is reported as a warning.
func (s *Service) CreateAccount(ctx context.Context, in AccountInput) (*Registration, error) {
	if err := validateAccount(in); err != nil {
		return nil, err
	}

	email := normalizeEmail(in.Email)
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.Create(ctx, User{
		UID:          uuid.NewString(),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         strings.TrimSpace(in.Role),
		Status:       strings.TrimSpace(in.Status),
		PasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.L().Infow("account created", "uid", u.UID, "role", u.Role)
	reg := &Registration{User: u}

	if u.Role == RolePatient {
		profile, err := s.createProfile(ctx, u)
		if err != nil {
			reg.Warnings = append(reg.Warnings, "patient profile was not created: "+err.Error())
		}
		reg.Patient = profile
	}

	return reg, nil
}

func (s *Service) DeleteAccount(ctx context.Context, uid string) error {
	if err := s.repo.Delete(ctx, uid); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	logger.L().Infow("account deleted", "uid", uid)
	return nil
}

func (s *Service) Get(ctx context.Context, uid string) (*User, error) {
	u, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]User, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return Filter(list, f), nil
}

// Filter applies the users table search. A uid narrows to that exact account and
// takes the place of the name search.
func Filter(list []User, f ListFilter) []User {
	uid := strings.TrimSpace(f.UID)
	name := strings.ToLower(strings.TrimSpace(f.FirstName))
	role := strings.TrimSpace(f.Role)

	out := make([]User, 0, len(list))
	for _, u := range list {
		switch {
		case uid != "" && u.UID != uid:
			continue
		case uid == "" && name != "" && !strings.Contains(strings.ToLower(u.FirstName), name):
			continue
		case role != "" && !strings.EqualFold(u.Role, role):
			continue
		}
		out = append(out, u)
	}
	return out
}

func (s *Service) Update(ctx context.Context, uid string, patch Patch) (*User, error) {
	u, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	fe := validation.FieldErrors{}
	if patch.FirstName != nil && fe.Required("first_name", *patch.FirstName) {
		u.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil && fe.Required("last_name", *patch.LastName) {
		u.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.Email != nil {
		fe.Email("email", *patch.Email)
		u.Email = normalizeEmail(*patch.Email)
	}
	if patch.Phone != nil {
		fe.Phone("phone", *patch.Phone)
		u.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Role != nil {
		u.Role = strings.TrimSpace(*patch.Role)
		if !IsValidRole(u.Role) {
			fe.Add("role", "is not a known role")
		}
	}
	if patch.Status != nil {
		u.Status = strings.TrimSpace(*patch.Status)
		if !validStatus(u.Status) {
			fe.Add("status", "must be Active or Inactive")
		}
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, *u)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

func (s *Service) ChangePassword(ctx context.Context, uid, current, next string) error {
	u, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if err := auth.CheckPassword(u.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}

	fe := validation.FieldErrors{}
	fe.Password("new_password", next, "", "")
	if err := fe.Err(); err != nil {
		return err
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, uid, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	logger.L().Infow("password changed", "uid", uid)
	return nil
}

// SaveAssessment scores the answers and stores the per-question record on the account.
func (s *Service) SaveAssessment(ctx context.Context, uid string, answers risk.Answers) (*risk.Result, error) {
	if err := risk.Validate(answers); err != nil {
		fe := validation.FieldErrors{}
		fe.Add("assessment", err.Error())
		return nil, fe
	}

	res := risk.Score(answers)
	if err := s.repo.SaveAssessment(ctx, uid, res.Record); err != nil {
		return nil, fmt.Errorf("save assessment: %w", err)
	}

	logger.L().Infow("risk assessment saved", "uid", uid, "total", res.Total, "level", res.Level)
	return &res, nil
}

// Assessment re-scores the stored record so the breakdown and advice reflect the current table.
func (s *Service) Assessment(ctx context.Context, uid string) (*risk.Result, error) {
	u, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(u.Assessment) == 0 {
		return nil, ErrNoAssessment
	}

	res := risk.Score(risk.FromRecord(u.Assessment))
	return &res, nil
}
