package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sailcare/clinic-api/internal/appointment"
	"github.com/sailcare/clinic-api/internal/auth"
	"github.com/sailcare/clinic-api/internal/patient"
	"github.com/sailcare/clinic-api/internal/risk"
	"github.com/sailcare/clinic-api/internal/validation"
)

type memRepo struct {
	mu       sync.Mutex
	users    map[string]User
	profiles *memProfiles
}

func newMemRepo(profiles *memProfiles) *memRepo {
	return &memRepo{users: map[string]User{}, profiles: profiles}
}

func (r *memRepo) Create(ctx context.Context, u User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, ErrEmailTaken
		}
	}
	r.users[u.UID] = u
	return &u, nil
}

func (r *memRepo) GetByUID(ctx context.Context, uid string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[uid]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *memRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memRepo) List(ctx context.Context) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memRepo) Update(ctx context.Context, u User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.UID]; !ok {
		return nil, ErrUserNotFound
	}
	r.users[u.UID] = u
	return &u, nil
}

func (r *memRepo) UpdatePassword(ctx context.Context, uid, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[uid]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	r.users[uid] = u
	return nil
}

func (r *memRepo) SaveAssessment(ctx context.Context, uid string, rec risk.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[uid]
	if !ok {
		return ErrUserNotFound
	}
	u.Assessment = rec
	r.users[uid] = u
	return nil
}

func (r *memRepo) Delete(ctx context.Context, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[uid]; !ok {
		return ErrUserNotFound
	}
	delete(r.users, uid)
	r.profiles.deleteUID(uid)
	return nil
}

type memProfiles struct {
	mu   sync.Mutex
	byID map[string]patient.Patient
	fail error
}

func newMemProfiles() *memProfiles {
	return &memProfiles{byID: map[string]patient.Patient{}}
}

func (m *memProfiles) Create(ctx context.Context, p patient.Patient) (*patient.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	p.ID = string(rune('0' + len(m.byID) + 1))
	m.byID[p.ID] = p
	return &p, nil
}

func (m *memProfiles) forUID(uid string) []patient.Patient {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []patient.Patient
	for _, p := range m.byID {
		if p.UID == uid {
			out = append(out, p)
		}
	}
	return out
}

func (m *memProfiles) deleteUID(uid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.byID {
		if p.UID == uid {
			delete(m.byID, id)
		}
	}
}

type fakeBooker struct {
	got  []appointment.BookingInput
	as   []appointment.Actor
	fail error
}

func (b *fakeBooker) Book(ctx context.Context, actor appointment.Actor, in appointment.BookingInput) (*appointment.Appointment, error) {
	b.got = append(b.got, in)
	b.as = append(b.as, actor)
	if b.fail != nil {
		return nil, b.fail
	}
	return &appointment.Appointment{ID: "1", UID: actor.UID, FullName: in.FirstName + " " + in.LastName, Status: appointment.StatusUpcoming}, nil
}

type fixture struct {
	repo     *memRepo
	profiles *memProfiles
	booker   *fakeBooker
	svc      *Service
}

func newFixture() *fixture {
	profiles := newMemProfiles()
	repo := newMemRepo(profiles)
	booker := &fakeBooker{}
	return &fixture{repo: repo, profiles: profiles, booker: booker, svc: NewService(repo, profiles, booker)}
}

func validRegistration() RegisterInput {
	return RegisterInput{
		FirstName:       "Ana",
		LastName:        "Cruz",
		Email:           "Ana.Cruz@Example.com",
		Phone:           "+639171234567",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture()

	in := RegisterInput{
		FirstName:       "Ana2",
		LastName:        "",
		Email:           "not-an-email",
		Phone:           "12ab",
		Password:        "123",
		ConfirmPassword: "1234",
		Assessment:      risk.Answers{"favoriteColor": "blue"},
	}
	_, err := f.svc.Register(context.Background(), in)

	var fe validation.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "must contain letters only", fe["first_name"])
	assert.Equal(t, "is required", fe["last_name"])
	assert.Equal(t, "is not a valid email address", fe["email"])
	assert.Equal(t, "must be 7 to 15 digits, optionally starting with +", fe["phone"])
	assert.Equal(t, "must be at least 6 characters", fe["password"])
	assert.Equal(t, "does not match password", fe["confirm_password"])
	assert.Contains(t, fe, "assessment")
	assert.Empty(t, f.repo.users)
}

func TestRegisterCreatesAccountProfileAssessmentAndBooking(t *testing.T) {
	f := newFixture()

	in := validRegistration()
	in.Assessment = risk.Answers{"condomUse": "No", "lastTest": "Never", "partners": "2+"}
	in.Booking = &appointment.BookingInput{VisitType: "First Visit to the Clinic", ServiceType: "Rapid HIV Test", UID: "someone-else"}

	reg, err := f.svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, reg.Warnings)

	u := reg.User
	assert.Equal(t, "ana.cruz@example.com", u.Email)
	assert.Equal(t, RolePatient, u.Role)
	assert.Equal(t, StatusActive, u.Status)
	assert.NoError(t, auth.CheckPassword(u.PasswordHash, "secret1"))

	require.NotNil(t, reg.Patient)
	assert.Equal(t, u.UID, reg.Patient.UID)
	assert.Equal(t, "+639171234567", reg.Patient.ContactNumbers)

	require.NotNil(t, reg.Assessment)
	assert.Equal(t, 8.0, reg.Assessment.Total)
	assert.Equal(t, risk.LevelHigh, reg.Assessment.Level)
	assert.Equal(t, "No", f.repo.users[u.UID].Assessment["condomUse"].Response)

	require.Len(t, f.booker.got, 1)
	assert.Equal(t, "Ana", f.booker.got[0].FirstName)
	assert.Equal(t, "Cruz", f.booker.got[0].LastName)
	assert.Empty(t, f.booker.got[0].UID)
	assert.Equal(t, appointment.Actor{UID: u.UID}, f.booker.as[0])
	require.NotNil(t, reg.Appointment)
}

func TestRegisterReportsFollowUpFailures(t *testing.T) {
	f := newFixture()
	f.profiles.fail = errors.New("profile store down")
	f.booker.fail = appointment.ErrBookingTooSoon

	in := validRegistration()
	in.Booking = &appointment.BookingInput{VisitType: "First Visit to the Clinic", ServiceType: "Rapid HIV Test"}

	reg, err := f.svc.Register(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, reg.User)
	assert.Nil(t, reg.Patient)
	assert.Nil(t, reg.Appointment)
	assert.Len(t, reg.Warnings, 2)
	assert.Len(t, f.repo.users, 1)
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	in := validRegistration()
	in.Email = "ANA.CRUZ@example.com"
	_, err = f.svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	u, err := f.svc.Authenticate(ctx, " ana.cruz@example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, reg.User.UID, u.UID)

	_, err = f.svc.Authenticate(ctx, "ana.cruz@example.com", "wrong1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Authenticate(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	inactive := StatusInactive
	_, err = f.svc.Update(ctx, reg.User.UID, Patch{Status: &inactive})
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, "ana.cruz@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateAccountAndDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.CreateAccount(ctx, AccountInput{FirstName: "Doc", Email: "doc@example.com", Role: "surgeon", Status: "Busy", Password: "123456"})
	var fe validation.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, "last_name")
	assert.Contains(t, fe, "phone")
	assert.Equal(t, "is not a known role", fe["role"])
	assert.Equal(t, "must be Active or Inactive", fe["status"])

	staff, err := f.svc.CreateAccount(ctx, AccountInput{
		FirstName: "Doc", LastName: "Reyes", Email: "doc@example.com", Phone: "09171234567",
		Role: RoleClinician, Status: StatusActive, Password: "123456",
	})
	require.NoError(t, err)
	assert.Equal(t, RoleClinician, staff.User.Role)
	assert.Nil(t, staff.Patient)
	assert.Empty(t, f.profiles.forUID(staff.User.UID))

	reg, err := f.svc.CreateAccount(ctx, AccountInput{
		FirstName: "Ben", LastName: "Santos", Email: "ben@example.com", Phone: "09171234568",
		Role: RolePatient, Status: StatusActive, Password: "123456",
	})
	require.NoError(t, err)
	assert.Empty(t, reg.Warnings)
	require.NotNil(t, reg.Patient)
	pat := reg.User
	assert.Len(t, f.profiles.forUID(pat.UID), 1)

	require.NoError(t, f.svc.DeleteAccount(ctx, pat.UID))
	assert.Empty(t, f.profiles.forUID(pat.UID))
	_, err = f.svc.Get(ctx, pat.UID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, f.svc.DeleteAccount(ctx, pat.UID), ErrUserNotFound)
}

func TestCreateAccountReportsProfileFailure(t *testing.T) {
	f := newFixture()
	f.profiles.fail = errors.New("profile store down")

	reg, err := f.svc.CreateAccount(context.Background(), AccountInput{
		FirstName: "Ben", LastName: "Santos", Email: "ben@example.com", Phone: "09171234568",
		Role: RolePatient, Status: StatusActive, Password: "123456",
	})
	require.NoError(t, err)
	require.NotNil(t, reg.User)
	assert.Nil(t, reg.Patient)
	require.Len(t, reg.Warnings, 1)
	assert.Contains(t, reg.Warnings[0], "patient profile was not created")

	_, err = f.svc.Get(context.Background(), reg.User.UID)
	assert.NoError(t, err, "the account itself is kept")
}

func TestFilter(t *testing.T) {
	list := []User{
		{UID: "a", FirstName: "Ana", Role: RolePatient},
		{UID: "b", FirstName: "Anabel", Role: RoleClinician},
		{UID: "c", FirstName: "Ben", Role: RolePatient},
	}

	assert.Len(t, Filter(list, ListFilter{}), 3)
	assert.Len(t, Filter(list, ListFilter{FirstName: "ana"}), 2)
	assert.Len(t, Filter(list, ListFilter{FirstName: "ana", Role: RolePatient}), 1)
	got := Filter(list, ListFilter{UID: "c", FirstName: "ana"})
	require.Len(t, got, 1)
	assert.Equal(t, "Ben", got[0].FirstName)
}

func TestChangePassword(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	uid := reg.User.UID

	assert.ErrorIs(t, f.svc.ChangePassword(ctx, uid, "wrong1", "newpass"), ErrInvalidCredentials)

	var fe validation.FieldErrors
	require.True(t, errors.As(f.svc.ChangePassword(ctx, uid, "secret1", "123"), &fe))
	assert.Contains(t, fe, "new_password")

	require.NoError(t, f.svc.ChangePassword(ctx, uid, "secret1", "newpass"))
	_, err = f.svc.Authenticate(ctx, "ana.cruz@example.com", "newpass")
	assert.NoError(t, err)
}

func TestAssessment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reg, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	uid := reg.User.UID

	_, err = f.svc.Assessment(ctx, uid)
	assert.ErrorIs(t, err, ErrNoAssessment)

	_, err = f.svc.SaveAssessment(ctx, uid, risk.Answers{"condomUse": "Never"})
	var fe validation.FieldErrors
	assert.True(t, errors.As(err, &fe))

	saved, err := f.svc.SaveAssessment(ctx, uid, risk.Answers{"condomUse": "Sometimes", "prepUse": "Yes"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, saved.Total)

	got, err := f.svc.Assessment(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, saved.Total, got.Total)
	assert.Equal(t, risk.LevelLow, got.Level)
	assert.Equal(t, saved.Breakdown, got.Breakdown)
}
