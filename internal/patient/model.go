package patient

import "time"

type Patient struct {
	ID                string     `json:"id"`
	UID               string     `json:"uid"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	BirthDate         *time.Time `json:"birth_date,omitempty"`
	Sex               string     `json:"sex"`
	Gender            string     `json:"gender"`
	Address           string     `json:"address"`
	ContactNumbers    string     `json:"contact_numbers"`
	EmailAddress      string     `json:"email_address"`
	EmergencyContact  string     `json:"emergency_contact"`
	InsuranceProvider string     `json:"insurance_provider"`
	RegistrationDate  time.Time  `json:"registration_date"`
}

// Patch carries the editable profile fields; nil means unchanged.
type Patch struct {
	FirstName         *string `json:"first_name,omitempty"`
	LastName          *string `json:"last_name,omitempty"`
	BirthDate         *string `json:"birth_date,omitempty"`
	Sex               *string `json:"sex,omitempty"`
	Gender            *string `json:"gender,omitempty"`
	Address           *string `json:"address,omitempty"`
	ContactNumbers    *string `json:"contact_numbers,omitempty"`
	EmailAddress      *string `json:"email_address,omitempty"`
	EmergencyContact  *string `json:"emergency_contact,omitempty"`
	InsuranceProvider *string `json:"insurance_provider,omitempty"`
}

// SearchQuery looks a patient up by id, or by exact first and/or last name.
type SearchQuery struct {
	ID        string
	FirstName string
	LastName  string
}
