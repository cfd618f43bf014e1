package healthrecord

import "time"

type Record struct {
	ID          string    `json:"id"`
	PatientUID  string    `json:"patient_uid"`
	PatientName string    `json:"patient_name"`
	ServiceType string    `json:"service_type"`
	RecordType  string    `json:"record_type"`
	Result      string    `json:"result"`
	Clinician   string    `json:"clinician"`
	Encoder     string    `json:"encoder"`
	Attachment  string    `json:"attachment"`
	TestDate    time.Time `json:"test_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Input is the add-record form. TestDate accepts any clinic timestamp or a plain date.
type Input struct {
	PatientUID  string `json:"patient_uid"`
	PatientName string `json:"patient_name"`
	ServiceType string `json:"service_type"`
	RecordType  string `json:"record_type"`
	Result      string `json:"result"`
	Clinician   string `json:"clinician"`
	Encoder     string `json:"encoder"`
	Attachment  string `json:"attachment"`
	TestDate    string `json:"test_date"`
}

type Patch struct {
	ServiceType *string `json:"service_type,omitempty"`
	RecordType  *string `json:"record_type,omitempty"`
	Result      *string `json:"result,omitempty"`
	Clinician   *string `json:"clinician,omitempty"`
	Encoder     *string `json:"encoder,omitempty"`
	Attachment  *string `json:"attachment,omitempty"`
	TestDate    *string `json:"test_date,omitempty"`
}

type Summary struct {
	Total            int `json:"total"`
	HIVTestsThisYear int `json:"hiv_tests_this_year"`
	LabTestsThisYear int `json:"lab_tests_this_year"`
}
