package clinic

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

// ParseGender accepts the stored single letter codes as well as the long
// forms, case-insensitively. Unknown values are returned unchanged so that
// validation can report them.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return GenderMale
	case "f", "female":
		return GenderFemale
	case "o", "other":
		return GenderOther
	}
	return Gender(s)
}

type AssignmentStatus string

const (
	StatusActive   AssignmentStatus = "active"
	StatusInactive AssignmentStatus = "inactive"
)

func (s AssignmentStatus) IsActive() bool { return s == StatusActive }

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	Age       int
	Gender    Gender
	Address   string
	OwnerID   uuid.UUID
	OwnerName string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Doctor struct {
	ID                uuid.UUID
	Name              string
	Speciality        string
	Phone             string
	Email             string
	LicenseNumber     string
	YearsOfExperience int
	ConsultationFee   decimal.Decimal
	OwnerID           uuid.UUID
	OwnerName         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Assignment links a patient to a doctor. PatientOwnerID is the owner of the
// referenced patient and is what access decisions are made on; OwnerID only
// records who created the assignment.
type Assignment struct {
	ID               uuid.UUID
	PatientID        uuid.UUID
	DoctorID         uuid.UUID
	AssignedAt       time.Time
	Status           AssignmentStatus
	OwnerID          uuid.UUID
	PatientOwnerID   uuid.UUID
	PatientName      string
	DoctorName       string
	DoctorSpeciality string
}

type PatientInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required,phone"`
	Age     *int   `json:"age" validate:"required,min=0,max=2147483647"`
	Gender  Gender `json:"gender" validate:"required,oneof=M F O"`
	Address string `json:"address" validate:"required"`
}

// PatientPatch carries a partial update; nil fields keep their current value.
type PatientPatch struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Age     *int    `json:"age"`
	Gender  *Gender `json:"gender"`
	Address *string `json:"address"`
}

// Apply overlays the patch on p and returns the resulting full input.
func (pp PatientPatch) Apply(p Patient) PatientInput {
	age := p.Age
	in := PatientInput{
		Name:    p.Name,
		Email:   p.Email,
		Phone:   p.Phone,
		Age:     &age,
		Gender:  p.Gender,
		Address: p.Address,
	}
	if pp.Name != nil {
		in.Name = *pp.Name
	}
	if pp.Email != nil {
		in.Email = *pp.Email
	}
	if pp.Phone != nil {
		in.Phone = *pp.Phone
	}
	if pp.Age != nil {
		in.Age = pp.Age
	}
	if pp.Gender != nil {
		in.Gender = *pp.Gender
	}
	if pp.Address != nil {
		in.Address = *pp.Address
	}
	return in
}

type DoctorInput struct {
	Name              string           `json:"name" validate:"required,max=100"`
	Speciality        string           `json:"speciality" validate:"required,max=100"`
	Phone             string           `json:"phone" validate:"required,phone"`
	Email             string           `json:"email" validate:"required,email"`
	LicenseNumber     string           `json:"license_number" validate:"required,max=50"`
	YearsOfExperience *int             `json:"years_of_experience" validate:"required,min=0,max=2147483647"`
	ConsultationFee   *decimal.Decimal `json:"consultation_fee" validate:"required"`
}

type DoctorPatch struct {
	Name              *string          `json:"name"`
	Speciality        *string          `json:"speciality"`
	Phone             *string          `json:"phone"`
	Email             *string          `json:"email"`
	LicenseNumber     *string          `json:"license_number"`
	YearsOfExperience *int             `json:"years_of_experience"`
	ConsultationFee   *decimal.Decimal `json:"consultation_fee"`
}

func (dp DoctorPatch) Apply(d Doctor) DoctorInput {
	years := d.YearsOfExperience
	fee := d.ConsultationFee
	in := DoctorInput{
		Name:              d.Name,
		Speciality:        d.Speciality,
		Phone:             d.Phone,
		Email:             d.Email,
		LicenseNumber:     d.LicenseNumber,
		YearsOfExperience: &years,
		ConsultationFee:   &fee,
	}
	if dp.Name != nil {
		in.Name = *dp.Name
	}
	if dp.Speciality != nil {
		in.Speciality = *dp.Speciality
	}
	if dp.Phone != nil {
		in.Phone = *dp.Phone
	}
	if dp.Email != nil {
		in.Email = *dp.Email
	}
	if dp.LicenseNumber != nil {
		in.LicenseNumber = *dp.LicenseNumber
	}
	if dp.YearsOfExperience != nil {
		in.YearsOfExperience = dp.YearsOfExperience
	}
	if dp.ConsultationFee != nil {
		in.ConsultationFee = dp.ConsultationFee
	}
	return in
}
