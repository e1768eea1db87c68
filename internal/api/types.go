package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-records/internal/auth"
	"github.com/hackgods/clinic-records/internal/clinic"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Field   string            `json:"field,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Auth

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type AuthResponse struct {
	Message string         `json:"message"`
	User    UserResponse   `json:"user"`
	Tokens  auth.TokenPair `json:"tokens"`
}

func newAuthResponse(message string, res *auth.Result) AuthResponse {
	return AuthResponse{
		Message: message,
		User: UserResponse{
			ID:    res.User.ID,
			Name:  res.User.Name(),
			Email: res.User.Email,
		},
		Tokens: res.Tokens,
	}
}

// Patients

type PatientResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Age           int       `json:"age"`
	Gender        string    `json:"gender"`
	Address       string    `json:"address"`
	CreatedBy     uuid.UUID `json:"created_by"`
	CreatedByName string    `json:"created_by_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newPatientResponse(p *clinic.Patient) PatientResponse {
	return PatientResponse{
		ID:            p.ID,
		Name:          p.Name,
		Email:         p.Email,
		Phone:         p.Phone,
		Age:           p.Age,
		Gender:        string(p.Gender),
		Address:       p.Address,
		CreatedBy:     p.OwnerID,
		CreatedByName: p.OwnerName,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// Doctors

type DoctorResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Speciality        string    `json:"speciality"`
	Phone             string    `json:"phone"`
	Email             string    `json:"email"`
	LicenseNumber     string    `json:"license_number"`
	YearsOfExperience int       `json:"years_of_experience"`
	ConsultationFee   string    `json:"consultation_fee"`
	CreatedBy         uuid.UUID `json:"created_by"`
	CreatedByName     string    `json:"created_by_name"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func newDoctorResponse(d *clinic.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:                d.ID,
		Name:              d.Name,
		Speciality:        d.Speciality,
		Phone:             d.Phone,
		Email:             d.Email,
		LicenseNumber:     d.LicenseNumber,
		YearsOfExperience: d.YearsOfExperience,
		ConsultationFee:   d.ConsultationFee.StringFixed(2),
		CreatedBy:         d.OwnerID,
		CreatedByName:     d.OwnerName,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// Assignments

type CreateAssignmentRequest struct {
	Patient string `json:"patient"`
	Doctor  string `json:"doctor"`
}

type AssignmentResponse struct {
	ID                   uuid.UUID `json:"id"`
	Patient              uuid.UUID `json:"patient"`
	Doctor               uuid.UUID `json:"doctor"`
	PatientName          string    `json:"patient_name"`
	DoctorName           string    `json:"doctor_name"`
	DoctorSpecialization string    `json:"doctor_specialization"`
	AssignedAt           time.Time `json:"assigned_date"`
	Status               string    `json:"status"`
	IsActive             bool      `json:"is_active"`
	CreatedBy            uuid.UUID `json:"created_by"`
}

type RemoveAssignmentResponse struct {
	Message string             `json:"message"`
	Mapping AssignmentResponse `json:"mapping"`
}

func newAssignmentResponse(a *clinic.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:                   a.ID,
		Patient:              a.PatientID,
		Doctor:               a.DoctorID,
		PatientName:          a.PatientName,
		DoctorName:           a.DoctorName,
		DoctorSpecialization: a.DoctorSpeciality,
		AssignedAt:           a.AssignedAt,
		Status:               string(a.Status),
		IsActive:             a.Status.IsActive(),
		CreatedBy:            a.OwnerID,
	}
}

func mapSlice[T, R any](in []T, f func(*T) R) []R {
	out := make([]R, 0, len(in))
	for i := range in {
		out = append(out, f(&in[i]))
	}
	return out
}
