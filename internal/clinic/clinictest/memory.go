// Package clinictest provides an in-memory clinic.Repository for tests. It
// evaluates Filters the way the Postgres repository renders them and enforces
// the same unique constraints and cascades.
package clinictest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-records/internal/apperr"
	"github.com/hackgods/clinic-records/internal/clinic"
)

var _ clinic.Repository = (*MemoryRepository)(nil)

type MemoryRepository struct {
	mu          sync.Mutex
	clock       time.Time
	users       map[uuid.UUID]string
	patients    map[uuid.UUID]clinic.Patient
	doctors     map[uuid.UUID]clinic.Doctor
	assignments map[uuid.UUID]clinic.Assignment

	// FailWith, when set, is returned by every call.
	FailWith error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		clock:       time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		users:       map[uuid.UUID]string{},
		patients:    map[uuid.UUID]clinic.Patient{},
		doctors:     map[uuid.UUID]clinic.Doctor{},
		assignments: map[uuid.UUID]clinic.Assignment{},
	}
}

// AddUser registers a display name used to fill OwnerName.
func (m *MemoryRepository) AddUser(id uuid.UUID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = name
}

// AllAssignments returns every stored assignment regardless of owner or status.
func (m *MemoryRepository) AllAssignments() []clinic.Assignment {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]clinic.Assignment, 0, len(m.assignments))
	for _, a := range m.assignments {
		out = append(out, m.hydrate(a))
	}
	return out
}

// tick returns strictly increasing timestamps so ordering is deterministic.
func (m *MemoryRepository) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func match(f clinic.Filter, value func(clinic.Field) (any, bool)) (bool, error) {
	for _, c := range f.Conditions {
		v, ok := value(c.Field)
		if !ok {
			return false, fmt.Errorf("unsupported filter field %q", c.Field)
		}
		if v != c.Value {
			return false, nil
		}
	}
	return true, nil
}

func patientValue(p clinic.Patient) func(clinic.Field) (any, bool) {
	return func(f clinic.Field) (any, bool) {
		switch f {
		case clinic.FieldID:
			return p.ID, true
		case clinic.FieldOwner:
			return p.OwnerID, true
		}
		return nil, false
	}
}

func doctorValue(d clinic.Doctor) func(clinic.Field) (any, bool) {
	return func(f clinic.Field) (any, bool) {
		switch f {
		case clinic.FieldID:
			return d.ID, true
		case clinic.FieldOwner:
			return d.OwnerID, true
		}
		return nil, false
	}
}

func (m *MemoryRepository) assignmentValue(a clinic.Assignment) func(clinic.Field) (any, bool) {
	return func(f clinic.Field) (any, bool) {
		switch f {
		case clinic.FieldID:
			return a.ID, true
		case clinic.FieldOwner:
			return a.OwnerID, true
		case clinic.FieldPatientID:
			return a.PatientID, true
		case clinic.FieldPatientOwner:
			return m.patients[a.PatientID].OwnerID, true
		case clinic.FieldStatus:
			return a.Status, true
		}
		return nil, false
	}
}

func (m *MemoryRepository) hydrate(a clinic.Assignment) clinic.Assignment {
	p := m.patients[a.PatientID]
	d := m.doctors[a.DoctorID]
	a.PatientOwnerID = p.OwnerID
	a.PatientName = p.Name
	a.DoctorName = d.Name
	a.DoctorSpeciality = d.Speciality
	return a
}

// Patients

func (m *MemoryRepository) findPatients(f clinic.Filter) ([]clinic.Patient, error) {
	var out []clinic.Patient
	for _, p := range m.patients {
		ok, err := match(f, patientValue(p))
		if err != nil {
			return nil, err
		}
		if ok {
			p.OwnerName = m.users[p.OwnerID]
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepository) ListPatients(_ context.Context, f clinic.Filter) ([]clinic.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	out, err := m.findPatients(f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []clinic.Patient{}
	}
	return out, nil
}

func (m *MemoryRepository) GetPatient(_ context.Context, f clinic.Filter) (*clinic.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	out, err := m.findPatients(f)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, apperr.NotFound(string(clinic.EntityPatient))
	}
	return &out[0], nil
}

func (m *MemoryRepository) patientEmailTaken(email string, except uuid.UUID) bool {
	for _, p := range m.patients {
		if p.ID != except && p.Email == email {
			return true
		}
	}
	return false
}

func (m *MemoryRepository) CreatePatient(_ context.Context, p clinic.Patient) (*clinic.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if m.patientEmailTaken(p.Email, p.ID) {
		return nil, apperr.Conflict("email", "patient with this email already exists.")
	}

	now := m.tick()
	p.CreatedAt, p.UpdatedAt = now, now
	m.patients[p.ID] = p

	p.OwnerName = m.users[p.OwnerID]
	return &p, nil
}

func (m *MemoryRepository) UpdatePatient(_ context.Context, f clinic.Filter, in clinic.PatientInput) (*clinic.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	found, err := m.findPatients(f)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperr.NotFound(string(clinic.EntityPatient))
	}

	p := m.patients[found[0].ID]
	if m.patientEmailTaken(in.Email, p.ID) {
		return nil, apperr.Conflict("email", "patient with this email already exists.")
	}
	p.Name = in.Name
	p.Email = in.Email
	p.Phone = in.Phone
	p.Age = *in.Age
	p.Gender = in.Gender
	p.Address = in.Address
	p.UpdatedAt = m.tick()
	m.patients[p.ID] = p

	p.OwnerName = m.users[p.OwnerID]
	return &p, nil
}

func (m *MemoryRepository) DeletePatient(_ context.Context, f clinic.Filter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}

	found, err := m.findPatients(f)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return apperr.NotFound(string(clinic.EntityPatient))
	}

	for _, p := range found {
		delete(m.patients, p.ID)
		for id, a := range m.assignments {
			if a.PatientID == p.ID {
				delete(m.assignments, id)
			}
		}
	}
	return nil
}

// Doctors

func (m *MemoryRepository) findDoctors(f clinic.Filter) ([]clinic.Doctor, error) {
	var out []clinic.Doctor
	for _, d := range m.doctors {
		ok, err := match(f, doctorValue(d))
		if err != nil {
			return nil, err
		}
		if ok {
			d.OwnerName = m.users[d.OwnerID]
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepository) doctorConflict(d clinic.Doctor) error {
	for _, other := range m.doctors {
		if other.ID == d.ID {
			continue
		}
		if other.Email == d.Email {
			return apperr.Conflict("email", "doctor with this email already exists.")
		}
		if other.LicenseNumber == d.LicenseNumber {
			return apperr.Conflict("license_number", "doctor with this license number already exists.")
		}
	}
	return nil
}

func (m *MemoryRepository) ListDoctors(_ context.Context, f clinic.Filter) ([]clinic.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	out, err := m.findDoctors(f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []clinic.Doctor{}
	}
	return out, nil
}

func (m *MemoryRepository) GetDoctor(_ context.Context, f clinic.Filter) (*clinic.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	out, err := m.findDoctors(f)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, apperr.NotFound(string(clinic.EntityDoctor))
	}
	return &out[0], nil
}

func (m *MemoryRepository) CreateDoctor(_ context.Context, d clinic.Doctor) (*clinic.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if err := m.doctorConflict(d); err != nil {
		return nil, err
	}

	now := m.tick()
	d.CreatedAt, d.UpdatedAt = now, now
	m.doctors[d.ID] = d

	d.OwnerName = m.users[d.OwnerID]
	return &d, nil
}

func (m *MemoryRepository) UpdateDoctor(_ context.Context, f clinic.Filter, in clinic.DoctorInput) (*clinic.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	found, err := m.findDoctors(f)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperr.NotFound(string(clinic.EntityDoctor))
	}

	d := m.doctors[found[0].ID]
	d.Name = in.Name
	d.Speciality = in.Speciality
	d.Phone = in.Phone
	d.Email = in.Email
	d.LicenseNumber = in.LicenseNumber
	d.YearsOfExperience = *in.YearsOfExperience
	d.ConsultationFee = *in.ConsultationFee
	if err := m.doctorConflict(d); err != nil {
		return nil, err
	}
	d.UpdatedAt = m.tick()
	m.doctors[d.ID] = d

	d.OwnerName = m.users[d.OwnerID]
	return &d, nil
}

func (m *MemoryRepository) DeleteDoctor(_ context.Context, f clinic.Filter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}

	found, err := m.findDoctors(f)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return apperr.NotFound(string(clinic.EntityDoctor))
	}

	for _, d := range found {
		delete(m.doctors, d.ID)
		for id, a := range m.assignments {
			if a.DoctorID == d.ID {
				delete(m.assignments, id)
			}
		}
	}
	return nil
}

// Assignments

func (m *MemoryRepository) findAssignments(f clinic.Filter) ([]clinic.Assignment, error) {
	var out []clinic.Assignment
	for _, a := range m.assignments {
		ok, err := match(f, m.assignmentValue(a))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, m.hydrate(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.After(out[j].AssignedAt) })
	return out, nil
}

func (m *MemoryRepository) ListAssignments(_ context.Context, f clinic.Filter) ([]clinic.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	out, err := m.findAssignments(f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []clinic.Assignment{}
	}
	return out, nil
}

func (m *MemoryRepository) GetAssignment(_ context.Context, f clinic.Filter) (*clinic.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	out, err := m.findAssignments(f)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, apperr.NotFound(string(clinic.EntityAssignment))
	}
	return &out[0], nil
}

func (m *MemoryRepository) CreateAssignment(_ context.Context, a clinic.Assignment) (*clinic.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	if _, ok := m.patients[a.PatientID]; !ok {
		return nil, apperr.Validation("patient", "you may only assign doctors to your own patients")
	}
	if _, ok := m.doctors[a.DoctorID]; !ok {
		return nil, apperr.Validation("doctor", "Invalid doctor.")
	}
	for _, other := range m.assignments {
		if other.PatientID == a.PatientID && other.DoctorID == a.DoctorID {
			return nil, apperr.Conflict("patient,doctor", "The fields patient, doctor must make a unique set.")
		}
	}

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = clinic.StatusActive
	}
	a.AssignedAt = m.tick()
	m.assignments[a.ID] = a

	out := m.hydrate(a)
	return &out, nil
}

func (m *MemoryRepository) SetAssignmentStatus(_ context.Context, f clinic.Filter, status clinic.AssignmentStatus) (*clinic.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	found, err := m.findAssignments(f)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperr.NotFound(string(clinic.EntityAssignment))
	}

	a := m.assignments[found[0].ID]
	a.Status = status
	m.assignments[a.ID] = a

	out := m.hydrate(a)
	return &out, nil
}
