package clinic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service applies the access-scoping rules to every patient, doctor and
// assignment operation before delegating to the Repository.
type Service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo: repo,
		log:  logger,
	}
}

// Patients

// ListPatients returns the patients owned by id, newest first.
func (s *Service) ListPatients(ctx context.Context, id Identity) ([]Patient, error) {
	patients, err := s.repo.ListPatients(ctx, ScopeForList(id, EntityPatient))
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}

// CreatePatient stores a new patient owned by id.
func (s *Service) CreatePatient(ctx context.Context, id Identity, in PatientInput) (*Patient, error) {
	if err := AuthorizeCreate(id, EntityPatient, nil); err != nil {
		return nil, err
	}

	in, err := validatePatient(in)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreatePatient(ctx, Patient{
		ID:      uuid.New(),
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Age:     *in.Age,
		Gender:  in.Gender,
		Address: in.Address,
		OwnerID: id.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	s.log.Info("patient created",
		zap.String("patient_id", created.ID.String()),
		zap.String("owner_id", id.UserID.String()))

	return created, nil
}

func (s *Service) GetPatient(ctx context.Context, id Identity, patientID uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetPatient(ctx, ScopeForRecord(id, EntityPatient, patientID))
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	if err := AuthorizeRecordAccess(id, EntityPatient, p.OwnerID); err != nil {
		return nil, err
	}
	return p, nil
}

// ReplacePatient overwrites every mutable field. The owner never changes.
func (s *Service) ReplacePatient(ctx context.Context, id Identity, patientID uuid.UUID, in PatientInput) (*Patient, error) {
	if _, err := s.GetPatient(ctx, id, patientID); err != nil {
		return nil, err
	}
	return s.updatePatient(ctx, id, patientID, in)
}

// PatchPatient changes only the fields present in patch.
func (s *Service) PatchPatient(ctx context.Context, id Identity, patientID uuid.UUID, patch PatientPatch) (*Patient, error) {
	current, err := s.GetPatient(ctx, id, patientID)
	if err != nil {
		return nil, err
	}
	return s.updatePatient(ctx, id, patientID, patch.Apply(*current))
}

func (s *Service) updatePatient(ctx context.Context, id Identity, patientID uuid.UUID, in PatientInput) (*Patient, error) {
	in, err := validatePatient(in)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdatePatient(ctx, ScopeForRecord(id, EntityPatient, patientID), in)
	if err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return updated, nil
}

// DeletePatient removes the patient and, through the store, its assignments.
func (s *Service) DeletePatient(ctx context.Context, id Identity, patientID uuid.UUID) error {
	if err := s.repo.DeletePatient(ctx, ScopeForRecord(id, EntityPatient, patientID)); err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}

	s.log.Info("patient deleted",
		zap.String("patient_id", patientID.String()),
		zap.String("owner_id", id.UserID.String()))
	return nil
}

// Doctors

// ListDoctors returns every doctor regardless of who created it.
func (s *Service) ListDoctors(ctx context.Context, id Identity) ([]Doctor, error) {
	doctors, err := s.repo.ListDoctors(ctx, ScopeForList(id, EntityDoctor))
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

func (s *Service) CreateDoctor(ctx context.Context, id Identity, in DoctorInput) (*Doctor, error) {
	if err := AuthorizeCreate(id, EntityDoctor, nil); err != nil {
		return nil, err
	}

	in, err := validateDoctor(in)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateDoctor(ctx, Doctor{
		ID:                uuid.New(),
		Name:              in.Name,
		Speciality:        in.Speciality,
		Phone:             in.Phone,
		Email:             in.Email,
		LicenseNumber:     in.LicenseNumber,
		YearsOfExperience: *in.YearsOfExperience,
		ConsultationFee:   *in.ConsultationFee,
		OwnerID:           id.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}

	s.log.Info("doctor created",
		zap.String("doctor_id", created.ID.String()),
		zap.String("owner_id", id.UserID.String()))

	return created, nil
}

func (s *Service) GetDoctor(ctx context.Context, id Identity, doctorID uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetDoctor(ctx, ScopeForRecord(id, EntityDoctor, doctorID))
	if err != nil {
		return nil, fmt.Errorf("get doctor: %w", err)
	}
	return d, nil
}

func (s *Service) ReplaceDoctor(ctx context.Context, id Identity, doctorID uuid.UUID, in DoctorInput) (*Doctor, error) {
	if _, err := s.GetDoctor(ctx, id, doctorID); err != nil {
		return nil, err
	}
	return s.updateDoctor(ctx, id, doctorID, in)
}

func (s *Service) PatchDoctor(ctx context.Context, id Identity, doctorID uuid.UUID, patch DoctorPatch) (*Doctor, error) {
	current, err := s.GetDoctor(ctx, id, doctorID)
	if err != nil {
		return nil, err
	}
	return s.updateDoctor(ctx, id, doctorID, patch.Apply(*current))
}

func (s *Service) updateDoctor(ctx context.Context, id Identity, doctorID uuid.UUID, in DoctorInput) (*Doctor, error) {
	in, err := validateDoctor(in)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateDoctor(ctx, ScopeForRecord(id, EntityDoctor, doctorID), in)
	if err != nil {
		return nil, fmt.Errorf("update doctor: %w", err)
	}
	return updated, nil
}

// DeleteDoctor removes the doctor and every assignment that references it,
// including assignments on other users' patients.
func (s *Service) DeleteDoctor(ctx context.Context, id Identity, doctorID uuid.UUID) error {
	if err := s.repo.DeleteDoctor(ctx, ScopeForRecord(id, EntityDoctor, doctorID)); err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}

	s.log.Info("doctor deleted",
		zap.String("doctor_id", doctorID.String()),
		zap.String("by", id.UserID.String()))
	return nil
}
