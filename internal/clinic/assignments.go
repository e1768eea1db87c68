package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-records/internal/apperr"
)

// Assignment lifecycle:
//
//	(none) --create--> active --remove--> inactive
//
// There is no way back to active. A (patient, doctor) pair can be created
// once; the uniqueness constraint also covers inactive rows.

// CreateAssignment links doctorID to patientID on behalf of id. The requester
// must own the patient; any doctor may be assigned.
func (s *Service) CreateAssignment(ctx context.Context, id Identity, patientID, doctorID uuid.UUID) (*Assignment, error) {
	patient, err := s.repo.GetPatient(ctx, ScopeForRecord(id, EntityPatient, patientID))
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if err := AuthorizeCreate(id, EntityAssignment, patient); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetDoctor(ctx, ScopeForRecord(id, EntityDoctor, doctorID)); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Validation("doctor", "Invalid doctor.")
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	created, err := s.repo.CreateAssignment(ctx, Assignment{
		ID:        uuid.New(),
		PatientID: patientID,
		DoctorID:  doctorID,
		Status:    StatusActive,
		OwnerID:   id.UserID,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			s.log.Info("duplicate assignment rejected",
				zap.String("patient_id", patientID.String()),
				zap.String("doctor_id", doctorID.String()))
		}
		return nil, fmt.Errorf("create assignment: %w", err)
	}

	s.log.Info("assignment created",
		zap.String("assignment_id", created.ID.String()),
		zap.String("patient_id", patientID.String()),
		zap.String("doctor_id", doctorID.String()))

	return created, nil
}

// RemoveAssignment moves an assignment to inactive. The record is kept.
// Removing an assignment that is already inactive succeeds and leaves it
// inactive.
func (s *Service) RemoveAssignment(ctx context.Context, id Identity, assignmentID uuid.UUID) (*Assignment, error) {
	current, err := s.GetAssignment(ctx, id, assignmentID)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusInactive {
		return current, nil
	}

	updated, err := s.repo.SetAssignmentStatus(ctx, ScopeForRecord(id, EntityAssignment, assignmentID), StatusInactive)
	if err != nil {
		return nil, fmt.Errorf("remove assignment: %w", err)
	}

	s.log.Info("assignment removed",
		zap.String("assignment_id", assignmentID.String()),
		zap.String("by", id.UserID.String()))

	return updated, nil
}

// GetAssignment looks an assignment up by ownership of its patient only, so
// inactive assignments are still returned.
func (s *Service) GetAssignment(ctx context.Context, id Identity, assignmentID uuid.UUID) (*Assignment, error) {
	a, err := s.repo.GetAssignment(ctx, ScopeForRecord(id, EntityAssignment, assignmentID))
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	if err := AuthorizeRecordAccess(id, EntityAssignment, a.PatientOwnerID); err != nil {
		return nil, err
	}
	return a, nil
}

// ListActiveAssignments returns the active assignments of patients owned by id.
func (s *Service) ListActiveAssignments(ctx context.Context, id Identity) ([]Assignment, error) {
	list, err := s.repo.ListAssignments(ctx, ScopeForList(id, EntityAssignment))
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return list, nil
}

// ListAssignmentsForPatient returns the active assignments of one patient
// owned by id.
func (s *Service) ListAssignmentsForPatient(ctx context.Context, id Identity, patientID uuid.UUID) ([]Assignment, error) {
	if _, err := s.GetPatient(ctx, id, patientID); err != nil {
		return nil, err
	}

	f := ScopeForList(id, EntityAssignment).And(Where(FieldPatientID, patientID))
	list, err := s.repo.ListAssignments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list patient assignments: %w", err)
	}
	return list, nil
}

// ListAssignmentHistory returns every assignment, active or removed, of the
// patients owned by id.
func (s *Service) ListAssignmentHistory(ctx context.Context, id Identity) ([]Assignment, error) {
	list, err := s.repo.ListAssignments(ctx, Where(FieldPatientOwner, id.UserID))
	if err != nil {
		return nil, fmt.Errorf("list assignment history: %w", err)
	}
	return list, nil
}
