package clinic

import (
	"context"
)

// Repository contains all storage interactions needed by the service. Every
// read, update and delete takes the Filter produced by the scoping functions;
// implementations apply it inside the query and return a NotFoundError when
// nothing matches. Unique violations are returned as ConflictError.
type Repository interface {
	ListPatients(ctx context.Context, f Filter) ([]Patient, error)
	GetPatient(ctx context.Context, f Filter) (*Patient, error)
	CreatePatient(ctx context.Context, p Patient) (*Patient, error)
	UpdatePatient(ctx context.Context, f Filter, in PatientInput) (*Patient, error)
	DeletePatient(ctx context.Context, f Filter) error

	ListDoctors(ctx context.Context, f Filter) ([]Doctor, error)
	GetDoctor(ctx context.Context, f Filter) (*Doctor, error)
	CreateDoctor(ctx context.Context, d Doctor) (*Doctor, error)
	UpdateDoctor(ctx context.Context, f Filter, in DoctorInput) (*Doctor, error)
	DeleteDoctor(ctx context.Context, f Filter) error

	ListAssignments(ctx context.Context, f Filter) ([]Assignment, error)
	GetAssignment(ctx context.Context, f Filter) (*Assignment, error)
	CreateAssignment(ctx context.Context, a Assignment) (*Assignment, error)
	SetAssignmentStatus(ctx context.Context, f Filter, status AssignmentStatus) (*Assignment, error)
}
