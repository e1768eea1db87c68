package clinic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hackgods/clinic-records/internal/apperr"
	"github.com/hackgods/clinic-records/internal/db"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Filter rendering

type columnSet map[Field]string

var (
	patientColumns = columnSet{
		FieldID:    "patients.id",
		FieldOwner: "patients.owner_id",
	}
	doctorColumns = columnSet{
		FieldID:    "doctors.id",
		FieldOwner: "doctors.owner_id",
	}
	assignmentColumns = columnSet{
		FieldID:           "a.id",
		FieldOwner:        "a.owner_id",
		FieldPatientID:    "a.patient_id",
		FieldPatientOwner: "p.owner_id",
		FieldStatus:       "a.status",
	}
)

// where renders f as AND-ed equality conditions with placeholders numbered
// from argOffset+1. An empty filter renders as TRUE.
func (cols columnSet) where(f Filter, argOffset int) (string, []any, error) {
	if f.IsEmpty() {
		return "TRUE", nil, nil
	}

	parts := make([]string, 0, len(f.Conditions))
	args := make([]any, 0, len(f.Conditions))
	for _, c := range f.Conditions {
		col, ok := cols[c.Field]
		if !ok {
			return "", nil, fmt.Errorf("unsupported filter field %q", c.Field)
		}
		args = append(args, c.Value)
		parts = append(parts, fmt.Sprintf("%s = $%d", col, argOffset+len(args)))
	}

	return strings.Join(parts, " AND "), args, nil
}

// Helpers

const ownerName = `u.first_name || ' ' || u.last_name`

func patientCols(t string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.name, %[1]s.email, %[1]s.phone, %[1]s.age, %[1]s.gender,
		%[1]s.address, %[1]s.owner_id, %[2]s, %[1]s.created_at, %[1]s.updated_at`, t, ownerName)
}

func doctorCols(t string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.name, %[1]s.speciality, %[1]s.phone, %[1]s.email,
		%[1]s.license_number, %[1]s.years_of_experience, %[1]s.consultation_fee::text,
		%[1]s.owner_id, %[2]s, %[1]s.created_at, %[1]s.updated_at`, t, ownerName)
}

func assignmentCols(t string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.patient_id, %[1]s.doctor_id, %[1]s.assigned_at, %[1]s.status,
		%[1]s.owner_id, p.owner_id, p.name, d.name, d.speciality`, t)
}

const assignmentJoins = `
	JOIN patients p ON p.id = a.patient_id
	JOIN doctors d ON d.id = a.doctor_id`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.Age,
		&p.Gender,
		&p.Address,
		&p.OwnerID,
		&p.OwnerName,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(string(EntityPatient))
		}
		return nil, translateWriteError(err)
	}

	return &p, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var fee string

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Speciality,
		&d.Phone,
		&d.Email,
		&d.LicenseNumber,
		&d.YearsOfExperience,
		&fee,
		&d.OwnerID,
		&d.OwnerName,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(string(EntityDoctor))
		}
		return nil, translateWriteError(err)
	}

	d.ConsultationFee, err = decimal.NewFromString(fee)
	if err != nil {
		return nil, fmt.Errorf("parse consultation fee %q: %w", fee, err)
	}

	return &d, nil
}

func scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.AssignedAt,
		&a.Status,
		&a.OwnerID,
		&a.PatientOwnerID,
		&a.PatientName,
		&a.DoctorName,
		&a.DoctorSpeciality,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(string(EntityAssignment))
		}
		return nil, translateWriteError(err)
	}

	return &a, nil
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]T, error) {
	defer rows.Close()

	result := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// translateWriteError maps constraint violations to the error kinds callers
// understand. Anything else is returned unchanged.
func translateWriteError(err error) error {
	if constraint, ok := db.UniqueViolation(err); ok {
		switch constraint {
		case "patients_email_key":
			return apperr.Conflict("email", "patient with this email already exists.")
		case "doctors_email_key":
			return apperr.Conflict("email", "doctor with this email already exists.")
		case "doctors_license_number_key":
			return apperr.Conflict("license_number", "doctor with this license number already exists.")
		case "assignments_patient_doctor_key":
			return apperr.Conflict("patient,doctor", "The fields patient, doctor must make a unique set.")
		}
		return apperr.Conflict("", "a record with these values already exists")
	}

	if constraint, ok := db.ForeignKeyViolation(err); ok {
		switch constraint {
		case "assignments_patient_id_fkey":
			return apperr.Validation("patient", "you may only assign doctors to your own patients")
		case "assignments_doctor_id_fkey":
			return apperr.Validation("doctor", "Invalid doctor.")
		}
		return apperr.Validation("", "referenced record does not exist")
	}

	return err
}

// Patients

func (r *PgRepository) ListPatients(ctx context.Context, f Filter) ([]Patient, error) {
	cond, args, err := patientColumns.where(f, 0)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+patientCols("patients")+`
		FROM patients
		JOIN users u ON u.id = patients.owner_id
		WHERE `+cond+`
		ORDER BY patients.created_at DESC, patients.id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}

	return collect(rows, scanPatient)
}

func (r *PgRepository) GetPatient(ctx context.Context, f Filter) (*Patient, error) {
	cond, args, err := patientColumns.where(f, 0)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		SELECT `+patientCols("patients")+`
		FROM patients
		JOIN users u ON u.id = patients.owner_id
		WHERE `+cond+`
	`, args...)
	return scanPatient(row)
}

func (r *PgRepository) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO patients (id, name, email, phone, age, gender, address, owner_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
			RETURNING *
		)
		SELECT `+patientCols("inserted")+`
		FROM inserted
		JOIN users u ON u.id = inserted.owner_id
	`, p.ID, p.Name, p.Email, p.Phone, p.Age, p.Gender, p.Address, p.OwnerID)

	return scanPatient(row)
}

func (r *PgRepository) UpdatePatient(ctx context.Context, f Filter, in PatientInput) (*Patient, error) {
	cond, args, err := patientColumns.where(f, 6)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE patients
		SET name = $1,
		    email = $2,
		    phone = $3,
		    age = $4,
		    gender = $5,
		    address = $6,
		    updated_at = now()
		FROM users u
		WHERE u.id = patients.owner_id
		  AND `+cond+`
		RETURNING `+patientCols("patients"),
		append([]any{in.Name, in.Email, in.Phone, *in.Age, in.Gender, in.Address}, args...)...)

	return scanPatient(row)
}

func (r *PgRepository) DeletePatient(ctx context.Context, f Filter) error {
	cond, args, err := patientColumns.where(f, 0)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE `+cond, args...)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(string(EntityPatient))
	}
	return nil
}

// Doctors

func (r *PgRepository) ListDoctors(ctx context.Context, f Filter) ([]Doctor, error) {
	cond, args, err := doctorColumns.where(f, 0)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+doctorCols("doctors")+`
		FROM doctors
		JOIN users u ON u.id = doctors.owner_id
		WHERE `+cond+`
		ORDER BY doctors.created_at DESC, doctors.id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query doctors: %w", err)
	}

	return collect(rows, scanDoctor)
}

func (r *PgRepository) GetDoctor(ctx context.Context, f Filter) (*Doctor, error) {
	cond, args, err := doctorColumns.where(f, 0)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		SELECT `+doctorCols("doctors")+`
		FROM doctors
		JOIN users u ON u.id = doctors.owner_id
		WHERE `+cond+`
	`, args...)
	return scanDoctor(row)
}

func (r *PgRepository) CreateDoctor(ctx context.Context, d Doctor) (*Doctor, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO doctors (id, name, speciality, phone, email, license_number,
			                     years_of_experience, consultation_fee, owner_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, now(), now())
			RETURNING *
		)
		SELECT `+doctorCols("inserted")+`
		FROM inserted
		JOIN users u ON u.id = inserted.owner_id
	`, d.ID, d.Name, d.Speciality, d.Phone, d.Email, d.LicenseNumber,
		d.YearsOfExperience, d.ConsultationFee.StringFixed(2), d.OwnerID)

	return scanDoctor(row)
}

func (r *PgRepository) UpdateDoctor(ctx context.Context, f Filter, in DoctorInput) (*Doctor, error) {
	cond, args, err := doctorColumns.where(f, 7)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE doctors
		SET name = $1,
		    speciality = $2,
		    phone = $3,
		    email = $4,
		    license_number = $5,
		    years_of_experience = $6,
		    consultation_fee = $7::numeric,
		    updated_at = now()
		FROM users u
		WHERE u.id = doctors.owner_id
		  AND `+cond+`
		RETURNING `+doctorCols("doctors"),
		append([]any{in.Name, in.Speciality, in.Phone, in.Email, in.LicenseNumber,
			*in.YearsOfExperience, in.ConsultationFee.StringFixed(2)}, args...)...)

	return scanDoctor(row)
}

func (r *PgRepository) DeleteDoctor(ctx context.Context, f Filter) error {
	cond, args, err := doctorColumns.where(f, 0)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM doctors WHERE `+cond, args...)
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(string(EntityDoctor))
	}
	return nil
}

// Assignments

func (r *PgRepository) ListAssignments(ctx context.Context, f Filter) ([]Assignment, error) {
	cond, args, err := assignmentColumns.where(f, 0)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+assignmentCols("a")+`
		FROM assignments a`+assignmentJoins+`
		WHERE `+cond+`
		ORDER BY a.assigned_at DESC, a.id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}

	return collect(rows, scanAssignment)
}

func (r *PgRepository) GetAssignment(ctx context.Context, f Filter) (*Assignment, error) {
	cond, args, err := assignmentColumns.where(f, 0)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		SELECT `+assignmentCols("a")+`
		FROM assignments a`+assignmentJoins+`
		WHERE `+cond+`
	`, args...)
	return scanAssignment(row)
}

// CreateAssignment relies on the assignments_patient_doctor_key constraint to
// reject a second row for the same pair, active or not.
func (r *PgRepository) CreateAssignment(ctx context.Context, a Assignment) (*Assignment, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = StatusActive
	}

	row := r.pool.QueryRow(ctx, `
		WITH a AS (
			INSERT INTO assignments (id, patient_id, doctor_id, assigned_at, status, owner_id)
			VALUES ($1, $2, $3, now(), $4, $5)
			RETURNING id, patient_id, doctor_id, assigned_at, status, owner_id
		)
		SELECT `+assignmentCols("a")+`
		FROM a`+assignmentJoins,
		a.ID, a.PatientID, a.DoctorID, a.Status, a.OwnerID)

	return scanAssignment(row)
}

func (r *PgRepository) SetAssignmentStatus(ctx context.Context, f Filter, status AssignmentStatus) (*Assignment, error) {
	cond, args, err := assignmentColumns.where(f, 1)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE assignments AS a
		SET status = $1
		FROM patients p, doctors d
		WHERE p.id = a.patient_id
		  AND d.id = a.doctor_id
		  AND `+cond+`
		RETURNING `+assignmentCols("a"),
		append([]any{status}, args...)...)

	return scanAssignment(row)
}
