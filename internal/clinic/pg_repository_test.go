package clinic

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-records/internal/apperr"
)

func TestColumnSetWhere_Empty(t *testing.T) {
	cond, args, err := doctorColumns.where(Filter{}, 0)
	require.NoError(t, err)
	assert.Equal(t, "TRUE", cond)
	assert.Empty(t, args)
}

func TestColumnSetWhere_AssignmentScope(t *testing.T) {
	me := Identity{UserID: uuid.New()}

	cond, args, err := assignmentColumns.where(ScopeForList(me, EntityAssignment), 1)
	require.NoError(t, err)
	assert.Equal(t, "p.owner_id = $2 AND a.status = $3", cond)
	assert.Equal(t, []any{me.UserID, StatusActive}, args)
}

func TestColumnSetWhere_PatientRecord(t *testing.T) {
	me := Identity{UserID: uuid.New()}
	id := uuid.New()

	cond, args, err := patientColumns.where(ScopeForRecord(me, EntityPatient, id), 6)
	require.NoError(t, err)
	assert.Equal(t, "patients.id = $7 AND patients.owner_id = $8", cond)
	assert.Equal(t, []any{id, me.UserID}, args)
}

func TestColumnSetWhere_UnknownField(t *testing.T) {
	_, _, err := patientColumns.where(Where(FieldStatus, StatusActive), 0)
	assert.Error(t, err)
}

func TestTranslateWriteError(t *testing.T) {
	cases := []struct {
		name   string
		in     error
		target error
		field  string
	}{
		{"patient email", &pgconn.PgError{Code: "23505", ConstraintName: "patients_email_key"}, apperr.ErrConflict, "email"},
		{"license", &pgconn.PgError{Code: "23505", ConstraintName: "doctors_license_number_key"}, apperr.ErrConflict, "license_number"},
		{"pair", &pgconn.PgError{Code: "23505", ConstraintName: "assignments_patient_doctor_key"}, apperr.ErrConflict, "patient,doctor"},
		{"doctor fk", &pgconn.PgError{Code: "23503", ConstraintName: "assignments_doctor_id_fkey"}, apperr.ErrValidation, "doctor"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := translateWriteError(tc.in)
			assert.ErrorIs(t, err, tc.target)

			var ce *apperr.ConflictError
			var ve *apperr.ValidationError
			switch {
			case errors.As(err, &ce):
				assert.Equal(t, tc.field, ce.Field)
			case errors.As(err, &ve):
				assert.Equal(t, tc.field, ve.Field)
			default:
				t.Fatalf("unexpected error type %T", err)
			}
		})
	}
}

func TestTranslateWriteError_PassThrough(t *testing.T) {
	boom := errors.New("connection reset")
	assert.Same(t, boom, translateWriteError(boom))
}
