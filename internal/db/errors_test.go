package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "patients_email_key"})

	name, ok := UniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "patients_email_key", name)

	_, ok = ForeignKeyViolation(err)
	assert.False(t, ok)
}

func TestForeignKeyViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23503", ConstraintName: "assignments_doctor_id_fkey"}

	name, ok := ForeignKeyViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "assignments_doctor_id_fkey", name)
}

func TestViolation_OtherErrors(t *testing.T) {
	_, ok := UniqueViolation(errors.New("boom"))
	assert.False(t, ok)

	_, ok = UniqueViolation(nil)
	assert.False(t, ok)
}
