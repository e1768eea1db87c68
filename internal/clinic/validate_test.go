package clinic

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-records/internal/apperr"
)

func TestParseGender(t *testing.T) {
	cases := map[string]Gender{
		"M":      GenderMale,
		"male":   GenderMale,
		" F ":    GenderFemale,
		"Female": GenderFemale,
		"o":      GenderOther,
		"OTHER":  GenderOther,
		"x":      Gender("x"),
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseGender(in), in)
	}
}

func TestValidateFee(t *testing.T) {
	assert.NoError(t, validateFee(decimal.Zero))
	assert.NoError(t, validateFee(decimal.RequireFromString("99999999.99")))
	assert.NoError(t, validateFee(decimal.RequireFromString("12.50")))

	for _, s := range []string{"-0.01", "1.001", "100000000"} {
		err := validateFee(decimal.RequireFromString(s))
		assert.ErrorIs(t, err, apperr.ErrValidation, s)
	}
}

func TestValidateDoctor_RoundsFee(t *testing.T) {
	years := 3
	fee := decimal.RequireFromString("75.5")
	in, err := validateDoctor(DoctorInput{
		Name:              " Dr. Who ",
		Speciality:        "General",
		Phone:             "5551234567",
		Email:             "who@example.com",
		LicenseNumber:     "TARDIS-1",
		YearsOfExperience: &years,
		ConsultationFee:   &fee,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Who", in.Name)
	assert.Equal(t, "75.50", in.ConsultationFee.StringFixed(2))
}

func TestValidatePatient_Messages(t *testing.T) {
	age := 40
	_, err := validatePatient(PatientInput{
		Name:    "Ann",
		Email:   "ann@example.com",
		Phone:   "12",
		Age:     &age,
		Gender:  "F",
		Address: "x",
	})
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "phone", ve.Field)
	assert.Equal(t, "Enter Valid Phone Number", ve.Message)

	_, err = validatePatient(PatientInput{
		Name:    "Ann",
		Email:   "ann@example.com",
		Phone:   "5551234567",
		Age:     &age,
		Gender:  "Z",
		Address: "x",
	})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "gender", ve.Field)
	assert.Equal(t, `"Z" is not a valid choice.`, ve.Message)
}
