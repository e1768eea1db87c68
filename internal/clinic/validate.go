package clinic

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hackgods/clinic-records/internal/apperr"
	"github.com/hackgods/clinic-records/internal/validation"
)

var maxFee = decimal.New(1, 8) // NUMERIC(10,2) leaves 8 integer digits

func normalizePatient(in PatientInput) PatientInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Gender = ParseGender(string(in.Gender))
	return in
}

func validatePatient(in PatientInput) (PatientInput, error) {
	in = normalizePatient(in)
	if err := validation.Struct(in); err != nil {
		return in, err
	}
	return in, nil
}

func normalizeDoctor(in DoctorInput) DoctorInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Speciality = strings.TrimSpace(in.Speciality)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
	return in
}

func validateDoctor(in DoctorInput) (DoctorInput, error) {
	in = normalizeDoctor(in)
	if err := validation.Struct(in); err != nil {
		return in, err
	}
	if err := validateFee(*in.ConsultationFee); err != nil {
		return in, err
	}
	fee := in.ConsultationFee.Round(2)
	in.ConsultationFee = &fee
	return in, nil
}

func validateFee(fee decimal.Decimal) error {
	switch {
	case fee.IsNegative():
		return apperr.Validation("consultation_fee", "Ensure this value is greater than or equal to 0.")
	case !fee.Equal(fee.Round(2)):
		return apperr.Validation("consultation_fee", "Ensure that there are no more than 2 decimal places.")
	case fee.GreaterThanOrEqual(maxFee):
		return apperr.Validation("consultation_fee", "Ensure that there are no more than 8 digits before the decimal point.")
	}
	return nil
}
