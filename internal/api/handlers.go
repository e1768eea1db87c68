package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-records/internal/clinic"
)

// pathID parses a UUID URL parameter. A malformed id cannot name any record,
// so it is answered like a missing one.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "Not found.")
		return uuid.Nil, false
	}
	return id, true
}

// Patients

func listPatientsHandler(svc *clinic.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := svc.ListPatients(r.Context(), identityFrom(r.Context()))
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(patients, newPatientResponse))
	}
}

func createPatientHandler(svc *clinic.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req clinic.PatientInput
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := svc.CreatePatient(r.Context(), identityFrom(r.Context()), req)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, newPatientResponse(p))
	}
}

func getPatientHandler(svc *clinic.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		p, err := svc.GetPatient(r.Context(), identityFrom(r.Context()), id)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, newPatientResponse(p))
	}
}

func replacePatientHandler(svc *clinic.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req clinic.PatientInput
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := svc.ReplacePatient(r.Context(), identityFrom(r.Context()), id, req)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, newPatientResponse(p))
	}
}

func patchPatientHandler(svc *clinic.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req clinic.PatientPatch
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := svc.PatchPatient(r.Context(), identityFrom(r.Context()), id, req)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, newPatientResponse(p))
	}
}

func deletePatientHandler(svc *clinic.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.DeletePatient(r.Context(), identityFrom(r.Context()), id); err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Doctors

func listDoctorsHandler(svc *clinic.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.ListDoctors(r.Context(), identityFrom(r.Context()))
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(doctors, newDoctorResponse))
	}
}

func createDoctorHandler(svc *clinic.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req clinic.DoctorInput
		if !decodeJSON(w, r, &req) {
			return
		}

		d, err := svc.CreateDoctor(r.Context(), identityFrom(r.Context()), req)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, newDoctorResponse(d))
	}
}

func getDoctorHandler(svc *clinic.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		d, err := svc.GetDoctor(r.Context(), identityFrom(r.Context()), id)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, newDoctorResponse(d))
	}
}

func replaceDoctorHandler(svc *clinic.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req clinic.DoctorInput
		if !decodeJSON(w, r, &req) {
			return
		}

		d, err := svc.ReplaceDoctor(r.Context(), identityFrom(r.Context()), id, req)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, newDoctorResponse(d))
	}
}

func patchDoctorHandler(svc *clinic.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req clinic.DoctorPatch
		if !decodeJSON(w, r, &req) {
			return
		}

		d, err := svc.PatchDoctor(r.Context(), identityFrom(r.Context()), id, req)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, newDoctorResponse(d))
	}
}

func deleteDoctorHandler(svc *clinic.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.DeleteDoctor(r.Context(), identityFrom(r.Context()), id); err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Assignments

func parseRefID(w http.ResponseWriter, field, raw string) (uuid.UUID, bool) {
	if raw == "" {
		writeFieldError(w, http.StatusBadRequest, "validation_error", field, "This field is required.")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeFieldError(w, http.StatusBadRequest, "validation_error", field,
			fmt.Sprintf("Invalid pk %q - object does not exist.", raw))
		return uuid.Nil, false
	}
	return id, true
}

func listAssignmentsHandler(svc *clinic.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListActiveAssignments(r.Context(), identityFrom(r.Context()))
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(list, newAssignmentResponse))
	}
}

func assignmentHistoryHandler(svc *clinic.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAssignmentHistory(r.Context(), identityFrom(r.Context()))
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(list, newAssignmentResponse))
	}
}

func createAssignmentHandler(svc *clinic.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAssignmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		patientID, ok := parseRefID(w, "patient", req.Patient)
		if !ok {
			return
		}
		doctorID, ok := parseRefID(w, "doctor", req.Doctor)
		if !ok {
			return
		}

		a, err := svc.CreateAssignment(r.Context(), identityFrom(r.Context()), patientID, doctorID)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, newAssignmentResponse(a))
	}
}

func patientAssignmentsHandler(svc *clinic.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, ok := pathID(w, r, "patientID")
		if !ok {
			return
		}

		list, err := svc.ListAssignmentsForPatient(r.Context(), identityFrom(r.Context()), patientID)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, mapSlice(list, newAssignmentResponse))
	}
}

func getAssignmentHandler(svc *clinic.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		a, err := svc.GetAssignment(r.Context(), identityFrom(r.Context()), id)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, newAssignmentResponse(a))
	}
}

func removeAssignmentHandler(svc *clinic.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		a, err := svc.RemoveAssignment(r.Context(), identityFrom(r.Context()), id)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, RemoveAssignmentResponse{
			Message: "Doctor removed from patient successfully",
			Mapping: newAssignmentResponse(a),
		})
	}
}
