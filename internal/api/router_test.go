package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-records/internal/auth"
	"github.com/hackgods/clinic-records/internal/auth/authtest"
	"github.com/hackgods/clinic-records/internal/clinic"
	"github.com/hackgods/clinic-records/internal/clinic/clinictest"
	redisclient "github.com/hackgods/clinic-records/internal/redis"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type testAPI struct {
	t        *testing.T
	handler  http.Handler
	records  *clinictest.MemoryRepository
	postgres *stubPinger
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb, err := redisclient.NewRedisClient(context.Background(), mr.Addr(), "", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	records := clinictest.NewMemoryRepository()
	users := authtest.NewMemoryUserRepository()
	users.OnCreate = func(u auth.User) { records.AddUser(u.ID, u.Name()) }

	issuer := auth.NewTokenIssuer("test-secret", 15*time.Minute, time.Hour)
	authSvc := auth.NewService(users, redisclient.NewRefreshSessionStore(rdb), issuer, zap.NewNop())

	pg := &stubPinger{}
	return &testAPI{
		t: t,
		handler: NewRouter(RouterConfig{
			Clinic:             clinic.NewService(records, zap.NewNop()),
			Auth:               authSvc,
			Postgres:           pg,
			Redis:              RedisPinger(rdb),
			Logger:             zap.NewNop(),
			CORSAllowedOrigins: []string{"*"},
			Env:                "test",
			Version:            "v0.0.0",
		}),
		records:  records,
		postgres: pg,
	}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// register signs a user up and returns their auth response.
func (a *testAPI) register(first, email string) AuthResponse {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"first_name":       first,
		"last_name":        "Tester",
		"email":            email,
		"password":         "s3cretpass",
		"password_confirm": "s3cretpass",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[AuthResponse](a.t, rec)
}

func janeDoeBody() map[string]any {
	return map[string]any{
		"name":    "Jane Doe",
		"email":   "jane@example.com",
		"phone":   "+15551234567",
		"age":     30,
		"gender":  "F",
		"address": "1 Main St",
	}
}

func drSmithBody() map[string]any {
	return map[string]any{
		"name":                "Dr. Smith",
		"speciality":          "Cardiology",
		"phone":               "5551234567",
		"email":               "smith@example.com",
		"license_number":      "LIC-001",
		"years_of_experience": 12,
		"consultation_fee":    "150.00",
	}
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = a.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	ready := decode[ReadinessResponse](t, rec)
	assert.Equal(t, "ok", ready.Status)
	assert.Equal(t, "ok", ready.Dependencies["postgres"])

	a.postgres.err = errors.New("down")
	rec = a.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	a := newTestAPI(t)

	reg := a.register("Jane", "jane@users.test")
	assert.Equal(t, "User registered successfully", reg.Message)
	assert.Equal(t, "Jane Tester", reg.User.Name)
	assert.NotEmpty(t, reg.Tokens.Access)

	rec := a.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "jane@users.test", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authentication_failed", decode[ErrorResponse](t, rec).Error)

	rec = a.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "jane@users.test", "password": "s3cretpass",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[AuthResponse](t, rec)
	assert.Equal(t, reg.User.ID, login.User.ID)

	rec = a.do(http.MethodPost, "/api/auth/refresh", "", RefreshRequest{Refresh: login.Tokens.Refresh})
	require.Equal(t, http.StatusOK, rec.Code)
	refreshed := decode[AuthResponse](t, rec)

	rec = a.do(http.MethodPost, "/api/auth/refresh", "", RefreshRequest{Refresh: login.Tokens.Refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", decode[ErrorResponse](t, rec).Error)

	rec = a.do(http.MethodPost, "/api/auth/logout", "", RefreshRequest{Refresh: refreshed.Tokens.Refresh})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodPost, "/api/auth/refresh", "", RefreshRequest{Refresh: refreshed.Tokens.Refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister_Errors(t *testing.T) {
	a := newTestAPI(t)
	a.register("Jane", "jane@users.test")

	rec := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"first_name": "J", "last_name": "D", "email": "jane@users.test",
		"password": "s3cretpass", "password_confirm": "s3cretpass",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "email", body.Field)

	rec = a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"first_name": "J", "last_name": "D", "email": "j@users.test",
		"password": "s3cretpass", "password_confirm": "nope-nope",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body = decode[ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", body.Error)
	assert.Equal(t, "Passwords don't match.", body.Message)

	rec = a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"first_name": "J", "last_name": "D", "email": "long@users.test",
		"password": strings.Repeat("x", 80), "password_confirm": strings.Repeat("x", 80),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password", decode[ErrorResponse](t, rec).Field)

	rec = a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"first_name": "J", "last_name": "D", "email": "not-an-email",
		"password": "short", "password_confirm": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body = decode[ErrorResponse](t, rec)
	assert.Equal(t, "email", body.Field)
	assert.Equal(t, map[string]string{
		"email":    "Enter a valid email address.",
		"password": "Ensure this field has at least 8 characters.",
	}, body.Details)

	rec = a.do(http.MethodPost, "/api/auth/register", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request_body", decode[ErrorResponse](t, rec).Error)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodGet, "/api/patients", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing_token", decode[ErrorResponse](t, rec).Error)

	rec = a.do(http.MethodGet, "/api/patients", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", decode[ErrorResponse](t, rec).Error)

	reg := a.register("Jane", "jane@users.test")
	rec = a.do(http.MethodGet, "/api/patients", reg.Tokens.Refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPatientEndpoints(t *testing.T) {
	a := newTestAPI(t)
	u := a.register("Umar", "u@users.test")
	v := a.register("Vera", "v@users.test")

	rec := a.do(http.MethodPost, "/api/patients/", u.Tokens.Access, janeDoeBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	jane := decode[PatientResponse](t, rec)
	assert.Equal(t, u.User.ID, jane.CreatedBy)
	assert.Equal(t, "Umar Tester", jane.CreatedByName)
	assert.Equal(t, "F", jane.Gender)

	rec = a.do(http.MethodGet, "/api/patients", u.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]PatientResponse](t, rec), 1)

	rec = a.do(http.MethodGet, "/api/patients", v.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	path := "/api/patients/" + jane.ID.String()
	rec = a.do(http.MethodGet, path, v.Tokens.Access, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, rec).Error)

	rec = a.do(http.MethodPatch, path, u.Tokens.Access, map[string]any{"age": 31})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 31, decode[PatientResponse](t, rec).Age)

	body := janeDoeBody()
	body["phone"] = "12"
	rec = a.do(http.MethodPut, path, u.Tokens.Access, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "phone", decode[ErrorResponse](t, rec).Field)

	rec = a.do(http.MethodGet, "/api/patients/not-a-uuid", u.Tokens.Access, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodDelete, path, v.Tokens.Access, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodDelete, path, u.Tokens.Access, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDoctorEndpoints(t *testing.T) {
	a := newTestAPI(t)
	u := a.register("Umar", "u@users.test")
	v := a.register("Vera", "v@users.test")

	rec := a.do(http.MethodPost, "/api/doctors", u.Tokens.Access, drSmithBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	smith := decode[DoctorResponse](t, rec)
	assert.Equal(t, "150.00", smith.ConsultationFee)

	rec = a.do(http.MethodGet, "/api/doctors", v.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]DoctorResponse](t, rec), 1)

	rec = a.do(http.MethodPatch, "/api/doctors/"+smith.ID.String(), v.Tokens.Access,
		map[string]any{"consultation_fee": 175.5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "175.50", decode[DoctorResponse](t, rec).ConsultationFee)

	dup := drSmithBody()
	dup["email"] = "other@example.com"
	rec = a.do(http.MethodPost, "/api/doctors", v.Tokens.Access, dup)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "license_number", decode[ErrorResponse](t, rec).Field)

	rec = a.do(http.MethodDelete, "/api/doctors/"+smith.ID.String(), v.Tokens.Access, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(http.MethodGet, "/api/doctors/"+uuid.NewString(), v.Tokens.Access, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssignmentEndpoints(t *testing.T) {
	a := newTestAPI(t)
	u := a.register("Umar", "u@users.test")
	v := a.register("Vera", "v@users.test")

	rec := a.do(http.MethodPost, "/api/patients", u.Tokens.Access, janeDoeBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	jane := decode[PatientResponse](t, rec)

	rec = a.do(http.MethodPost, "/api/doctors", v.Tokens.Access, drSmithBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	smith := decode[DoctorResponse](t, rec)

	pair := CreateAssignmentRequest{Patient: jane.ID.String(), Doctor: smith.ID.String()}

	rec = a.do(http.MethodPost, "/api/mappings", v.Tokens.Access, pair)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "patient", decode[ErrorResponse](t, rec).Field)
	assert.Empty(t, a.records.AllAssignments())

	rec = a.do(http.MethodPost, "/api/mappings", u.Tokens.Access, pair)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	m := decode[AssignmentResponse](t, rec)
	assert.True(t, m.IsActive)
	assert.Equal(t, "Jane Doe", m.PatientName)
	assert.Equal(t, "Cardiology", m.DoctorSpecialization)

	rec = a.do(http.MethodPost, "/api/mappings", u.Tokens.Access, pair)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodPost, "/api/mappings", u.Tokens.Access,
		CreateAssignmentRequest{Patient: jane.ID.String(), Doctor: "7"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "doctor", decode[ErrorResponse](t, rec).Field)

	rec = a.do(http.MethodGet, "/api/mappings/patient/"+jane.ID.String(), u.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]AssignmentResponse](t, rec), 1)

	rec = a.do(http.MethodGet, "/api/mappings/patient/"+jane.ID.String(), v.Tokens.Access, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	path := "/api/mappings/" + m.ID.String()
	rec = a.do(http.MethodDelete, path, v.Tokens.Access, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodDelete, path, u.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	removed := decode[RemoveAssignmentResponse](t, rec)
	assert.Equal(t, "Doctor removed from patient successfully", removed.Message)
	assert.False(t, removed.Mapping.IsActive)
	assert.Equal(t, "inactive", removed.Mapping.Status)

	rec = a.do(http.MethodGet, "/api/mappings", u.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]AssignmentResponse](t, rec))

	rec = a.do(http.MethodGet, "/api/mappings/history", u.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]AssignmentResponse](t, rec)
	require.Len(t, history, 1)
	assert.Equal(t, m.ID, history[0].ID)

	rec = a.do(http.MethodGet, path, u.Tokens.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "inactive", decode[AssignmentResponse](t, rec).Status)
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	a := newTestAPI(t)
	u := a.register("Umar", "u@users.test")
	a.records.FailWith = errors.New("pq: connection reset by peer")

	rec := a.do(http.MethodGet, "/api/patients", u.Tokens.Access, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "internal_error", body.Error)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}
