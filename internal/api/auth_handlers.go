package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-records/internal/auth"
)

func registerHandler(svc *auth.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RegisterInput
		if !decodeJSON(w, r, &req) {
			return
		}

		res, err := svc.Register(r.Context(), req)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, newAuthResponse("User registered successfully", res))
	}
}

func loginHandler(svc *auth.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginInput
		if !decodeJSON(w, r, &req) {
			return
		}

		res, err := svc.Login(r.Context(), req)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, newAuthResponse("Login successful", res))
	}
}

func refreshHandler(svc *auth.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Refresh == "" {
			writeFieldError(w, http.StatusBadRequest, "validation_error", "refresh", "This field is required.")
			return
		}

		res, err := svc.Refresh(r.Context(), req.Refresh)
		if err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, newAuthResponse("Token refreshed", res))
	}
}

func logoutHandler(svc *auth.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Refresh == "" {
			writeFieldError(w, http.StatusBadRequest, "validation_error", "refresh", "This field is required.")
			return
		}

		if err := svc.Logout(r.Context(), req.Refresh); err != nil {
			writeServiceError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
	}
}
