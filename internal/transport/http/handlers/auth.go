package handlers

import (
	"errors"
	"net/http"

	"github.com/bookme/auth-service/internal/application/auth"
	"github.com/bookme/auth-service/internal/domain"
	"github.com/bookme/auth-service/internal/metrics"
	"github.com/bookme/auth-service/internal/transport/http/dto"
	"github.com/bookme/auth-service/internal/transport/http/middleware"
	"github.com/bookme/auth-service/internal/transport/http/response"
)

type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// outcome converts an operation result into a bounded metrics label.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "internal_error"
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	msg, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	metrics.RecordAuthOperation("register", outcome(err))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.Created(w, dto.MessageResponse{Message: msg})
}

func (h *AuthHandler) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyOtpRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	msg, err := h.svc.VerifyOtp(r.Context(), req.Email, req.Otp)
	metrics.RecordAuthOperation("verify_otp", outcome(err))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.MessageResponse{Message: msg})
}

func (h *AuthHandler) ResendOtp(w http.ResponseWriter, r *http.Request) {
	var req dto.ResendOtpRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	msg, err := h.svc.ResendOtp(r.Context(), req.Email)
	metrics.RecordAuthOperation("resend_otp", outcome(err))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.MessageResponse{Message: msg})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Username, req.Password)
	metrics.RecordAuthOperation("login", outcome(err))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.ToAuthResponse(res))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	metrics.RecordAuthOperation("refresh", outcome(err))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.ToAuthResponse(res))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	msg, err := h.svc.Logout(r.Context(), req.RefreshToken)
	metrics.RecordAuthOperation("logout", outcome(err))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.MessageResponse{Message: msg})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.UsernameFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenInvalid())
		return
	}

	u, err := h.svc.Me(r.Context(), username)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, dto.ToUserResponse(u))
}
