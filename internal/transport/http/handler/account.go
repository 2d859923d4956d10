package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-account-api/internal/application/account"
	"github.com/go-account-api/internal/domain"
	"github.com/go-account-api/internal/pkg/validate"
)

// AccountHandler exposes the email confirmation and password reset flows.
type AccountHandler struct {
	svc account.Service
}

func NewAccountHandler(svc account.Service) *AccountHandler {
	return &AccountHandler{svc: svc}
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// verifyEmailRequest optionally carries the caller's notion of "now" so
// clients with skewed clocks (and tests) get deterministic expiry decisions.
type verifyEmailRequest struct {
	account.ValidateCodeRequest
	CurrentTime *time.Time `json:"current_time"`
}

type resetPasswordRequest struct {
	account.ResetPasswordRequest
	CurrentTime *time.Time `json:"current_time"`
}

// Login checks credentials and tells the client what to do next. No token is
// issued; an unconfirmed user with a correct password is steered to
// verification instead of a dead end.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	user, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusOK, AuthMessage{
			ID:      "AC_LN_1",
			Name:    msgError,
			Message: "A user with this email does not exist",
		})
		return
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusOK, AuthMessage{
			ID:      "AC_LN_2",
			Name:    msgError,
			Message: "Password incorrect!",
		})
		return
	case err != nil:
		httpError(w, err)
		return
	}

	if !user.EmailConfirmed {
		writeJSON(w, http.StatusOK, AuthMessage{
			ID:      "AC_LN_2",
			Name:    msgInfo,
			Message: "Verify email to login",
		})
		return
	}
	writeJSON(w, http.StatusOK, AuthMessage{
		ID:      "AC_LN_3",
		Name:    msgSuccess,
		Message: "Login successful.",
	})
}

func (h *AccountHandler) SendEmailVerificationCode(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	codeID, err := h.svc.RequestEmailConfirmation(r.Context(), req.Email, time.Now().UTC())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CodeEnvelope{CodeID: codeID})
}

func (h *AccountHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	outcome, err := h.svc.ConfirmEmail(r.Context(), req.ValidateCodeRequest, requestTime(req.CurrentTime))
	if err != nil {
		httpError(w, err)
		return
	}
	if outcome != domain.OutcomeSuccess {
		writeOutcome(w, "AC_VL_2", outcome)
		return
	}
	writeJSON(w, http.StatusOK, AuthMessage{
		ID:      "AC_VL_1",
		Name:    msgSuccess,
		Message: "Email successfully verified.",
	})
}

func (h *AccountHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	codeID, err := h.svc.RequestPasswordReset(r.Context(), req.Email, time.Now().UTC())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CodeEnvelope{CodeID: codeID})
}

func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	outcome, err := h.svc.ResetPassword(r.Context(), req.ResetPasswordRequest, requestTime(req.CurrentTime))
	if err != nil {
		// The code is already consumed on a policy rejection; the client must
		// request a fresh one after fixing the password.
		httpError(w, err)
		return
	}
	if outcome != domain.OutcomeSuccess {
		writeOutcome(w, "AC_RD_1", outcome)
		return
	}
	writeJSON(w, http.StatusOK, AuthMessage{
		ID:      "AC_RD_2",
		Name:    msgSuccess,
		Message: "Password has been successfully reset.",
	})
}

// writeOutcome renders the non-success validation outcomes with distinct,
// user-actionable guidance.
func writeOutcome(w http.ResponseWriter, id string, outcome domain.Outcome) {
	switch outcome {
	case domain.OutcomeMismatch:
		writeJSON(w, http.StatusBadRequest, AuthMessage{
			ID: id, Name: msgError, Message: "This code is not valid!",
		})
	case domain.OutcomeExpired:
		writeJSON(w, http.StatusBadRequest, AuthMessage{
			ID: id, Name: msgError, Message: "This code has expired. Generate a new one",
		})
	default:
		writeJSON(w, http.StatusNotFound, AuthMessage{
			ID: id, Name: msgError, Message: "Code not found. Generate a new one",
		})
	}
}

func requestTime(t *time.Time) time.Time {
	if t != nil {
		return t.UTC()
	}
	return time.Now().UTC()
}
