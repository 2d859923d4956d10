package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-account-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthMessage is the client-facing envelope for account flows. The stable Id
// lets the frontend branch without parsing the message text; Name is one of
// "success", "info" or "error".
type AuthMessage struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Message string   `json:"message"`
	Reasons []string `json:"reasons,omitempty"`
}

const (
	msgSuccess = "success"
	msgInfo    = "info"
	msgError   = "error"
)

// CodeEnvelope returns the non-secret code id of an issued verification code.
// The code value itself travels out-of-band through the notifier.
type CodeEnvelope struct {
	CodeID int `json:"code_id"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain errors to HTTP responses without leaking internals.
func httpError(w http.ResponseWriter, err error) {
	var policyErr *domain.CredentialPolicyError
	var deliveryErr *domain.DeliveryError
	switch {
	case errors.As(err, &policyErr):
		writeJSON(w, http.StatusBadRequest, AuthMessage{
			ID:      "AC_PW",
			Name:    msgError,
			Message: strings.Join(policyErr.Reasons, ", "),
			Reasons: policyErr.Reasons,
		})
	case errors.As(err, &deliveryErr):
		writeError(w, http.StatusBadGateway, "the code could not be delivered; please request it again")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad request")
	default:
		writeError(w, http.StatusInternalServerError, "something went wrong, please try again later")
	}
}
