package appErrors

import (
	"encoding/json"
	"errors"
	"net/http"
)

type body struct {
	Error payload `json:"error"`
}

type payload struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []Detail `json:"details,omitempty"`
}

// WriteHTTP renders err as a JSON error response. Errors that carry no Kind
// are reported as a generic internal error and WriteHTTP returns true so the
// caller can log the cause.
func WriteHTTP(w http.ResponseWriter, err error) (internal bool) {
	p := payload{Code: string(KindInternal), Message: "internal error"}
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		p = payload{Code: string(e.Kind), Message: e.Message, Details: e.Details}
	} else {
		internal = true
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(body{Error: p})
	return internal
}

// WriteBadRequest reports a request that could not be decoded.
func WriteBadRequest(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(body{Error: payload{Code: "bad_request", Message: message}})
}
