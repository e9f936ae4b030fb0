package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dd0wney/keygate/pkg/auth"
	"github.com/dd0wney/keygate/pkg/licensing"
	"github.com/dd0wney/keygate/pkg/logging"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("error encoding JSON response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	s.respondJSON(w, status, response)
}

// respondDomainError maps the error taxonomy onto HTTP statuses. Internal
// errors are logged in full but surface as a generic message.
func (s *Server) respondDomainError(w http.ResponseWriter, err error, operation string) {
	var validationErr *licensing.ValidationError
	var configErr *licensing.ConfigurationError

	switch {
	case licensing.IsNotFound(err):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validationErr):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, licensing.ErrForbidden), errors.Is(err, auth.ErrForbidden):
		s.respondError(w, http.StatusForbidden, "forbidden")
	case errors.As(err, &configErr), errors.Is(err, auth.ErrNotConfigured):
		s.logger.Error("configuration error", logging.Operation(operation), logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "server misconfigured")
	default:
		s.logger.Error("internal error", logging.Operation(operation), logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, operation+" failed")
	}
}

// decodeJSON decodes the request body, responding 400 on malformed input.
// Returns false when the response has already been written.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// requirePost rejects any method other than POST
func (s *Server) requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}
