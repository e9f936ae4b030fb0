package api

import (
	"net/http"

	"github.com/dd0wney/keygate/pkg/licensing"
)

// handleValidate decides the outcome for a (license key, fingerprint) pair.
// All four outcomes are HTTP 200 responses - clients branch on the status
// field, not on HTTP failure.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req licensing.ValidateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if req.LicenseKey == "" {
		s.respondError(w, http.StatusBadRequest, "license_key is required")
		return
	}

	result, err := s.engine.Validate(r.Context(), req.LicenseKey, req.DeviceFingerprint)
	if err != nil {
		s.respondDomainError(w, err, "validate")
		return
	}

	s.registry.RecordValidation(string(result.Status))

	resp := licensing.ValidateResponse{
		Status:   result.Status,
		Features: result.Features,
	}
	if !result.ExpiresOn.IsZero() {
		resp.ExpiresOn = result.ExpiresOn.Format("2006-01-02")
	}

	s.respondJSON(w, http.StatusOK, resp)
}
