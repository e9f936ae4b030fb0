package api

import (
	"net/http"
	"time"

	"github.com/dd0wney/keygate/pkg/validation"
)

// handleAdminLogin verifies the admin username/password pair. A missing
// password hash is a deployment mistake and fails closed with a 500.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req AdminLoginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Struct(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	authenticated, err := s.authn.VerifyLogin(req.Username, req.Password)
	if err != nil {
		s.respondDomainError(w, err, "admin login")
		return
	}

	if !authenticated {
		s.registry.RecordAuthFailure()
	}

	s.respondJSON(w, http.StatusOK, AdminLoginResponse{Authenticated: authenticated})
}

// handleLicenses lists all licenses (GET) or creates one (POST)
func (s *Server) handleLicenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListLicenses(w, r)
	case http.MethodPost:
		s.handleCreateLicense(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleListLicenses(w http.ResponseWriter, r *http.Request) {
	records, err := s.manager.List(r.Context())
	if err != nil {
		s.respondDomainError(w, err, "list licenses")
		return
	}

	s.registry.SetLicensesTotal(len(records))

	s.respondJSON(w, http.StatusOK, map[string]any{
		"licenses": records,
		"count":    len(records),
	})
}

func (s *Server) handleCreateLicense(w http.ResponseWriter, r *http.Request) {
	var req CreateLicenseRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Struct(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	license, err := s.manager.Create(r.Context(), req.ValidityDays, req.OwnerID)
	if err != nil {
		s.respondDomainError(w, err, "create license")
		return
	}

	s.registry.RecordAdminMutation("create")
	s.respondJSON(w, http.StatusCreated, license)
}

func (s *Server) handleExtendLicense(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req ExtendLicenseRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Struct(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	license, err := s.manager.Extend(r.Context(), req.LicenseKey, req.AdditionalDays)
	if err != nil {
		s.respondDomainError(w, err, "extend license")
		return
	}

	s.registry.RecordAdminMutation("extend")
	s.respondJSON(w, http.StatusOK, license)
}

func (s *Server) handleSetExpiry(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req SetExpiryRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Struct(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	expiresOn, err := time.Parse("2006-01-02", req.ExpiresOn)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "expires_on must be a YYYY-MM-DD date")
		return
	}

	license, err := s.manager.SetExpiry(r.Context(), req.LicenseKey, expiresOn)
	if err != nil {
		s.respondDomainError(w, err, "set expiry")
		return
	}

	s.registry.RecordAdminMutation("set_expiry")
	s.respondJSON(w, http.StatusOK, license)
}

// handleSetDevice overwrites or clears the bound device. This is the
// administrative override that bypasses the one-bind-only rule.
func (s *Server) handleSetDevice(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req SetDeviceRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Struct(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var license any
	var err error
	if req.DeviceFingerprint == "" {
		license, err = s.manager.ClearDevice(r.Context(), req.LicenseKey)
	} else {
		license, err = s.manager.SetDevice(r.Context(), req.LicenseKey, req.DeviceFingerprint)
	}
	if err != nil {
		s.respondDomainError(w, err, "set device")
		return
	}

	s.registry.RecordAdminMutation("set_device")
	s.respondJSON(w, http.StatusOK, license)
}

func (s *Server) handleReplaceFeatures(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req ReplaceFeaturesRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Struct(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateFeatureNames(req.Features); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	granted, err := s.manager.ReplaceFeatures(r.Context(), req.LicenseKey, req.Features)
	if err != nil {
		s.respondDomainError(w, err, "replace features")
		return
	}

	s.registry.RecordAdminMutation("replace_features")
	s.respondJSON(w, http.StatusOK, map[string]any{"features": granted})
}

func (s *Server) handleDeleteLicense(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}

	var req DeleteLicenseRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Struct(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.manager.Delete(r.Context(), req.LicenseKey); err != nil {
		s.respondDomainError(w, err, "delete license")
		return
	}

	s.registry.RecordAdminMutation("delete")
	s.respondJSON(w, http.StatusOK, map[string]any{"deleted": req.LicenseKey})
}
