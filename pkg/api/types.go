package api

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// CreateLicenseRequest issues a fresh license
type CreateLicenseRequest struct {
	ValidityDays int    `json:"validity_days" validate:"required,gt=0"`
	OwnerID      string `json:"owner_id" validate:"omitempty,max=200"`
}

// ExtendLicenseRequest shifts an expiry by a day count (negative shortens)
type ExtendLicenseRequest struct {
	LicenseKey     string `json:"license_key" validate:"required"`
	AdditionalDays int    `json:"additional_days" validate:"required"`
}

// SetExpiryRequest overwrites an expiry date outright
type SetExpiryRequest struct {
	LicenseKey string `json:"license_key" validate:"required"`
	ExpiresOn  string `json:"expires_on" validate:"required"` // YYYY-MM-DD
}

// SetDeviceRequest overwrites the bound device. An empty fingerprint clears
// the binding.
type SetDeviceRequest struct {
	LicenseKey        string `json:"license_key" validate:"required"`
	DeviceFingerprint string `json:"device_fingerprint"`
}

// ReplaceFeaturesRequest swaps the full feature grant set for a license
// (or its tier bucket in tier-mode deployments)
type ReplaceFeaturesRequest struct {
	LicenseKey string   `json:"license_key" validate:"required"`
	Features   []string `json:"features"`
}

// DeleteLicenseRequest removes a license and its grants
type DeleteLicenseRequest struct {
	LicenseKey string `json:"license_key" validate:"required"`
}

// AdminLoginRequest carries the admin username/password pair
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AdminLoginResponse reports whether the credentials matched
type AdminLoginResponse struct {
	Authenticated bool `json:"authenticated"`
}
