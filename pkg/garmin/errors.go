package garmin

import "errors"

// Sentinel errors for the vendor pipeline. Fatal ones abort the whole sync run;
// sleep-path errors are logged and absorbed by the caller.
var (
	ErrMissingCredentials = errors.New("garmin email and password are required")
	ErrCsrfMissing        = errors.New("csrf token not found in signin page")
	ErrUnsupportedMFA     = errors.New("MFA is enabled on this garmin account; disable it or use app-based auth")
	ErrLoginRejected      = errors.New("garmin login rejected")
	ErrTicketExtraction   = errors.New("could not extract ticket from garmin response")
	ErrTokenExchange      = errors.New("garmin oauth token exchange failed")
	ErrWeightFetch        = errors.New("garmin weight fetch failed")
)
