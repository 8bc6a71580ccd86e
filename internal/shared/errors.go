package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrStateMismatch       = fmt.Errorf("authorization state mismatch")
	ErrTokenExchangeFailed = fmt.Errorf("token exchange failed")
	ErrNotAuthenticated    = fmt.Errorf("not authenticated")
	ErrNoRefreshToken      = fmt.Errorf("no refresh token available")
	ErrRefreshFailed       = fmt.Errorf("token refresh failed")
	ErrTimeout             = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Daily pick errors
	ErrNoPick = fmt.Errorf("no eligible tracks in the scoring window")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
