package api

import "time"

// ClientAuthRequest is the body of POST /api/v1/clients/auth.
type ClientAuthRequest struct {
	ClientID string `json:"client_id"`
	Secret   string `json:"secret"`
}

// ClientAuthResponse carries the issued session token.
type ClientAuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// EnrollResponse reports a completed enrollment.
type EnrollResponse struct {
	Speaker       string `json:"speaker"`
	EnrolledClips int    `json:"enrolled_clips"`
}

// ErrorResponse is the standard REST error shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
