package api

// PasswordAuthRequest is the body of POST /api/v1/auth/password.
// ShioriID identifies the itinerary the caller wants to edit.
type PasswordAuthRequest struct {
	ShioriID string `json:"shioriId"`
	Password string `json:"password"`
}

// PasswordAuthResponse carries the capability token issued on success.
// The token authorizes edits to exactly one itinerary until it expires.
type PasswordAuthResponse struct {
	Token string `json:"token"`
}
