package models

import "time"

// TokenResponse is returned by the staff token endpoint.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	TokenID     string    `json:"token_id"`
	IssuedAt    time.Time `json:"issued_at"`
}
