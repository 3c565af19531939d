package models

const (
	AccessToken  = "access_token"
	RefreshToken = "refresh_token"
)

// Credentials is what a successful login returns. The refresh token goes
// straight into the secure store and is never kept in volatile state longer
// than the refresh call needs it.
type Credentials struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
