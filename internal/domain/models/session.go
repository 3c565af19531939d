package models

// Session is the in-memory logged-in state. Mutated only by a successful
// login, a successful refresh, an earnings fetch, or a logout (reset to zero
// value). A non-empty AccessToken implies a refresh token is persisted in the
// secure store, otherwise the next authenticated call fails with an
// authentication error.
type Session struct {
	Name        string
	Email       string
	AccessToken string
	Earnings    int
}

// LoggedIn reports whether the session carries an access token.
func (s Session) LoggedIn() bool {
	return s.AccessToken != ""
}
