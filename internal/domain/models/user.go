package models

// User is a registered rider account as the dev backend keeps it.
type User struct {
	Name     string
	Email    string
	Earnings int

	passwordHash string
}

func (u *User) SetPasswordHash(hash string) {
	u.passwordHash = hash
}

func (u *User) PasswordHash() string {
	return u.passwordHash
}
