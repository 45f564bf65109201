package models

import "strconv"

// User is an account row. Locked users authenticate successfully at the
// password level but are rejected before any token is minted.
type User struct {
	ID           int64
	Username     string
	Name         string
	PasswordHash string
	Locked       bool
	Roles        []string
}

// Subject is the token subject for this user.
func (u *User) Subject() string {
	return strconv.FormatInt(u.ID, 10)
}
