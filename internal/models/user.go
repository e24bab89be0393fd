package models

// User represents an account record. PasswordHash holds the bcrypt
// digest; it never leaves the API except through the user listing
// route, which exposes it for wire compatibility with the original
// service.
type User struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
}
