// Package models defines the server-side records persisted in PostgreSQL.
package models

import "time"

// User is a registered shopper. PasswordHash holds a bcrypt hash; the clear
// password never reaches this struct.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
