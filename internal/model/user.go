// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// WHY `json:"-"` ON PasswordHash?
// The dash tells encoding/json to NEVER serialize this field. Even if a
// handler accidentally encodes a full User, the bcrypt hash stays out of the
// response. Defense at the type level beats remembering to strip it in every
// handler.
//
// Username and Email both carry UNIQUE constraints in the database — the
// repository translates constraint violations into apperror.Conflict.
type User struct {
	ID           string    `json:"id"       db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email"    db:"email"`
	PasswordHash string    `json:"-"        db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
