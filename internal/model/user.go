// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Most accounts are local: a username plus a bcrypt hash. Accounts created
// through GitHub sign-in carry the GitHub numeric ID instead and have an
// empty PasswordHash, which never verifies, so such users can't use the
// password form.
//
// WHY GitHubID int64?
// GitHub user IDs are integers (e.g. 1234567). Zero means "not linked"; the
// repository stores it as NULL so the UNIQUE constraint only applies to
// linked accounts.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	PasswordHash string    `json:"-"         db:"password_hash"` // never serialised
	GitHubID     int64     `json:"githubId"  db:"github_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
