// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"strings"
	"time"
)

// Snippet represents a saved piece of code owned by exactly one user.
//
// Tags are stored lower-cased, in the order the user typed them. The struct
// tags mirror the column names so logs and JSON dumps read the same as the DB.
type Snippet struct {
	ID        string    `json:"id"        db:"id"`
	Title     string    `json:"title"     db:"title"`
	Language  string    `json:"language"  db:"language"`
	Content   string    `json:"content"   db:"content"`
	Tags      []string  `json:"tags"`
	UserID    string    `json:"userId"    db:"user_id"` // owning User.ID, required
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// TagList joins the tags back into the comma-separated form used by the
// add/edit forms, so an unchanged edit round-trips to the same tags.
func (s Snippet) TagList() string {
	return strings.Join(s.Tags, ", ")
}

// ParseTags turns the comma-delimited form input into normalized tags.
//
// Each fragment is trimmed and lower-cased. Empty fragments are dropped, so
// "" yields no tags and " Foo, ,BAR " yields ["foo", "bar"].
func ParseTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tag := NormalizeTag(p)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// NormalizeTag applies the same normalization to a single tag, e.g. the
// ?tag= filter on the list page.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
