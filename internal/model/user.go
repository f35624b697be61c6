// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, composed rather than inherited.
package model

import "time"

// User represents a registered player.
//
// The email is the identity key: it is what the bearer token carries and what
// every other record uses as its owner field. Users are created on the first
// successful Google exchange and re-synced (name, picture) on later logins.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	ProfilePicURL string    `json:"profile_pic_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UserSummary is the public view of another user (friends, requests).
type UserSummary struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	ProfilePicURL string `json:"profile_pic_url"`
}

// Summary strips the bookkeeping fields.
func (u *User) Summary() UserSummary {
	return UserSummary{Email: u.Email, Name: u.Name, ProfilePicURL: u.ProfilePicURL}
}

// Suggestion is an append-only piece of feedback.
type Suggestion struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Suggestion string    `json:"suggestion"`
	CreatedAt  time.Time `json:"created_at"`
}
