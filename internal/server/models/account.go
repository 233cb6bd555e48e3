// Package models defines server-side data models persisted in the database.
package models

import "time"

// Account is the single authenticating principal plus its profile.
type Account struct {
	ID             string
	Username       string
	Credential     string
	FailedAttempts int
	LockoutUntil   *time.Time

	Email            string
	Mobile           string
	PhotoKey         string
	PhotoContentType string
	UpdatedAt        *time.Time
}

// Profile is the sanitized projection of an Account returned to clients.
type Profile struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Mobile    string     `json:"mobile"`
	PhotoURL  string     `json:"photoUrl,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Profile drops the credential and guard state. PhotoURL is filled by the caller.
func (a *Account) Profile() Profile {
	return Profile{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Mobile:    a.Mobile,
		UpdatedAt: a.UpdatedAt,
	}
}

// ProfileUpdate carries the editable profile fields. Photo is optional.
type ProfileUpdate struct {
	Email  string
	Mobile string
	Photo  *Photo
}

// Photo is an uploaded image before it reaches object storage.
type Photo struct {
	ContentType string
	Data        []byte
}
