package domain

import "time"

// ProfileRecord is the subset of the Graph user resource returned by /me.
type ProfileRecord struct {
	BusinessPhones    []string `json:"businessPhones"`
	DisplayName       string   `json:"displayName"`
	GivenName         string   `json:"givenName"`
	JobTitle          string   `json:"jobTitle"`
	Mail              string   `json:"mail"`
	MobilePhone       string   `json:"mobilePhone"`
	OfficeLocation    string   `json:"officeLocation"`
	PreferredLanguage string   `json:"preferredLanguage"`
	Surname           string   `json:"surname"`
	UserPrincipalName string   `json:"userPrincipalName"`
	ID                string   `json:"id"`
}

// Photo is a fetched profile photo body.
type Photo struct {
	ContentType string
	Data        []byte
}

// PhotoRef is a session-local URL that serves a stored Photo.
type PhotoRef string

// StatePayload is the data carried in the signed OAuth state parameter.
type StatePayload struct {
	SessionID  string    `json:"sid"`
	ReturnPath string    `json:"ret"`
	Nonce      string    `json:"nce"`
	ExpiresAt  time.Time `json:"-"`
}

// SessionCookie is the data sealed inside the session cookie (AES-GCM).
type SessionCookie struct {
	SessionID string    `json:"sid"`
	ExpiresAt time.Time `json:"exp"`
}
