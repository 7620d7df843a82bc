// Package models holds the client-side views of API payloads.
package models

// AccountSummary is the public projection of an account returned by the API.
type AccountSummary struct {
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
}

// AvatarUpload describes a presigned slot for a new avatar image. The image
// is PUT to URL, then Key is committed back to the API.
type AvatarUpload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
