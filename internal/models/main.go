// Package models defines the core data structures for users and profiles.
package models

// User represents a registered account as stored by the repository.
type User struct {
	// ID is the unique identifier for the user.
	ID string
	// Username is the login name chosen by the user (3-32 characters).
	Username string
	// Email is the unique contact address supplied at registration.
	Email string
	// Password is the plaintext credential. The service under test
	// deliberately stores and compares passwords without hashing.
	Password string
	// FullName is an optional display name; nil until set.
	FullName *string
	// Bio is optional free text; nil until set. The checker embeds the
	// round flag as the last token of this field.
	Bio *string
}

// Profile is the public view of a user returned by the profile endpoints.
type Profile struct {
	// Username is the account login name.
	Username string `json:"username"`
	// Email is the registered contact address.
	Email string `json:"email"`
	// FullName is the display name, or null if never set.
	FullName *string `json:"full_name"`
	// Bio is the free-text biography, or null if never set.
	Bio *string `json:"bio"`
}

// ProfileUpdate carries a partial profile change. A nil field is left
// untouched; a non-nil field overwrites the stored value, empty string
// included.
type ProfileUpdate struct {
	// FullName replaces the display name when non-nil.
	FullName *string `json:"full_name"`
	// Bio replaces the biography when non-nil.
	Bio *string `json:"bio"`
}
