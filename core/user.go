package core

import "time"

// placeholderPrefixLen counts runes, not bytes
const placeholderPrefixLen = 8

// placeholderUser builds the unverified identity stored on first sight of an ID
func placeholderUser(id string, now time.Time) *User {
	prefix := id
	if runes := []rune(id); len(runes) > placeholderPrefixLen {
		prefix = string(runes[:placeholderPrefixLen])
	}

	return &User{
		ID:        id,
		Name:      "User " + prefix,
		Email:     prefix + "@example.com",
		CreatedAt: now,
	}
}

// profileUser prefers profile details and falls back to the placeholder per field
func profileUser(id string, profile *Profile, now time.Time) *User {
	u := placeholderUser(id, now)
	if profile == nil {
		return u
	}
	if profile.Name != "" {
		u.Name = profile.Name
	}
	if profile.Email != "" {
		u.Email = profile.Email
	}
	return u
}
