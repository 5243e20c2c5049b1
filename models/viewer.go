// ABOUTME: Viewer identity as consumed by the sync and sharing layers
// ABOUTME: Supplied by the identity provider and treated as read-only input
package models

// Viewer is the currently authenticated user.
type Viewer struct {
	UID           string `json:"uid"`
	IsAdmin       bool   `json:"isAdmin"`
	IsSystemAdmin bool   `json:"isSystemAdmin"`
	DisplayName   string `json:"displayName,omitempty"`
	Email         string `json:"email,omitempty"`
}

// Authenticated reports whether the viewer has an identity.
func (v Viewer) Authenticated() bool {
	return v.UID != ""
}

// Privileged reports whether the viewer bypasses ownership checks.
func (v Viewer) Privileged() bool {
	return v.IsAdmin || v.IsSystemAdmin
}
