// Package model defines the data structures used throughout the application.
package model

import (
	"strings"
	"time"
)

// User is one member of the community, keyed externally by email.
//
// The internal ID is an xid generated by the store. Solutions reference it,
// never the email, so a user is always resolved before their contributions
// are read.
type User struct {
	ID          string    `json:"id"                    db:"id"`
	Email       string    `json:"email"                 db:"email"`
	Name        string    `json:"name"                  db:"name"`
	AvatarURL   string    `json:"avatarUrl,omitempty"   db:"avatar_url"`
	Description string    `json:"description,omitempty" db:"description"`
	LeetCode    string    `json:"leetcode,omitempty"    db:"leetcode"`
	GFG         string    `json:"gfg,omitempty"         db:"gfg"`
	GitHub      string    `json:"github,omitempty"      db:"github"`
	LinkedIn    string    `json:"linkedin,omitempty"    db:"linkedin"`
	CreatedAt   time.Time `json:"createdAt"             db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"             db:"updated_at"`
}

// NewUser is the input to EnsureUser. Name is only required when the user
// does not exist yet; the service checks that itself.
type NewUser struct {
	Name        string `json:"name"        validate:"max=100"`
	Email       string `json:"email"       validate:"required,email,max=320"`
	AvatarURL   string `json:"avatarUrl"   validate:"omitempty,url,max=2048"`
	Description string `json:"description" validate:"max=2000"`
	LeetCode    string `json:"leetcode"    validate:"max=2000"`
	GFG         string `json:"gfg"         validate:"max=2000"`
	GitHub      string `json:"github"      validate:"max=2000"`
	LinkedIn    string `json:"linkedin"    validate:"max=2000"`
}

// UserPatch is a partial profile update. A nil field keeps its stored value;
// a non-nil empty string clears it (except Name, which may not be blank).
type UserPatch struct {
	Name        *string `json:"name"        validate:"omitnil,min=1,max=100"`
	AvatarURL   *string `json:"avatarUrl"   validate:"omitnil,max=2048"`
	Description *string `json:"description" validate:"omitnil,max=2000"`
	LeetCode    *string `json:"leetcode"    validate:"omitnil,max=2000"`
	GFG         *string `json:"gfg"         validate:"omitnil,max=2000"`
	GitHub      *string `json:"github"      validate:"omitnil,max=2000"`
	LinkedIn    *string `json:"linkedin"    validate:"omitnil,max=2000"`
}

// Empty reports whether the patch would change nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.AvatarURL == nil && p.Description == nil &&
		p.LeetCode == nil && p.GFG == nil && p.GitHub == nil && p.LinkedIn == nil
}

// NormalizeEmail is applied to every email on the way in, both for writes
// and lookups, so two spellings differing only in case name the same user.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
