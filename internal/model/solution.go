package model

import "time"

// Platform is the coding-practice site a solution was written for.
type Platform string

const (
	PlatformLeetCode   Platform = "LeetCode"
	PlatformGFG        Platform = "GFG"
	PlatformCodeforces Platform = "Codeforces"
)

// Platforms lists every accepted platform, in display order.
func Platforms() []Platform {
	return []Platform{PlatformLeetCode, PlatformGFG, PlatformCodeforces}
}

func (p Platform) Valid() bool {
	for _, known := range Platforms() {
		if p == known {
			return true
		}
	}
	return false
}

// Contributor is the expanded view of a solution's owner.
type Contributor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Solution is one published answer to a practice problem.
//
// Email is a snapshot of the contributor's email at creation time. Ownership
// is decided by ContributorID, and reads resolve Contributor through it.
type Solution struct {
	ID            string       `json:"id"`
	ContributorID string       `json:"contributorId"`
	Contributor   *Contributor `json:"contributor,omitempty"`
	Email         string       `json:"email"`
	Title         string       `json:"title"`
	Platform      Platform     `json:"platform"`
	Language      string       `json:"language"`
	CodeSnippet   string       `json:"codeSnippet"`
	Description   string       `json:"description,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// NewSolution is the input to CreateSolution.
type NewSolution struct {
	Email       string   `json:"email"       validate:"required,email,max=320"`
	Title       string   `json:"title"       validate:"required,max=200"`
	Platform    Platform `json:"platform"    validate:"required,platform"`
	Language    string   `json:"language"    validate:"required,max=50"`
	CodeSnippet string   `json:"codeSnippet" validate:"required,max=100000"`
	Description string   `json:"description" validate:"max=5000"`
}

// SolutionPatch replaces the supplied fields of a solution. Contributor and
// email are not patchable.
type SolutionPatch struct {
	Title       *string   `json:"title"       validate:"omitnil,min=1,max=200"`
	Platform    *Platform `json:"platform"    validate:"omitnil,platform"`
	Language    *string   `json:"language"    validate:"omitnil,min=1,max=50"`
	CodeSnippet *string   `json:"codeSnippet" validate:"omitnil,min=1,max=100000"`
	Description *string   `json:"description" validate:"omitnil,max=5000"`
}

func (p SolutionPatch) Empty() bool {
	return p.Title == nil && p.Platform == nil && p.Language == nil &&
		p.CodeSnippet == nil && p.Description == nil
}
