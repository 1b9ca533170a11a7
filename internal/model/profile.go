package model

// ProfileBundle is a user together with everything they contributed.
type ProfileBundle struct {
	User      *User      `json:"user"`
	Solutions []Solution `json:"solutions"`
}
