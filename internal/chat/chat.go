// Package chat forwards a conversation to a generative-text model and
// returns its reply. The chat widget is a pass-through: nothing here is
// stored, and the model sees only what the client sends.
package chat

import (
	"context"
	"strings"
)

// DefaultReply is returned when the model answers without any text.
const DefaultReply = "No response from Gemini."

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one turn of the conversation as the client sends it.
type Message struct {
	Role string `json:"role" validate:"required"`
	Text string `json:"text" validate:"required,max=20000"`
}

// Generator produces the next reply for a conversation.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// modelRole maps client roles onto the two the model API accepts. Anything
// that is not the user is treated as an earlier model turn.
func modelRole(role string) string {
	if strings.EqualFold(strings.TrimSpace(role), RoleUser) {
		return RoleUser
	}
	return RoleModel
}
