package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/codinggeeks/api/internal/chat"
	"github.com/codinggeeks/api/internal/validation"
)

// ChatHandler forwards the chat widget's conversation to the model.
type ChatHandler struct {
	gen      chat.Generator // nil when no API key is configured
	validate *validator.Validate
	logger   *slog.Logger
}

func NewChatHandler(gen chat.Generator, validate *validator.Validate, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{gen: gen, validate: validate, logger: logger}
}

type ChatRequest struct {
	Messages []chat.Message `json:"messages" validate:"required,min=1,max=100,dive"`
}

type ChatResponse struct {
	Text string `json:"text"`
}

// HandleChat answers with the model's next turn.
//
// HTTP: POST /api/gemini
// BODY: {"messages": [{"role": "user", "text": "..."}]}
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if h.gen == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error: "chat is not configured",
			Code:  "unavailable",
		})
		return
	}

	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, validation.Error(err))
		return
	}

	text, err := h.gen.Generate(r.Context(), req.Messages)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.logger.Debug("chat reply generated", slog.Int("turns", len(req.Messages)))
	writeJSON(w, http.StatusOK, ChatResponse{Text: text})
}
