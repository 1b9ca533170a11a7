package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codinggeeks/api/internal/apperror"
)

type recordedRequest struct {
	Path     string
	Key      string
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

// newFakeGemini answers generateContent with status and body, recording the
// last request it saw.
func newFakeGemini(t *testing.T, status int, body string) (*Gemini, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.Path = r.URL.Path
		rec.Key = r.URL.Query().Get("key")
		if r.Header.Get("X-Goog-Api-Key") != "" {
			rec.Key = r.Header.Get("X-Goog-Api-Key")
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(rec))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	g, err := NewGemini(context.Background(), "test-key", "", logger, WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)
	return g, rec
}

func TestGenerate_ReturnsFirstText(t *testing.T) {
	g, rec := newFakeGemini(t, http.StatusOK, `{
		"candidates": [
			{"content": {"role": "model", "parts": [{"text": "Use a hash map."}]}},
			{"content": {"role": "model", "parts": [{"text": "ignored"}]}}
		]
	}`)

	reply, err := g.Generate(context.Background(), []Message{
		{Role: "user", Text: "How do I solve two sum?"},
		{Role: "assistant", Text: "Which language?"},
		{Role: "USER", Text: "Go"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Use a hash map.", reply)

	assert.True(t, strings.HasSuffix(rec.Path, "models/"+DefaultModel+":generateContent"), "path = %s", rec.Path)
	assert.Equal(t, "test-key", rec.Key)
	require.Len(t, rec.Contents, 3)
	assert.Equal(t, []string{"user", "model", "user"},
		[]string{rec.Contents[0].Role, rec.Contents[1].Role, rec.Contents[2].Role})
	assert.Equal(t, "Go", rec.Contents[2].Parts[0].Text)
}

func TestGenerate_NoCandidatesUsesDefault(t *testing.T) {
	for name, body := range map[string]string{
		"no candidates": `{"candidates": []}`,
		"no content":    `{"candidates": [{"finishReason": "SAFETY"}]}`,
		"empty parts":   `{"candidates": [{"content": {"parts": []}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			g, _ := newFakeGemini(t, http.StatusOK, body)
			reply, err := g.Generate(context.Background(), []Message{{Role: "user", Text: "hi"}})
			require.NoError(t, err)
			assert.Equal(t, DefaultReply, reply)
		})
	}
}

func TestGenerate_UpstreamError(t *testing.T) {
	g, _ := newFakeGemini(t, http.StatusInternalServerError, `{"error": {"code": 500, "message": "boom"}}`)

	_, err := g.Generate(context.Background(), []Message{{Role: "user", Text: "hi"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrUpstream), "err = %v", err)
	assert.Equal(t, "failed to connect with Gemini", err.Error())
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "", slog.Default())
	assert.Error(t, err)
}

func TestModelRole(t *testing.T) {
	tests := map[string]string{
		"user":      RoleUser,
		" User ":    RoleUser,
		"model":     RoleModel,
		"assistant": RoleModel,
		"":          RoleModel,
	}
	for in, want := range tests {
		assert.Equal(t, want, modelRole(in), "modelRole(%q)", in)
	}
}
