package messages

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneratorComplete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Bună ziua, Ion!  "}}]}`))
	}))
	defer srv.Close()

	g := NewGenerator(GeneratorConfig{BaseURL: srv.URL + "/", APIKey: "sk-test", Model: "gpt-test"})
	text, err := g.Complete(context.Background(), "system", "prompt")
	require.NoError(t, err)
	require.Equal(t, "Bună ziua, Ion!", text)
	require.Equal(t, "gpt-test", got.Model)
	require.Equal(t, 0.7, got.Temperature)
	require.Equal(t, 500, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	require.Equal(t, "system", got.Messages[0].Role)
}

func TestGeneratorAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	g := NewGenerator(GeneratorConfig{BaseURL: srv.URL})
	_, err := g.Complete(context.Background(), "system", "prompt")
	require.ErrorIs(t, err, ErrGeneration)
	require.ErrorContains(t, err, "invalid api key")
}

func TestGeneratorEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewGenerator(GeneratorConfig{BaseURL: srv.URL}).Complete(context.Background(), "s", "p")
	require.ErrorIs(t, err, ErrGeneration)
}
