package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reelsync/internal/catalog"
	"reelsync/internal/services/gemini"
)

func newServer(t *testing.T, payload string, capture *http.Request) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			*capture = *r
		}
		response := map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"parts": []map[string]any{{"text": payload}},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestParseFullNameDecodesComponents(t *testing.T) {
	var captured http.Request
	server := newServer(t, `{"first_name": "Grace", "middle_name": "Brewster", "last_name": "Hopper"}`, &captured)
	client := gemini.NewClient("key", gemini.WithBaseURL(server.URL), gemini.WithModel("test-model"))

	name, err := client.ParseFullName(context.Background(), "Grace Brewster Hopper")
	if err != nil {
		t.Fatalf("ParseFullName: %v", err)
	}
	want := catalog.PersonName{First: "Grace", Middle: "Brewster", Last: "Hopper"}
	if name != want {
		t.Fatalf("name = %+v, want %+v", name, want)
	}

	if !strings.Contains(captured.URL.Path, "models/test-model:generateContent") {
		t.Fatalf("unexpected path %q", captured.URL.Path)
	}
	if captured.Header.Get("x-goog-api-key") != "key" {
		t.Fatal("api key header not set")
	}
}

func TestParseFullNameMapsUnknownToEmpty(t *testing.T) {
	server := newServer(t, `{"first_name": "Milton", "middle_name": "unknown", "last_name": "Davila"}`, nil)
	client := gemini.NewClient("key", gemini.WithBaseURL(server.URL))

	name, err := client.ParseFullName(context.Background(), "Milton Davila")
	if err != nil {
		t.Fatalf("ParseFullName: %v", err)
	}
	if name.Middle != "" {
		t.Fatalf("middle = %q, want empty", name.Middle)
	}
	if name.First != "Milton" || name.Last != "Davila" {
		t.Fatalf("name = %+v", name)
	}
}

func TestParseFullNameRequiresInput(t *testing.T) {
	client := gemini.NewClient("key")
	if _, err := client.ParseFullName(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestInferDirectorsReturnsNames(t *testing.T) {
	server := newServer(t, `{"directors": "Lana Wachowski, Lilly Wachowski"}`, nil)
	client := gemini.NewClient("key", gemini.WithBaseURL(server.URL))

	directors, err := client.InferDirectors(context.Background(), gemini.TitleContext{
		Type:        "Movie",
		Title:       "The Matrix",
		Cast:        "Keanu Reeves",
		Country:     "United States",
		ReleaseYear: 1999,
	})
	if err != nil {
		t.Fatalf("InferDirectors: %v", err)
	}
	if directors != "Lana Wachowski, Lilly Wachowski" {
		t.Fatalf("directors = %q", directors)
	}
}

func TestInferDirectorsMapsUnknownToEmpty(t *testing.T) {
	server := newServer(t, `{"directors": "unknown"}`, nil)
	client := gemini.NewClient("key", gemini.WithBaseURL(server.URL))

	directors, err := client.InferDirectors(context.Background(), gemini.TitleContext{Title: "Obscure Short"})
	if err != nil {
		t.Fatalf("InferDirectors: %v", err)
	}
	if directors != "" {
		t.Fatalf("directors = %q, want empty", directors)
	}
}

func TestClientSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)
	client := gemini.NewClient("key", gemini.WithBaseURL(server.URL))

	if _, err := client.ParseFullName(context.Background(), "Grace Hopper"); err == nil {
		t.Fatal("expected error on http failure")
	}
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": {"message": "invalid model"}}`))
	}))
	t.Cleanup(server.Close)
	client := gemini.NewClient("key", gemini.WithBaseURL(server.URL))

	_, err := client.InferDirectors(context.Background(), gemini.TitleContext{Title: "Anything"})
	if err == nil || !strings.Contains(err.Error(), "invalid model") {
		t.Fatalf("err = %v, want api error", err)
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	client := gemini.NewClient("")
	if _, err := client.ParseFullName(context.Background(), "Grace Hopper"); err == nil {
		t.Fatal("expected error without api key")
	}
}
