package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/postforge/internal/clients"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		APIKey:  "test-key",
		Model:   "gemini-test",
		BaseURL: server.URL,
	})
}

// modelText wraps text into the generateContent response envelope.
func modelText(text string) string {
	payload, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	})
	return string(payload)
}

func TestGenerate(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Fatalf("expected api key header")
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 1 {
			t.Fatalf("expected a single prompt part")
		}

		calls++
		switch calls {
		case 1:
			if !strings.Contains(req.Contents[0].Parts[0].Text, "atendimento automatizado") {
				t.Fatalf("topic hint missing from idea prompt")
			}
			fmt.Fprint(w, modelText(`{"topic":"5 razões para automatizar atendimento","angle":"menos fila, mais matrículas","hook":"Seu lead chegou às 23h?"}`))
		case 2:
			if !strings.Contains(req.Contents[0].Parts[0].Text, "5 razões para automatizar atendimento") {
				t.Fatalf("topic missing from caption prompt")
			}
			fmt.Fprint(w, modelText("```json\n{\"title\":\"5 razões\",\"caption\":\"👉 Saiba mais\",\"hashtags\":[\"educacao\",\"#iaeducacao\"],\"image_query\":\"university students laptop copy space left\"}\n```"))
		default:
			t.Fatalf("unexpected extra call %d", calls)
		}
	})

	post, err := client.Generate(context.Background(), "atendimento automatizado")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if post.Topic != "5 razões para automatizar atendimento" {
		t.Errorf("Topic = %q", post.Topic)
	}
	if post.Kicker != "Seu lead chegou às 23h?" {
		t.Errorf("Kicker = %q, want idea hook", post.Kicker)
	}
	if post.Subtitle != "menos fila, mais matrículas" {
		t.Errorf("Subtitle = %q, want idea angle", post.Subtitle)
	}
	if want := "👉 Saiba mais\n\n#educacao #iaeducacao"; post.Caption != want {
		t.Errorf("Caption = %q, want %q", post.Caption, want)
	}
	if post.ImageQuery != "university students laptop copy space left" {
		t.Errorf("ImageQuery = %q", post.ImageQuery)
	}
}

func TestGenerate_RateLimitIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := client.Generate(context.Background(), "qualquer tópico")
	if err == nil {
		t.Fatal("expected error")
	}
	if !clients.IsTransient(err) {
		t.Errorf("429 must classify as transient, got %v", err)
	}
}

func TestGenerate_BadRequestIsPermanent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusBadRequest)
	})

	_, err := client.Generate(context.Background(), "qualquer tópico")
	if err == nil {
		t.Fatal("expected error")
	}
	if clients.IsTransient(err) {
		t.Errorf("400 must classify as permanent, got %v", err)
	}
	var clientErr *clients.Error
	if !errors.As(err, &clientErr) || clientErr.Kind != clients.Permanent {
		t.Errorf("expected permanent client error, got %v", err)
	}
}

func TestGenerate_MalformedJSONIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, modelText("não consegui gerar o JSON pedido"))
	})

	_, err := client.Generate(context.Background(), "qualquer tópico")
	if err == nil {
		t.Fatal("expected error")
	}
	if !clients.IsTransient(err) {
		t.Errorf("unparseable model output must classify as transient, got %v", err)
	}
}

func TestDecodeModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"plain", `{"topic":"x"}`},
		{"fenced", "```json\n{\"topic\":\"x\"}\n```"},
		{"fenced no lang", "```\n{\"topic\":\"x\"}\n```"},
		{"surrounded by prose", "Aqui está o JSON:\n{\"topic\":\"x\"}\nEspero que ajude!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var idea topicIdea
			if err := decodeModelJSON(tt.raw, &idea); err != nil {
				t.Fatalf("decodeModelJSON failed: %v", err)
			}
			if idea.Topic != "x" {
				t.Errorf("Topic = %q, want x", idea.Topic)
			}
		})
	}
}

func TestFoldHashtags(t *testing.T) {
	got := foldHashtags([]string{"educacao", "#edtech", " ", "matriculas"})
	if want := "#educacao #edtech #matriculas"; got != want {
		t.Errorf("foldHashtags = %q, want %q", got, want)
	}
	if foldHashtags(nil) != "" {
		t.Error("empty input must fold to empty string")
	}
}
