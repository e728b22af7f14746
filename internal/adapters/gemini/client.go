// Package gemini implements the idea generator against the Gemini REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/postforge/internal/clients"
	"github.com/example/postforge/internal/ports/secondary"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

const systemContext = `Você escreve conteúdo de Instagram para uma empresa que desenvolve
agentes de inteligência artificial para instituições de ensino.

PÚBLICO-ALVO: gerentes comerciais, coordenadores de curso e diretores
acadêmicos de instituições de ensino.

TOM DE VOZ: consultor experiente, não vendedor. Use dados concretos,
evite promessas vazias e jargões técnicos.`

// Client talks to the Gemini generateContent endpoint.
type Client struct {
	client  *http.Client
	apiKey  string
	baseURL string
	model   string
	log     *logrus.Entry
}

// Config carries the Gemini connection settings.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  *logrus.Entry
}

// NewClient creates a Gemini client. BaseURL is overridable for tests.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	log := cfg.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = logrus.NewEntry(discard)
	}
	return &Client{
		client:  &http.Client{Timeout: 60 * time.Second},
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		log:     log,
	}
}

type topicIdea struct {
	Topic string `json:"topic"`
	Angle string `json:"angle"`
	Hook  string `json:"hook"`
}

type postCaption struct {
	Title      string   `json:"title"`
	Caption    string   `json:"caption"`
	Hashtags   []string `json:"hashtags"`
	ImageQuery string   `json:"image_query"`
}

// Generate produces one post idea plus its full caption. Two model calls:
// the first picks a topic angle, the second writes the structured caption.
func (c *Client) Generate(ctx context.Context, topicHint string) (*secondary.GeneratedPost, error) {
	idea, err := c.generateTopicIdea(ctx, topicHint)
	if err != nil {
		return nil, err
	}
	if idea.Topic == "" {
		return nil, clients.Transientf("gemini.generate", "model returned an idea without a topic")
	}

	caption, err := c.writeCaption(ctx, idea.Topic)
	if err != nil {
		return nil, err
	}

	fullCaption := strings.TrimSpace(caption.Caption)
	if tags := foldHashtags(caption.Hashtags); tags != "" {
		fullCaption = strings.TrimSpace(fullCaption + "\n\n" + tags)
	}
	if fullCaption == "" {
		return nil, clients.Transientf("gemini.generate", "model returned an empty caption")
	}

	kicker := strings.TrimSpace(idea.Hook)
	if kicker == "" {
		kicker = "Educação & Carreira"
	}
	title := strings.TrimSpace(caption.Title)
	if title == "" {
		title = idea.Topic
	}
	imageQuery := strings.TrimSpace(caption.ImageQuery)
	if imageQuery == "" {
		imageQuery = "university students studying laptop modern"
	}

	c.log.WithFields(logrus.Fields{
		"topic": idea.Topic,
		"model": c.model,
	}).Debug("post generated")

	return &secondary.GeneratedPost{
		Topic:      idea.Topic,
		Title:      title,
		Kicker:     kicker,
		Subtitle:   strings.TrimSpace(idea.Angle),
		Caption:    fullCaption,
		ImageQuery: imageQuery,
	}, nil
}

func (c *Client) generateTopicIdea(ctx context.Context, topicHint string) (*topicIdea, error) {
	prompt := fmt.Sprintf(`%s

## SUA MISSÃO
Gere 1 ideia de conteúdo para Instagram sobre: %s

A ideia deve educar o mercado sobre IA na educação, gerar identificação
com as dores do gestor educacional e despertar curiosidade.

## FORMATO (JSON):
{
  "topic": "Título curto e direto (max 80 chars)",
  "angle": "Ângulo específico do tema",
  "hook": "Frase de abertura que prende atenção"
}

Responda SOMENTE o JSON, sem explicações.`, systemContext, topicHint)

	raw, err := c.generateText(ctx, prompt, 0.75)
	if err != nil {
		return nil, err
	}
	var idea topicIdea
	if err := decodeModelJSON(raw, &idea); err != nil {
		return nil, clients.WrapTransient("gemini.topic_idea", err)
	}
	idea.Topic = strings.TrimSpace(idea.Topic)
	return &idea, nil
}

func (c *Client) writeCaption(ctx context.Context, topic string) (*postCaption, error) {
	prompt := fmt.Sprintf(`%s

## SUA MISSÃO
Crie uma legenda de Instagram sobre: %s

## ESTRUTURA:
1. GANCHO (primeira linha): faz a pessoa clicar em "mais"
2. CORPO: parágrafos curtos, pelo menos 1 dado concreto, máximo 150 palavras
3. CTA: termine com ação clara

## FORMATO (JSON):
{
  "title": "Título interno (max 60 chars)",
  "caption": "Legenda completa com \\n\\n entre parágrafos",
  "hashtags": ["educacao", "captacaodealunos", "iaparaeducacao"],
  "image_query": "english pexels query, person plus professional context, copy space left"
}

Escolha 8 a 12 hashtags. Responda SOMENTE o JSON.`, systemContext, topic)

	raw, err := c.generateText(ctx, prompt, 0.75)
	if err != nil {
		return nil, err
	}
	var caption postCaption
	if err := decodeModelJSON(raw, &caption); err != nil {
		return nil, clients.WrapTransient("gemini.caption", err)
	}
	return &caption, nil
}

type generateRequest struct {
	Contents         []requestContent `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *Client) generateText(ctx context.Context, prompt string, temperature float64) (string, error) {
	const op = "gemini.generate_content"

	payload, err := json.Marshal(generateRequest{
		Contents:         []requestContent{{Parts: []requestPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{Temperature: temperature, MaxOutputTokens: 1500},
	})
	if err != nil {
		return "", clients.WrapPermanent(op, fmt.Errorf("marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", clients.WrapPermanent(op, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", clients.WrapTransient(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", clients.WrapTransient(op, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return "", clients.FromHTTPStatus(op, resp.StatusCode, string(body))
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", clients.WrapTransient(op, fmt.Errorf("decode response: %w", err))
	}

	var text strings.Builder
	for _, candidate := range decoded.Candidates {
		for _, part := range candidate.Content.Parts {
			text.WriteString(part.Text)
		}
		break
	}
	result := strings.TrimSpace(text.String())
	if result == "" {
		return "", clients.Transientf(op, "model returned an empty response")
	}
	return result, nil
}

// decodeModelJSON parses model output into v, stripping code fences and any
// prose the model wrapped around the JSON object.
func decodeModelJSON(raw string, v any) error {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.Trim(cleaned, "`")
		if rest, ok := strings.CutPrefix(strings.TrimSpace(cleaned), "json"); ok {
			cleaned = rest
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	start := strings.IndexAny(cleaned, "{[")
	end := strings.LastIndexAny(cleaned, "}]")
	if start >= 0 && end > start {
		cleaned = cleaned[start : end+1]
	}

	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("invalid JSON from model: %w", err)
	}
	return nil
}

// foldHashtags joins hashtags into a single suffix line, prefixing "#" where
// the model omitted it.
func foldHashtags(tags []string) string {
	var parts []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		parts = append(parts, tag)
	}
	return strings.Join(parts, " ")
}
