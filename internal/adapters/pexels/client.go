// Package pexels implements the image source against the Pexels photo API.
package pexels

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/postforge/internal/clients"
)

const defaultBaseURL = "https://api.pexels.com/v1"

const defaultQuery = "education students laptop"

// Client searches and downloads portrait background photos. Downloads are
// cached by photo ID under the backgrounds directory so repeat queries do
// not spend API quota.
type Client struct {
	client  *http.Client
	apiKey  string
	baseURL string
	dir     string
	log     *logrus.Entry
}

// Config carries the Pexels connection settings.
type Config struct {
	APIKey         string
	BackgroundsDir string
	BaseURL        string
	Logger         *logrus.Entry
}

// NewClient creates a Pexels client. BaseURL is overridable for tests.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
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
		dir:     cfg.BackgroundsDir,
		log:     log,
	}
}

type photo struct {
	ID     int               `json:"id"`
	Width  int               `json:"width"`
	Height int               `json:"height"`
	Src    map[string]string `json:"src"`
}

type searchResponse struct {
	Photos []photo `json:"photos"`
}

// Search finds the most relevant portrait photo for query and returns the
// path of the downloaded file.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	const op = "pexels.search"

	if c.apiKey == "" {
		return "", clients.Permanentf(op, "PEXELS_API_KEY is not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		query = defaultQuery
	}

	photos, err := c.searchPhotos(ctx, query)
	if err != nil {
		return "", err
	}
	if len(photos) == 0 {
		return "", clients.Permanentf(op, "no photos found for query %q", query)
	}

	chosen := chooseBest(photos)
	cached := filepath.Join(c.dir, fmt.Sprintf("pexels_%d.jpg", chosen.ID))
	if _, err := os.Stat(cached); err == nil {
		c.log.WithField("path", cached).Debug("background cache hit")
		return cached, nil
	}

	srcURL := pickBestSrc(chosen.Src)
	if srcURL == "" {
		return "", clients.Permanentf(op, "photo %d has no usable source", chosen.ID)
	}
	if err := c.download(ctx, srcURL, cached); err != nil {
		return "", err
	}

	c.log.WithFields(logrus.Fields{
		"photo_id": chosen.ID,
		"path":     cached,
	}).Info("background downloaded")
	return cached, nil
}

func (c *Client) searchPhotos(ctx context.Context, query string) ([]photo, error) {
	const op = "pexels.search"

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "20")
	params.Set("orientation", "portrait")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, clients.WrapPermanent(op, err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, clients.WrapTransient(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, clients.WrapTransient(op, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, clients.FromHTTPStatus(op, resp.StatusCode, string(body))
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, clients.WrapTransient(op, fmt.Errorf("decode response: %w", err))
	}
	return decoded.Photos, nil
}

func (c *Client) download(ctx context.Context, srcURL, dest string) error {
	const op = "pexels.download"

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return clients.WrapPermanent(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return clients.WrapPermanent(op, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return clients.WrapTransient(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return clients.FromHTTPStatus(op, resp.StatusCode, string(body))
	}

	// Write through a temp file so a failed download never leaves a
	// truncated image in the cache.
	tmp := dest + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return clients.WrapPermanent(op, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return clients.WrapTransient(op, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return clients.WrapPermanent(op, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return clients.WrapPermanent(op, err)
	}
	return nil
}

// chooseBest prefers the first photo large enough for a 1080x1350 canvas.
// Results arrive relevance-ordered, so the first acceptable one wins.
func chooseBest(photos []photo) photo {
	for _, p := range photos {
		if p.Width >= 1200 && p.Height >= 1600 {
			return p
		}
	}
	return photos[0]
}

func pickBestSrc(src map[string]string) string {
	for _, key := range []string{"original", "large2x", "large", "portrait"} {
		if src[key] != "" {
			return src[key]
		}
	}
	for _, v := range src {
		if v != "" {
			return v
		}
	}
	return ""
}
