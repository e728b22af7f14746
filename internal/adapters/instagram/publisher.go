// Package instagram implements the publisher against the Instagram web API.
package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/postforge/internal/clients"
)

const defaultBaseURL = "https://i.instagram.com/api/v1"

// session is the reusable login state persisted between runs so every
// publish does not trigger a fresh login.
type session struct {
	Username  string    `json:"username"`
	SessionID string    `json:"session_id"`
	SavedAt   time.Time `json:"saved_at"`
}

// Publisher uploads photos to the Instagram feed. Login happens lazily on
// the first publish and the session is reused from disk across runs.
type Publisher struct {
	client      *http.Client
	username    string
	password    string
	sessionPath string
	baseURL     string
	log         *logrus.Entry

	session *session
}

// Config carries the Instagram connection settings.
type Config struct {
	Username    string
	Password    string
	SessionPath string
	BaseURL     string
	Logger      *logrus.Entry
}

// NewPublisher creates an Instagram publisher. BaseURL is overridable for
// tests.
func NewPublisher(cfg Config) *Publisher {
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
	return &Publisher{
		client:      &http.Client{Timeout: 120 * time.Second},
		username:    cfg.Username,
		password:    cfg.Password,
		sessionPath: cfg.SessionPath,
		baseURL:     baseURL,
		log:         log,
	}
}

// Publish uploads the artifact with its caption and returns the media ID.
// An expired session triggers one re-login before the upload is retried.
func (p *Publisher) Publish(ctx context.Context, artifactRef, caption string) (string, error) {
	const op = "instagram.publish"

	if _, err := os.Stat(artifactRef); err != nil {
		return "", clients.WrapPermanent(op, fmt.Errorf("artifact missing: %w", err))
	}

	if err := p.ensureSession(ctx); err != nil {
		return "", err
	}

	mediaID, err := p.upload(ctx, artifactRef, caption)
	if isSessionExpired(err) {
		p.log.Warn("session rejected, logging in again")
		p.dropSession()
		if err := p.login(ctx); err != nil {
			return "", err
		}
		mediaID, err = p.upload(ctx, artifactRef, caption)
	}
	if err != nil {
		return "", err
	}

	p.log.WithField("media_id", mediaID).Info("photo published")
	return mediaID, nil
}

// Close persists the current session for the next run.
func (p *Publisher) Close() error {
	if p.session == nil {
		return nil
	}
	return p.saveSession()
}

// ensureSession loads a saved session from disk or performs a fresh login.
func (p *Publisher) ensureSession(ctx context.Context) error {
	if p.session != nil {
		return nil
	}
	if loaded, err := p.loadSession(); err == nil && loaded.SessionID != "" && loaded.Username == p.username {
		p.session = loaded
		p.log.WithField("path", p.sessionPath).Debug("session restored")
		return nil
	}
	return p.login(ctx)
}

func (p *Publisher) login(ctx context.Context) error {
	const op = "instagram.login"

	if p.username == "" || p.password == "" {
		return clients.Permanentf(op, "credentials are not configured")
	}

	form := url.Values{}
	form.Set("username", p.username)
	form.Set("password", p.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/accounts/login/", strings.NewReader(form.Encode()))
	if err != nil {
		return clients.WrapPermanent(op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return clients.WrapTransient(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return clients.WrapTransient(op, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return clients.FromHTTPStatus(op, resp.StatusCode, string(body))
	}

	var decoded struct {
		SessionID string `json:"session_id"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return clients.WrapTransient(op, fmt.Errorf("decode response: %w", err))
	}
	if decoded.SessionID == "" {
		return clients.Permanentf(op, "login refused for %s", p.username)
	}

	p.session = &session{Username: p.username, SessionID: decoded.SessionID, SavedAt: time.Now()}
	if err := p.saveSession(); err != nil {
		p.log.WithError(err).Warn("failed to persist session")
	}
	p.log.WithField("username", p.username).Info("logged in")
	return nil
}

func (p *Publisher) upload(ctx context.Context, artifactRef, caption string) (string, error) {
	const op = "instagram.upload"

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("photo", filepath.Base(artifactRef))
	if err != nil {
		return "", clients.WrapPermanent(op, err)
	}
	f, err := os.Open(artifactRef)
	if err != nil {
		return "", clients.WrapPermanent(op, err)
	}
	_, copyErr := io.Copy(part, f)
	f.Close()
	if copyErr != nil {
		return "", clients.WrapPermanent(op, copyErr)
	}
	if err := writer.WriteField("caption", caption); err != nil {
		return "", clients.WrapPermanent(op, err)
	}
	if err := writer.Close(); err != nil {
		return "", clients.WrapPermanent(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/media/upload/", &buf)
	if err != nil {
		return "", clients.WrapPermanent(op, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.session.SessionID)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", clients.WrapTransient(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", clients.WrapTransient(op, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode == http.StatusUnauthorized {
		// Surfaced to Publish for the one-shot re-login.
		return "", clients.Transientf(op, "session expired")
	}
	if resp.StatusCode != http.StatusOK {
		return "", clients.FromHTTPStatus(op, resp.StatusCode, string(body))
	}

	var decoded struct {
		MediaID string `json:"media_id"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", clients.WrapTransient(op, fmt.Errorf("decode response: %w", err))
	}
	if decoded.MediaID == "" {
		return "", clients.Transientf(op, "upload accepted without a media id")
	}
	return decoded.MediaID, nil
}

func (p *Publisher) loadSession() (*session, error) {
	data, err := os.ReadFile(p.sessionPath)
	if err != nil {
		return nil, err
	}
	var s session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (p *Publisher) saveSession() error {
	if err := os.MkdirAll(filepath.Dir(p.sessionPath), 0755); err != nil {
		return err
	}
	data, err := json.Marshal(p.session)
	if err != nil {
		return err
	}
	return os.WriteFile(p.sessionPath, data, 0600)
}

func (p *Publisher) dropSession() {
	p.session = nil
	os.Remove(p.sessionPath)
}

func isSessionExpired(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "session expired")
}
