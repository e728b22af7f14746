package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/postforge/internal/clients"
	"github.com/example/postforge/internal/core/content"
	"github.com/example/postforge/internal/ports/primary"
	"github.com/example/postforge/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockContentRepository implements secondary.ContentRepository in memory,
// honoring the dedup and forward-only transition invariants.
type mockContentRepository struct {
	records      map[string]*secondary.ContentRecord
	order        []string
	insertErr    error
	conflictOnce bool
	existsErr    error
	updateErr    error
}

func newMockContentRepository() *mockContentRepository {
	return &mockContentRepository{records: make(map[string]*secondary.ContentRecord)}
}

func (m *mockContentRepository) Insert(_ context.Context, record *secondary.ContentRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.conflictOnce {
		m.conflictOnce = false
		return &content.ConflictError{Fingerprint: record.Fingerprint}
	}
	for _, r := range m.records {
		if r.Fingerprint == record.Fingerprint && r.State != content.StateFailed {
			return &content.ConflictError{Fingerprint: record.Fingerprint}
		}
	}
	clone := *record
	m.records[record.ID] = &clone
	m.order = append(m.order, record.ID)
	return nil
}

func (m *mockContentRepository) GetByID(_ context.Context, id string) (*secondary.ContentRecord, error) {
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return nil, &content.NotFoundError{ID: id}
}

func (m *mockContentRepository) UpdateState(_ context.Context, id string, newState content.State, fields secondary.StateFields) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	r, ok := m.records[id]
	if !ok {
		return &content.NotFoundError{ID: id}
	}
	if !content.CanTransition(r.State, newState) {
		return &content.InvalidTransitionError{ID: id, From: r.State, To: newState}
	}
	r.State = newState
	switch newState {
	case content.StateRendered:
		r.ArtifactRef = fields.ArtifactRef
	case content.StatePublished:
		r.PublishRef = fields.PublishRef
	case content.StateFailed:
		r.ErrorInfo = fields.ErrorInfo
	}
	return nil
}

func (m *mockContentRepository) ExistsByFingerprint(_ context.Context, fingerprint string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	for _, r := range m.records {
		if r.Fingerprint == fingerprint && r.State != content.StateFailed {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockContentRepository) ListRecent(_ context.Context, filters secondary.ContentFilters) ([]*secondary.ContentRecord, error) {
	var result []*secondary.ContentRecord
	for i := len(m.order) - 1; i >= 0; i-- {
		r := m.records[m.order[i]]
		if filters.State != "" && r.State != filters.State {
			continue
		}
		result = append(result, r)
		if filters.Limit > 0 && len(result) == filters.Limit {
			break
		}
	}
	return result, nil
}

func (m *mockContentRepository) single(t *testing.T) *secondary.ContentRecord {
	t.Helper()
	if len(m.records) != 1 {
		t.Fatalf("expected exactly 1 record, have %d", len(m.records))
	}
	for _, r := range m.records {
		return r
	}
	return nil
}

// mockGenerator returns queued posts in order, repeating the last one.
type mockGenerator struct {
	posts []*secondary.GeneratedPost
	errs  []error
	calls int
}

func (m *mockGenerator) Generate(_ context.Context, _ string) (*secondary.GeneratedPost, error) {
	i := m.calls
	m.calls++
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if len(m.posts) == 0 {
		return nil, errors.New("no posts queued")
	}
	if i >= len(m.posts) {
		i = len(m.posts) - 1
	}
	return m.posts[i], nil
}

type mockImageSource struct {
	ref   string
	err   error
	calls int
}

func (m *mockImageSource) Search(_ context.Context, _ string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.ref, nil
}

type mockRenderer struct {
	ref   string
	err   error
	calls int
}

func (m *mockRenderer) Render(_ context.Context, _ *secondary.GeneratedPost, _ string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.ref, nil
}

type mockPublisher struct {
	ref   string
	err   error
	calls int
}

func (m *mockPublisher) Publish(_ context.Context, _, _ string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.ref, nil
}

func (m *mockPublisher) Close() error { return nil }

// ============================================================================
// Test setup
// ============================================================================

type serviceFixture struct {
	repo      *mockContentRepository
	generator *mockGenerator
	images    *mockImageSource
	renderer  *mockRenderer
	publisher *mockPublisher
	service   *ContentServiceImpl
}

func postFixture() *secondary.GeneratedPost {
	return &secondary.GeneratedPost{
		Topic:      "5 razões para automatizar atendimento",
		Title:      "5 razões para automatizar",
		Kicker:     "Educação & Carreira",
		Caption:    "👉 Saiba mais",
		ImageQuery: "university students studying laptop",
	}
}

func newServiceFixture(posts ...*secondary.GeneratedPost) *serviceFixture {
	f := &serviceFixture{
		repo:      newMockContentRepository(),
		generator: &mockGenerator{posts: posts},
		images:    &mockImageSource{ref: "backgrounds/pexels_42.jpg"},
		renderer:  &mockRenderer{ref: "processed/post_1.jpg"},
		publisher: &mockPublisher{ref: "media-123"},
	}
	f.service = NewContentService(f.repo, f.generator, f.images, f.renderer, f.publisher, Options{
		Retry:                 clients.RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		MaxGenerationAttempts: 3,
	})
	return f
}

// ============================================================================
// Tests
// ============================================================================

func TestProducePost_HappyPath(t *testing.T) {
	f := newServiceFixture(postFixture())

	resp, err := f.service.ProducePost(context.Background(), primary.ProducePostRequest{TopicHint: "atendimento"})
	if err != nil {
		t.Fatalf("ProducePost failed: %v", err)
	}

	if resp.PublishRef != "media-123" {
		t.Errorf("PublishRef = %q, want %q", resp.PublishRef, "media-123")
	}
	if resp.ArtifactRef != "processed/post_1.jpg" {
		t.Errorf("ArtifactRef = %q, want renderer output", resp.ArtifactRef)
	}
	if want := content.Fingerprint("5 razões para automatizar atendimento", "👉 Saiba mais"); resp.Fingerprint != want {
		t.Errorf("Fingerprint = %q, want %q", resp.Fingerprint, want)
	}

	record := f.repo.single(t)
	if record.State != content.StatePublished {
		t.Errorf("record State = %q, want %q", record.State, content.StatePublished)
	}
	if record.ArtifactRef == "" || record.PublishRef == "" {
		t.Error("published record must carry both artifact and publish refs")
	}
	if f.generator.calls != 1 || f.images.calls != 1 || f.renderer.calls != 1 || f.publisher.calls != 1 {
		t.Errorf("collaborator calls = gen:%d img:%d render:%d pub:%d, want 1 each",
			f.generator.calls, f.images.calls, f.renderer.calls, f.publisher.calls)
	}
}

func TestProducePost_DuplicateTriggersRegeneration(t *testing.T) {
	dupe := postFixture()
	fresh := &secondary.GeneratedPost{
		Topic:      "como IA reduz fila de espera",
		Caption:    "👉 Veja como",
		ImageQuery: "call center",
	}
	// The generator repeats the first idea once before producing a new one.
	f := newServiceFixture(dupe, dupe, fresh)

	// First publication of the duplicate content.
	if _, err := f.service.ProducePost(context.Background(), primary.ProducePostRequest{}); err != nil {
		t.Fatalf("first ProducePost failed: %v", err)
	}

	// Second run regenerates past the duplicate instead of publishing it twice.
	resp, err := f.service.ProducePost(context.Background(), primary.ProducePostRequest{})
	if err != nil {
		t.Fatalf("second ProducePost failed: %v", err)
	}
	if resp.Topic != fresh.Topic {
		t.Errorf("published topic = %q, want regenerated %q", resp.Topic, fresh.Topic)
	}
	if f.generator.calls != 3 {
		t.Errorf("generator calls = %d, want 3 (one for first run, two for second)", f.generator.calls)
	}
	if f.publisher.calls != 2 {
		t.Errorf("publisher calls = %d, want 2", f.publisher.calls)
	}
}

func TestProducePost_RegenerationExhaustion(t *testing.T) {
	f := newServiceFixture(postFixture())

	if _, err := f.service.ProducePost(context.Background(), primary.ProducePostRequest{}); err != nil {
		t.Fatalf("first ProducePost failed: %v", err)
	}

	// Generator keeps repeating itself; every attempt is a duplicate.
	_, err := f.service.ProducePost(context.Background(), primary.ProducePostRequest{})
	var dup *content.DuplicateContentError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateContentError, got %v", err)
	}
	if dup.Attempts != 3 {
		t.Errorf("Attempts = %d, want configured bound 3", dup.Attempts)
	}
	// No rendering or publishing cost was spent on duplicates.
	if f.renderer.calls != 1 || f.publisher.calls != 1 {
		t.Errorf("render/publish calls = %d/%d, want 1/1 from the first run only", f.renderer.calls, f.publisher.calls)
	}
}

func TestProducePost_InsertConflictTreatedAsDuplicate(t *testing.T) {
	fresh := &secondary.GeneratedPost{Topic: "outro tópico", Caption: "legenda"}
	f := newServiceFixture(postFixture(), fresh)

	// Simulate a concurrent attempt winning the insert race: the fingerprint
	// is free at the pre-check but taken at insert time.
	f.repo.conflictOnce = true

	resp, err := f.service.ProducePost(context.Background(), primary.ProducePostRequest{})
	if err != nil {
		t.Fatalf("ProducePost failed: %v", err)
	}
	if resp.Topic != fresh.Topic {
		t.Errorf("published topic = %q, want second generation %q", resp.Topic, fresh.Topic)
	}
	if f.generator.calls != 2 {
		t.Errorf("generator calls = %d, want 2", f.generator.calls)
	}
}

func TestProducePost_PublishPermanentFailure(t *testing.T) {
	f := newServiceFixture(postFixture())
	f.publisher.err = clients.Permanentf("instagram.publish", "policy rejection")

	_, err := f.service.ProducePost(context.Background(), primary.ProducePostRequest{})
	var pubErr *content.PublishError
	if !errors.As(err, &pubErr) {
		t.Fatalf("expected PublishError, got %v", err)
	}
	if f.publisher.calls != 1 {
		t.Errorf("publisher calls = %d, want exactly 1 for permanent failure", f.publisher.calls)
	}

	record := f.repo.single(t)
	if record.State != content.StateFailed {
		t.Errorf("record State = %q, want %q", record.State, content.StateFailed)
	}
	if record.ErrorInfo == "" {
		t.Error("failed record must carry error info")
	}
	// The successful render step remains visible on the failed record.
	if record.ArtifactRef == "" {
		t.Error("artifact ref from the successful render step must be preserved")
	}
	if record.PublishRef != "" {
		t.Error("publish ref must be absent on a failed record")
	}
}

func TestProducePost_GenerationTransientExhaustion(t *testing.T) {
	f := newServiceFixture(postFixture())
	f.generator.errs = []error{
		clients.Transientf("gemini.generate", "rate limited"),
		clients.Transientf("gemini.generate", "rate limited"),
		clients.Transientf("gemini.generate", "rate limited"),
	}

	_, err := f.service.ProducePost(context.Background(), primary.ProducePostRequest{})
	var genErr *content.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	var exhausted *clients.RetriesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected wrapped RetriesExhaustedError, got %v", err)
	}
	// Retry config allows 2 attempts; both consumed before surfacing.
	if f.generator.calls != 2 {
		t.Errorf("generator calls = %d, want 2", f.generator.calls)
	}
	if len(f.repo.records) != 0 {
		t.Error("no record should exist when generation never succeeded")
	}
}

func TestProducePost_RenderFailureMarksFailed(t *testing.T) {
	f := newServiceFixture(postFixture())
	f.renderer.err = clients.Permanentf("render.compose", "font missing")

	_, err := f.service.ProducePost(context.Background(), primary.ProducePostRequest{})
	var renderErr *content.RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("expected RenderError, got %v", err)
	}

	record := f.repo.single(t)
	if record.State != content.StateFailed {
		t.Errorf("record State = %q, want %q", record.State, content.StateFailed)
	}
	if record.ArtifactRef != "" {
		t.Error("artifact ref must be absent when rendering never succeeded")
	}
	if f.publisher.calls != 0 {
		t.Error("publisher must not be called after a render failure")
	}
}

func TestProducePost_CancelledBeforeStart(t *testing.T) {
	f := newServiceFixture(postFixture())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.ProducePost(ctx, primary.ProducePostRequest{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.generator.calls != 0 {
		t.Error("no collaborator should be called after cancellation")
	}
}

func TestHistory(t *testing.T) {
	f := newServiceFixture(postFixture())
	if _, err := f.service.ProducePost(context.Background(), primary.ProducePostRequest{}); err != nil {
		t.Fatalf("ProducePost failed: %v", err)
	}

	items, err := f.service.History(context.Background(), primary.HistoryFilters{Limit: 10})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	if items[0].State != string(content.StatePublished) {
		t.Errorf("item State = %q, want published", items[0].State)
	}
	if items[0].PublishRef != "media-123" {
		t.Errorf("item PublishRef = %q, want media-123", items[0].PublishRef)
	}

	if _, err := f.service.History(context.Background(), primary.HistoryFilters{State: "shipped"}); err == nil {
		t.Error("unknown state filter must be rejected")
	}
}
