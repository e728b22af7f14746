package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/postforge/internal/ports/primary"
)

// mockContentService implements primary.ContentService for testing
type mockContentService struct {
	producePostFn func(ctx context.Context, req primary.ProducePostRequest) (*primary.ProducePostResponse, error)
	historyFn     func(ctx context.Context, filters primary.HistoryFilters) ([]*primary.ContentItem, error)

	// Track calls for verification
	lastProduceReq primary.ProducePostRequest
	lastFilters    primary.HistoryFilters
}

func (m *mockContentService) ProducePost(ctx context.Context, req primary.ProducePostRequest) (*primary.ProducePostResponse, error) {
	m.lastProduceReq = req
	if m.producePostFn != nil {
		return m.producePostFn(ctx, req)
	}
	return &primary.ProducePostResponse{
		RecordID:    "rec-001",
		Topic:       "5 razões para automatizar atendimento",
		ArtifactRef: "processed/post_1.jpg",
		PublishRef:  "media-123",
	}, nil
}

func (m *mockContentService) History(ctx context.Context, filters primary.HistoryFilters) ([]*primary.ContentItem, error) {
	m.lastFilters = filters
	if m.historyFn != nil {
		return m.historyFn(ctx, filters)
	}
	return []*primary.ContentItem{}, nil
}

func TestContentAdapter_Post(t *testing.T) {
	service := &mockContentService{}
	var out bytes.Buffer
	adapter := NewContentAdapter(service, &out)

	if err := adapter.Post(context.Background(), "atendimento"); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	if service.lastProduceReq.TopicHint != "atendimento" {
		t.Errorf("TopicHint = %q, want atendimento", service.lastProduceReq.TopicHint)
	}
	output := out.String()
	for _, want := range []string{"rec-001", "5 razões para automatizar atendimento", "media-123"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestContentAdapter_Post_Error(t *testing.T) {
	service := &mockContentService{
		producePostFn: func(ctx context.Context, req primary.ProducePostRequest) (*primary.ProducePostResponse, error) {
			return nil, errors.New("generation failed")
		},
	}
	adapter := NewContentAdapter(service, &bytes.Buffer{})

	if err := adapter.Post(context.Background(), ""); err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestContentAdapter_History(t *testing.T) {
	service := &mockContentService{
		historyFn: func(ctx context.Context, filters primary.HistoryFilters) ([]*primary.ContentItem, error) {
			return []*primary.ContentItem{
				{ID: "rec-001", State: "published", Topic: "tópico um", CreatedAt: "2026-08-31 12:00:00"},
				{ID: "rec-002", State: "failed", Topic: "tópico dois", ErrorInfo: "upload refused", CreatedAt: "2026-08-31 13:00:00"},
			}, nil
		},
	}
	var out bytes.Buffer
	adapter := NewContentAdapter(service, &out)

	if err := adapter.History(context.Background(), "", 20); err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if service.lastFilters.Limit != 20 {
		t.Errorf("Limit = %d, want 20", service.lastFilters.Limit)
	}

	output := out.String()
	for _, want := range []string{"rec-001", "tópico um", "rec-002", "upload refused"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestContentAdapter_History_Empty(t *testing.T) {
	service := &mockContentService{}
	var out bytes.Buffer
	adapter := NewContentAdapter(service, &out)

	if err := adapter.History(context.Background(), "published", 0); err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if !strings.Contains(out.String(), "No content records found") {
		t.Errorf("expected empty message, got:\n%s", out.String())
	}
	if service.lastFilters.State != "published" {
		t.Errorf("State filter = %q, want published", service.lastFilters.State)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("a very long topic line here", 10); got != "a very ..." {
		t.Errorf("truncate = %q", got)
	}
}
