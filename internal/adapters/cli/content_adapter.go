// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/example/postforge/internal/ports/primary"
)

// ContentAdapter is a thin adapter that translates CLI operations to
// ContentService calls. It depends only on the ContentService interface,
// enabling easy testing with mocks.
type ContentAdapter struct {
	service primary.ContentService
	out     io.Writer
}

// NewContentAdapter creates a new ContentAdapter with the given service.
func NewContentAdapter(service primary.ContentService, out io.Writer) *ContentAdapter {
	return &ContentAdapter{
		service: service,
		out:     out,
	}
}

// Post produces and publishes one post.
func (a *ContentAdapter) Post(ctx context.Context, topicHint string) error {
	resp, err := a.service.ProducePost(ctx, primary.ProducePostRequest{
		TopicHint: topicHint,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Published post %s\n", resp.RecordID)
	fmt.Fprintf(a.out, "  Topic:    %s\n", resp.Topic)
	fmt.Fprintf(a.out, "  Artifact: %s\n", resp.ArtifactRef)
	fmt.Fprintf(a.out, "  Media:    %s\n", resp.PublishRef)
	return nil
}

// History lists recent content records with an optional state filter.
func (a *ContentAdapter) History(ctx context.Context, state string, limit int) error {
	items, err := a.service.History(ctx, primary.HistoryFilters{
		State: state,
		Limit: limit,
	})
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(items) == 0 {
		fmt.Fprintln(a.out, "No content records found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-36s  %-10s  %-19s  %s\n", "ID", "STATE", "CREATED", "TOPIC")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────────")
	for _, item := range items {
		// Pad before coloring so ANSI escapes do not skew the columns.
		fmt.Fprintf(a.out, "%-36s  %s  %-19s  %s\n", item.ID, stateMarker(fmt.Sprintf("%-10s", item.State)), item.CreatedAt, truncate(item.Topic, 48))
		if item.ErrorInfo != "" {
			fmt.Fprintf(a.out, "%38s%s\n", "", color.New(color.FgRed).Sprintf("error: %s", truncate(item.ErrorInfo, 70)))
		}
	}
	fmt.Fprintln(a.out)

	return nil
}

func stateMarker(padded string) string {
	switch strings.TrimSpace(padded) {
	case "published":
		return color.New(color.FgGreen).Sprint(padded)
	case "failed":
		return color.New(color.FgRed).Sprint(padded)
	case "rendered":
		return color.New(color.FgYellow).Sprint(padded)
	default:
		return padded
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
