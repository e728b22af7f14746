package secondary

import "context"

// GeneratedPost is the output of the idea/caption generation collaborator.
// Topic and Caption feed the fingerprint; the remaining fields feed the
// renderer.
type GeneratedPost struct {
	Topic      string // the idea text
	Title      string // headline drawn on the artwork
	Kicker     string // small label above the title
	Subtitle   string // supporting line under the title
	Caption    string // full caption for the platform, hashtags folded in
	ImageQuery string // background search query suggested by the generator
}

// IdeaGenerator defines the secondary port for AI idea/caption generation.
// Failures follow the clients classification contract: transient on
// timeout/rate-limit, permanent on invalid request.
type IdeaGenerator interface {
	Generate(ctx context.Context, topicHint string) (*GeneratedPost, error)
}

// ImageSource defines the secondary port for background image search.
// Search returns an opaque local reference to the fetched image.
type ImageSource interface {
	Search(ctx context.Context, query string) (string, error)
}

// Renderer defines the secondary port for composing the final image artifact.
// Render returns an opaque reference to the rendered artifact. Rendering
// defects classify as permanent; only resource errors are transient.
type Renderer interface {
	Render(ctx context.Context, post *GeneratedPost, backgroundRef string) (string, error)
}

// Publisher defines the secondary port for pushing an artifact to the social
// platform. Publish returns the remote post/media ID. Rate limits and session
// expiry classify as transient, policy rejections as permanent.
type Publisher interface {
	Publish(ctx context.Context, artifactRef, caption string) (string, error)

	// Close releases any cached session/credential state on shutdown.
	Close() error
}
