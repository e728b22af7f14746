// Package render composes the post artwork from a background photo and the
// generated copy.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/sirupsen/logrus"

	"github.com/example/postforge/internal/clients"
	"github.com/example/postforge/internal/ports/secondary"
)

// Instagram feed portrait canvas.
const (
	canvasWidth  = 1080
	canvasHeight = 1350
)

// Brand palette.
const (
	colorWhite    = "#ffffff"
	colorAccent   = "#818cf8"
	colorSubtitle = "#e7e9ff"
	gradientTop   = "#1e1b4b"
	gradientBot   = "#4338ca"
)

// Renderer draws the final 1080x1350 post image.
type Renderer struct {
	processedDir string
	fontPath     string
	logoPath     string
	now          func() time.Time
	log          *logrus.Entry
}

// Config carries the renderer settings. FontPath and LogoPath are optional;
// without a font the built-in face is used.
type Config struct {
	ProcessedDir string
	FontPath     string
	LogoPath     string
	Logger       *logrus.Entry
}

// NewRenderer creates a renderer writing artifacts under ProcessedDir.
func NewRenderer(cfg Config) *Renderer {
	log := cfg.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = logrus.NewEntry(discard)
	}
	return &Renderer{
		processedDir: cfg.ProcessedDir,
		fontPath:     cfg.FontPath,
		logoPath:     cfg.LogoPath,
		now:          time.Now,
		log:          log,
	}
}

// Render composes the post image over backgroundRef and returns the path of
// the written artifact.
func (r *Renderer) Render(ctx context.Context, post *secondary.GeneratedPost, backgroundRef string) (string, error) {
	const op = "render.compose"

	if err := ctx.Err(); err != nil {
		return "", err
	}

	background, err := imaging.Open(backgroundRef)
	if err != nil {
		return "", clients.WrapPermanent(op, fmt.Errorf("open background: %w", err))
	}

	canvas := r.compose(background, post)

	if err := os.MkdirAll(r.processedDir, 0755); err != nil {
		return "", clients.WrapPermanent(op, err)
	}
	out := filepath.Join(r.processedDir, fmt.Sprintf("post_%s.jpg", r.now().Format("20060102_150405")))
	if err := imaging.Save(canvas, out, imaging.JPEGQuality(90)); err != nil {
		return "", clients.WrapPermanent(op, fmt.Errorf("save artifact: %w", err))
	}

	r.log.WithField("path", out).Info("artifact rendered")
	return out, nil
}

func (r *Renderer) compose(background image.Image, post *secondary.GeneratedPost) image.Image {
	// Crop-to-fill keeps the subject centered on the portrait canvas.
	fitted := imaging.Fill(background, canvasWidth, canvasHeight, imaging.Center, imaging.Lanczos)

	dc := gg.NewContext(canvasWidth, canvasHeight)
	dc.DrawImage(fitted, 0, 0)

	r.drawScrim(dc)
	r.drawLogo(dc)
	r.drawCopy(dc, post)

	return dc.Image()
}

// drawScrim darkens the lower half so the copy stays readable over any photo.
func (r *Renderer) drawScrim(dc *gg.Context) {
	grad := gg.NewLinearGradient(0, canvasHeight/2, 0, canvasHeight)
	grad.AddColorStop(0, parseHexAlpha(gradientTop, 0))
	grad.AddColorStop(1, parseHexAlpha(gradientBot, 235))
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, canvasHeight/2, canvasWidth, canvasHeight/2)
	dc.Fill()
}

func (r *Renderer) drawLogo(dc *gg.Context) {
	if r.logoPath == "" {
		return
	}
	logo, err := imaging.Open(r.logoPath)
	if err != nil {
		r.log.WithError(err).Warn("logo unavailable, skipping overlay")
		return
	}
	scaled := imaging.Resize(logo, 120, 0, imaging.Lanczos)
	dc.DrawImage(scaled, 48, 40)
}

func (r *Renderer) drawCopy(dc *gg.Context, post *secondary.GeneratedPost) {
	const (
		margin = 72
		innerW = canvasWidth - 2*margin
	)

	y := float64(canvasHeight) * 0.58

	if post.Kicker != "" {
		r.setFont(dc, 28)
		dc.SetHexColor(colorAccent)
		dc.DrawStringWrapped(post.Kicker, margin, y, 0, 0, innerW, 1.3, gg.AlignLeft)
		y += 56
	}

	r.setFont(dc, 72)
	dc.SetHexColor(colorWhite)
	dc.DrawStringWrapped(post.Title, margin, y, 0, 0, innerW, 1.15, gg.AlignLeft)
	_, titleH := dc.MeasureMultilineString(wrapped(dc, post.Title, innerW), 1.15)
	y += titleH + 48

	if post.Subtitle != "" {
		r.setFont(dc, 34)
		dc.SetHexColor(colorSubtitle)
		dc.DrawStringWrapped(post.Subtitle, margin, y, 0, 0, innerW, 1.3, gg.AlignLeft)
	}
}

// setFont loads the configured face at size, falling back to the built-in
// face when no font is configured or loading fails.
func (r *Renderer) setFont(dc *gg.Context, size float64) {
	if r.fontPath == "" {
		return
	}
	if err := dc.LoadFontFace(r.fontPath, size); err != nil {
		r.log.WithError(err).WithField("font", r.fontPath).Warn("font unavailable, using built-in face")
	}
}

func wrapped(dc *gg.Context, s string, width float64) string {
	lines := dc.WordWrap(s, width)
	out := ""
	for i, line := range lines {
		if i > 0 {
			out += "\n"
		}
		out += line
	}
	return out
}

// parseHexAlpha converts "#rrggbb" plus an alpha byte into a color.
func parseHexAlpha(hex string, alpha uint8) color.NRGBA {
	var red, green, blue uint8
	fmt.Sscanf(hex, "#%02x%02x%02x", &red, &green, &blue)
	return color.NRGBA{R: red, G: green, B: blue, A: alpha}
}
