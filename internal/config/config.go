// Package config loads the PostForge configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Default topic pool used when POSTFORGE_TOPICS is unset. Topics steer the
// generator; the scheduler rotates through them at random.
var defaultTopics = []string{
	"conversão de leads em matrículas para faculdades",
	"atendimento automatizado 24/7 para instituições de ensino",
	"como IA ajuda equipes comerciais de faculdades",
	"qualificação automática de leads educacionais",
	"follow-up inteligente para recuperar leads frios",
	"redução de tempo de resposta em secretarias acadêmicas",
	"automação do atendimento via WhatsApp para cursos",
}

// Config is the full PostForge runtime configuration.
type Config struct {
	// Assets
	AssetsDir      string
	ProcessedDir   string
	BackgroundsDir string
	FontPath       string
	LogoPath       string

	// Generation
	GeminiAPIKey string
	GeminiModel  string

	// Image search
	PexelsAPIKey string

	// Publishing
	InstagramUsername    string
	InstagramPassword    string
	InstagramSessionPath string
	InstagramBaseURL     string

	// Lifecycle bounds
	MaxGenerationAttempts int
	RetryMaxAttempts      int
	RetryBaseDelay        time.Duration
	RetryMaxDelay         time.Duration

	// Scheduling
	PostInterval    time.Duration
	TickMaxAttempts int
	Topics          []string
}

// Load builds the configuration from .env files and the process environment.
func Load(logger *logrus.Logger) *Config {
	LoadEnv(logger)

	assetsDir := GetEnv("POSTFORGE_ASSETS_DIR", defaultAssetsDir())

	return &Config{
		AssetsDir:      assetsDir,
		ProcessedDir:   filepath.Join(assetsDir, "processed"),
		BackgroundsDir: filepath.Join(assetsDir, "backgrounds"),
		FontPath:       GetEnv("POSTFORGE_FONT_PATH", ""),
		LogoPath:       GetEnv("POSTFORGE_LOGO_PATH", ""),

		GeminiAPIKey: GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:  GetEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		PexelsAPIKey: GetEnv("PEXELS_API_KEY", ""),

		InstagramUsername:    GetEnv("INSTAGRAM_USER", ""),
		InstagramPassword:    GetEnv("INSTAGRAM_PASSWORD", ""),
		InstagramSessionPath: GetEnv("INSTAGRAM_SESSION_PATH", filepath.Join(assetsDir, "temp", "instagram_session.json")),
		InstagramBaseURL:     GetEnv("INSTAGRAM_BASE_URL", ""),

		MaxGenerationAttempts: GetEnvInt("POSTFORGE_MAX_GENERATION_ATTEMPTS", 3),
		RetryMaxAttempts:      GetEnvInt("POSTFORGE_RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:        GetEnvDuration("POSTFORGE_RETRY_BASE_DELAY", 500*time.Millisecond),
		RetryMaxDelay:         GetEnvDuration("POSTFORGE_RETRY_MAX_DELAY", 8*time.Second),

		PostInterval:    GetEnvDuration("POSTFORGE_POST_INTERVAL", 8*time.Hour),
		TickMaxAttempts: GetEnvInt("POSTFORGE_TICK_MAX_ATTEMPTS", 3),
		Topics:          GetEnvList("POSTFORGE_TOPICS", defaultTopics),
	}
}

// EnsureDirectories creates the asset directories the pipeline writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.ProcessedDir, c.BackgroundsDir, filepath.Dir(c.InstagramSessionPath)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Validate reports missing credentials required for a full publish run.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not configured")
	}
	if c.PexelsAPIKey == "" {
		return fmt.Errorf("PEXELS_API_KEY is not configured")
	}
	if c.InstagramUsername == "" || c.InstagramPassword == "" {
		return fmt.Errorf("INSTAGRAM_USER and INSTAGRAM_PASSWORD are not configured")
	}
	return nil
}

func defaultAssetsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "assets"
	}
	return filepath.Join(home, ".postforge", "assets")
}
