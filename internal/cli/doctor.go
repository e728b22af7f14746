package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/postforge/internal/config"
	"github.com/example/postforge/internal/db"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate the PostForge environment",
		Long: `Environment health check for PostForge.

Validates:
- API credentials (Gemini, Pexels, Instagram)
- Asset directories and write access
- Optional font and logo files
- Content history database

Examples:
  postforge doctor              # Run full health check
  postforge doctor --quiet      # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(nil)

			results := []CheckResult{
				checkCredentials(cfg),
				checkDirectories(cfg),
				checkFont(cfg),
				checkLogo(cfg),
				checkDatabase(),
			}

			hasErrors := false
			for _, r := range results {
				if r.Status == "✗" {
					hasErrors = true
					break
				}
			}

			if !quiet {
				// Print compact table
				fmt.Println()
				fmt.Println("Check              Status")
				fmt.Println("─────────────────────────")
				for _, r := range results {
					fmt.Printf("%-18s %s\n", r.Name, r.Status)
				}
				fmt.Println()

				// Print details for non-passing checks
				hasDetails := false
				for _, r := range results {
					if r.Status != "✓" && r.Details != "" {
						if !hasDetails {
							fmt.Println("Details:")
							hasDetails = true
						}
						fmt.Printf("\n%s:\n%s\n", r.Name, r.Details)
					}
				}

				if hasErrors {
					fmt.Println("\n⚠ Issues found. Set the missing variables in .env.")
				} else {
					fmt.Println("All checks passed.")
				}
			}

			if hasErrors {
				return fmt.Errorf("environment validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode - exit code only")

	return cmd
}

// checkCredentials validates the API keys needed for a full publish run
func checkCredentials(cfg *config.Config) CheckResult {
	missing := []string{}
	if cfg.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if cfg.PexelsAPIKey == "" {
		missing = append(missing, "PEXELS_API_KEY")
	}
	if cfg.InstagramUsername == "" {
		missing = append(missing, "INSTAGRAM_USER")
	}
	if cfg.InstagramPassword == "" {
		missing = append(missing, "INSTAGRAM_PASSWORD")
	}

	if len(missing) > 0 {
		return CheckResult{
			Name:    "Credentials",
			Status:  "✗",
			Details: "  Missing: " + strings.Join(missing, ", "),
		}
	}
	return CheckResult{Name: "Credentials", Status: "✓"}
}

// checkDirectories validates the asset directories are creatable and writable
func checkDirectories(cfg *config.Config) CheckResult {
	if err := cfg.EnsureDirectories(); err != nil {
		return CheckResult{
			Name:    "Directories",
			Status:  "✗",
			Details: fmt.Sprintf("  %v", err),
		}
	}

	probe := cfg.ProcessedDir + string(os.PathSeparator) + ".doctor_probe"
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return CheckResult{
			Name:    "Directories",
			Status:  "✗",
			Details: fmt.Sprintf("  %s is not writable: %v", cfg.ProcessedDir, err),
		}
	}
	os.Remove(probe)

	return CheckResult{Name: "Directories", Status: "✓"}
}

// checkFont reports whether the configured font file exists. The renderer
// falls back to a built-in face, so a missing font is a warning only.
func checkFont(cfg *config.Config) CheckResult {
	if cfg.FontPath == "" {
		return CheckResult{
			Name:    "Font",
			Status:  "⚠",
			Details: "  POSTFORGE_FONT_PATH not set; posts will use the built-in face",
		}
	}
	if _, err := os.Stat(cfg.FontPath); err != nil {
		return CheckResult{
			Name:    "Font",
			Status:  "⚠",
			Details: fmt.Sprintf("  %s not found; posts will use the built-in face", cfg.FontPath),
		}
	}
	return CheckResult{Name: "Font", Status: "✓"}
}

// checkLogo reports whether the configured logo file exists
func checkLogo(cfg *config.Config) CheckResult {
	if cfg.LogoPath == "" {
		return CheckResult{
			Name:    "Logo",
			Status:  "⚠",
			Details: "  POSTFORGE_LOGO_PATH not set; posts render without a logo",
		}
	}
	if _, err := os.Stat(cfg.LogoPath); err != nil {
		return CheckResult{
			Name:    "Logo",
			Status:  "⚠",
			Details: fmt.Sprintf("  %s not found; posts render without a logo", cfg.LogoPath),
		}
	}
	return CheckResult{Name: "Logo", Status: "✓"}
}

// checkDatabase opens the content history database and applies the schema
func checkDatabase() CheckResult {
	database, err := db.GetDB()
	if err != nil {
		return CheckResult{
			Name:    "Database",
			Status:  "✗",
			Details: fmt.Sprintf("  %v", err),
		}
	}
	if err := database.Ping(); err != nil {
		return CheckResult{
			Name:    "Database",
			Status:  "✗",
			Details: fmt.Sprintf("  %v", err),
		}
	}
	return CheckResult{Name: "Database", Status: "✓"}
}
