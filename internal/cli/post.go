package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/postforge/internal/wire"
)

// PostCmd returns the post command
func PostCmd() *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Generate and publish one post",
		Long: `Generate one post with Gemini, render the artwork over a Pexels
background, and publish it to the Instagram feed.

The run is recorded in the content history and deduplicated against
previously published posts.

Examples:
  postforge post
  postforge post --topic "atendimento automatizado via WhatsApp"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.Config().Validate(); err != nil {
				return fmt.Errorf("configuration incomplete: %w", err)
			}
			defer wire.Teardown()

			return wire.ContentAdapter().Post(cmd.Context(), topic)
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic hint steering the generated idea")

	return cmd
}
