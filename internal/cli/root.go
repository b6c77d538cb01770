// Package cli implements the mediamanip command line with cobra.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/maauso/mediamanip/internal/bootstrap"
	"github.com/maauso/mediamanip/internal/tui"
)

// version is set at build time with -ldflags.
var version = "dev"

// Builder constructs the dependencies for one command. Logs go to w, or to
// the configured log file when w is nil.
type Builder func(w io.Writer) (*bootstrap.Dependencies, error)

// build is replaced in tests.
var build Builder = bootstrap.FromEnv

var rootCmd = &cobra.Command{
	Use:   "mediamanip [file]",
	Short: "Inspect and edit images, audio, video and text files",
	Long: `mediamanip opens a file, detects its type and offers the tools that fit it.

Without a subcommand it starts the interactive terminal shell, optionally
loading [file] right away.

Controls:
  ↑/k, ↓/j - Select a tool
  Enter    - Run the tool / confirm
  o, /     - Browse for a file
  r        - Reload the current file
  Esc      - Cancel
  q        - Quit`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runShell,
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

func runShell(cmd *cobra.Command, args []string) error {
	deps, err := build(nil)
	if err != nil {
		return err
	}
	defer func() { _ = deps.Close() }()

	opts := []tui.Option{tui.WithLogger(deps.Logger)}
	if len(args) == 1 {
		opts = append(opts, tui.WithInitialPath(args[0]))
	}
	if err := tui.New(cmd.Context(), deps.Session, opts...).Run(); err != nil {
		return fmt.Errorf("shell: %w", err)
	}
	return nil
}
