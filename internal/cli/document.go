package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maauso/mediamanip/internal/bootstrap"
	"github.com/maauso/mediamanip/internal/filetype"
	"github.com/maauso/mediamanip/internal/session"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show facts about a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var toolsCmd = &cobra.Command{
	Use:   "tools <file>",
	Short: "List the tools available for a file",
	Long: `Lists the tools offered for the file's type with their parameters and
defaults. Tools that need a missing ffmpeg or ffprobe are left out.`,
	Args: cobra.ExactArgs(1),
	RunE: runTools,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(toolsCmd)
}

// open builds the dependencies with logs on stderr and loads path.
func open(cmd *cobra.Command, path string) (*bootstrap.Dependencies, session.Outcome, error) {
	deps, err := build(cmd.ErrOrStderr())
	if err != nil {
		return nil, session.Outcome{}, err
	}
	out, err := deps.Session.Load(cmd.Context(), path)
	if err != nil {
		_ = deps.Close()
		return nil, session.Outcome{}, err
	}
	return deps, out, nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	deps, loaded, err := open(cmd, args[0])
	if err != nil {
		return err
	}
	defer func() { _ = deps.Close() }()

	lines, err := describe(cmd.Context(), deps.Session, loaded)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, loaded.Status)
	printLines(out, lines)
	return nil
}

// describe returns the facts shown for the loaded document. Images and text
// run their info tools; other types already summarise themselves on load.
func describe(ctx context.Context, sess *session.Session, loaded session.Outcome) ([]string, error) {
	var id string
	switch sess.Document().Type {
	case filetype.Image:
		id = "info"
	case filetype.Text:
		id = "count"
	default:
		if loaded.Preview == nil {
			return nil, nil
		}
		return strings.Split(loaded.Preview.Text, "\n"), nil
	}

	out, err := sess.Dispatch(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	if out.Dialog == nil {
		return nil, nil
	}
	return out.Dialog.Lines, nil
}

func runTools(cmd *cobra.Command, args []string) error {
	deps, _, err := open(cmd, args[0])
	if err != nil {
		return err
	}
	defer func() { _ = deps.Close() }()

	table, err := deps.Session.Tools()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, sec := range table.Sections {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, sec.Title)
		for _, tool := range sec.Tools {
			line := fmt.Sprintf("  %-14s %s", tool.ID, tool.Label)
			if params := formatParams(tool.Params); params != "" {
				line += "  " + params
			}
			fmt.Fprintln(out, line)
		}
	}
	if table.Notice != "" {
		fmt.Fprintf(out, "\nnote: %s\n", table.Notice)
	}
	return nil
}

// formatParams renders params as key=default pairs.
func formatParams(params []session.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.Name+"="+p.Default)
	}
	return strings.Join(parts, " ")
}

func printLines(w io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}
