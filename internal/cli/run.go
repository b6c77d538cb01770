package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maauso/mediamanip/internal/apperr"
	"github.com/maauso/mediamanip/internal/session"
	"github.com/maauso/mediamanip/internal/task"
)

var runCmd = &cobra.Command{
	Use:   "run <file> <tool> [key=value...]",
	Short: "Run one tool on a file",
	Long: `Loads <file> and runs <tool> with the given arguments. Arguments left out
take the defaults shown by "mediamanip tools <file>".

Image and text edits only change the working copy. Use --save to write the
result, or --print to show edited text on stdout.

Examples:
  mediamanip run photo.jpg sepia --save photo_sepia.jpg
  mediamanip run song.wav trim start=1.5 end=4 dest=clip.wav
  mediamanip run movie.mp4 extract_all dir=frames`,
	Args: cobra.MinimumNArgs(2),
	RunE: runTool,
}

var (
	runSave  string
	runPrint bool
)

func init() {
	runCmd.Flags().StringVarP(&runSave, "save", "s", "", "save the edited working copy to this path")
	runCmd.Flags().BoolVarP(&runPrint, "print", "p", false, "print the edited text to stdout")
	rootCmd.AddCommand(runCmd)
}

func runTool(cmd *cobra.Command, args []string) error {
	toolArgs, err := parseArgs(args[2:])
	if err != nil {
		return err
	}

	deps, _, err := open(cmd, args[0])
	if err != nil {
		return err
	}
	defer func() { _ = deps.Close() }()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	outcome, err := deps.Session.Dispatch(ctx, args[1], toolArgs)
	if err != nil {
		return err
	}
	if err := report(ctx, out, outcome); err != nil {
		return err
	}
	if runPrint && outcome.Preview != nil && outcome.Preview.Text != "" {
		fmt.Fprintln(out, outcome.Preview.Text)
	}

	if runSave == "" {
		return nil
	}
	saved, err := deps.Session.Dispatch(ctx, "save", map[string]string{"dest": runSave})
	if err != nil {
		return err
	}
	return report(ctx, out, saved)
}

// parseArgs splits key=value pairs.
func parseArgs(pairs []string) (map[string]string, error) {
	args := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%w: argument %q is not key=value", apperr.ErrInvalidArgument, pair)
		}
		args[strings.TrimSpace(k)] = v
	}
	return args, nil
}

// report prints an outcome. A background task is waited for.
func report(ctx context.Context, w io.Writer, out session.Outcome) error {
	fmt.Fprintln(w, out.Status)
	if out.Dialog != nil {
		printLines(w, out.Dialog.Lines)
	}
	if out.Task == nil {
		return nil
	}

	snap, err := wait(ctx, out.Task)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, snap.Result)
	return nil
}

// wait blocks until t finishes. Cancelling ctx cancels the task.
func wait(ctx context.Context, t *task.Task) (*task.Task, error) {
	select {
	case <-t.Done():
	case <-ctx.Done():
		t.Cancel()
		<-t.Done()
	}

	snap := t.Clone()
	switch snap.Status {
	case task.StatusCompleted:
		return snap, nil
	case task.StatusFailed:
		return nil, fmt.Errorf("frame extraction failed: %s", snap.Error)
	default:
		return nil, fmt.Errorf("frame extraction %s", strings.ToLower(string(snap.Status)))
	}
}
