package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maauso/mediamanip/internal/filetype"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <file>...",
	Short: "Print the detected type of each file",
	Long:  `Classifies each path by its extension. The files do not need to exist.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, path := range args {
		fmt.Fprintf(out, "%s\t%s\n", path, filetype.Classify(path))
	}
	return nil
}
