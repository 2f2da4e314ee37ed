package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "docoutline",
	Short: "Extract a heading/paragraph outline from documents",
	Long: `docoutline reads PDF, Markdown, HTML and DOCX files and groups their
body text under the nearest preceding heading.

In PDFs a fragment is a heading when its font size exceeds the threshold
(default 12pt) or its font name contains the marker (default "Bold").`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("docoutline " + version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log extraction details to stderr")
	rootCmd.AddCommand(versionCmd)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
