package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	extractOutput    string
	extractFormat    string
	extractPolicy    string
	extractChunk     bool
	extractSkipBlank bool
	extractThreshold float64
	extractMarker    string
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Print the outline of a document",
	Long: `Parse a document and print its sections.

Examples:
  docoutline extract report.pdf
  docoutline extract report.pdf --format yaml -o report.yaml
  docoutline extract report.pdf --policy page --chunk`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	cfg := config.Load()

	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output file (default: stdout)")
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "json", "output format (json, yaml, text)")
	extractCmd.Flags().StringVar(&extractPolicy, "policy", cfg.FlushPolicy, "page break handling (heading, page)")
	extractCmd.Flags().BoolVar(&extractChunk, "chunk", false, "also split sections into chunks")
	extractCmd.Flags().BoolVar(&extractSkipBlank, "skip-blank", cfg.SkipBlankFragments, "drop fragments that are empty after trimming")
	extractCmd.Flags().Float64Var(&extractThreshold, "size-threshold", cfg.HeadingSizeThreshold, "font sizes above this are headings")
	extractCmd.Flags().StringVar(&extractMarker, "font-marker", cfg.HeadingFontMarker, "font name substring that marks a heading")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	policy, err := outline.ParseFlushPolicy(extractPolicy)
	if err != nil {
		return err
	}

	opts := pipeline.OptionsFromConfig(config.Load())
	opts.Classifier = outline.Classifier{SizeThreshold: extractThreshold, FontMarker: extractMarker}
	opts.Policy = policy
	opts.SkipBlank = extractSkipBlank
	opts.Chunk = extractChunk

	res, err := pipeline.NewProcessor(newLogger()).ProcessFile(args[0], opts)
	if err != nil {
		return err
	}

	output, err := formatOutput(res, extractFormat)
	if err != nil {
		return err
	}

	if extractOutput == "" {
		fmt.Fprint(cmd.OutOrStdout(), output)
		return nil
	}
	if err := os.WriteFile(extractOutput, []byte(output), 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d sections to %s\n", len(res.Sections), extractOutput)
	return nil
}

func formatOutput(res *pipeline.Result, format string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil

	case "yaml", "yml":
		data, err := yaml.Marshal(res)
		if err != nil {
			return "", err
		}
		return string(data), nil

	case "text":
		return formatAsText(res), nil

	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatAsText(res *pipeline.Result) string {
	var b strings.Builder
	for i, sec := range res.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		if sec.Heading != nil {
			fmt.Fprintf(&b, "== %s ==\n", *sec.Heading)
		}
		for _, p := range sec.Paragraphs {
			b.WriteString(p)
			b.WriteString("\n")
		}
	}
	return b.String()
}
