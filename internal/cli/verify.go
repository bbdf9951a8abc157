package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ppiankov/epistemia/internal/extract"
	"github.com/ppiankov/epistemia/internal/pipeline"
)

var (
	outFormat  string
	outPath    string
	disableNLI bool
	noFooter   bool
	timeout    time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Verify a claim document and report its hallucination risk",
	Long: `Verify checks every claim in a document against its evidence:
- Score claim/evidence alignment and attribute hallucination mechanisms
- Resolve a verdict per claim (supported, refuted, uncertain, ...)
- Apply batch rules (sanity, canonical override, duplicate collapse)
- Aggregate a document-level hallucination score and risk label

The report is written to stdout unless --output is given.

Example:
  epistemia verify claims.json
  epistemia verify claims.yaml --format markdown --output report.md
  epistemia verify claims.json --disable-nli`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	// Output flags
	verifyCmd.Flags().StringVar(&outFormat, "format", "json", "output format (json, markdown)")
	verifyCmd.Flags().StringVarP(&outPath, "output", "o", "", "output path (default: stdout)")
	verifyCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Engine flags
	verifyCmd.Flags().BoolVar(&disableNLI, "disable-nli", false, "use the similarity fallback instead of NLI for textual evidence")
	verifyCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall verification timeout")
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	format, err := pipeline.ParseFormat(outFormat)
	if err != nil {
		return err
	}

	doc, err := extract.LoadDocument(path)
	if err != nil {
		return err
	}

	c := *cfg
	if disableNLI {
		c.Pipeline.Ablation.DisableNLI = true
		if doc.Config != nil {
			doc.Config.Ablation.DisableNLI = true
		}
	}

	p, done, err := newPipeline(&c)
	if err != nil {
		return eris.Wrap(err, "verify: build pipeline")
	}
	defer done()

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Verifying %d claims from %s\n", len(doc.Claims), path)
	}

	report, err := p.Run(ctx, doc)
	if err != nil {
		return eris.Wrap(err, "verify failed")
	}

	renderer := pipeline.NewRenderer(!noFooter)
	if outPath == "" {
		return renderer.Render(cmd.OutOrStdout(), report, format)
	}

	jsonPath, mdPath := outPath, ""
	if format == pipeline.FormatMarkdown {
		jsonPath, mdPath = "", outPath
	}
	p.SetRenderer(renderer)
	if err := p.RenderReport(os.Stderr, report, jsonPath, mdPath, true); err != nil {
		return eris.Wrap(err, "render failed")
	}

	return nil
}
