package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/epistemia/internal/extract"
	"github.com/ppiankov/epistemia/internal/pipeline"
)

var screenJSON bool

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen <file>",
	Short: "Run the evidence-free structural pre-filter over a claim document",
	Long: `Screen flags claims whose shape alone indicates a hallucination
(scope overgeneralization, impossible dosage, authority bleed) without
consulting any evidence.

Example:
  epistemia screen claims.json
  epistemia screen claims.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: runScreen,
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().BoolVar(&screenJSON, "json", false, "print results as JSON")
}

func runScreen(cmd *cobra.Command, args []string) error {
	doc, err := extract.LoadDocument(args[0])
	if err != nil {
		return err
	}

	results := pipeline.Screen(doc)
	out := cmd.OutOrStdout()

	if screenJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	flagged := 0
	for _, r := range results {
		if r.Flag == nil {
			fmt.Fprintf(out, "  ✓ %s  %s\n", r.ClaimID, r.ClaimText)
			continue
		}
		flagged++
		fmt.Fprintf(out, "  ✗ %s  %s\n", r.ClaimID, r.ClaimText)
		fmt.Fprintf(out, "      %s (%s): %s\n", r.Flag.Type, r.Flag.Severity, r.Flag.Reason)
	}
	fmt.Fprintf(out, "\n%d of %d claims flagged\n", flagged, len(results))

	return nil
}
