package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/epistemia/internal/model"
	"github.com/ppiankov/epistemia/internal/pipeline"
	"github.com/ppiankov/epistemia/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	// noFooter and disableNLI are defined in verify.go and shared here
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir|file|list.txt>...",
	Short: "Verify many claim documents in parallel",
	Long: `Batch verifies multiple claim documents concurrently:
- Directories expand to their .json, .yaml and .yml files
- .txt files are read as lists of document paths (one per line)
- Documents are processed in parallel with a configurable worker count
- A failing document never affects the others
- Each document gets its own JSON and Markdown report

Example:
  epistemia batch ./documents
  epistemia batch a.json b.yaml --concurrency 8 --output-dir ./reports
  epistemia batch documents.txt --timeout 30m`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: batch.workers from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./epistemia-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().BoolVar(&disableNLI, "disable-nli", false, "use the similarity fallback instead of NLI for textual evidence")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	workers := concurrency
	if workers <= 0 {
		workers = cfg.Batch.Workers
	}

	paths, err := collectPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return eris.New("batch: no claim documents found")
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Epistemia Batch Verification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Documents:    %d\n", len(paths))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	c := *cfg
	if disableNLI {
		c.Pipeline.Ablation.DisableNLI = true
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return eris.Wrap(err, "batch: create output directory")
	}

	p, done, err := newPipeline(&c)
	if err != nil {
		return eris.Wrap(err, "batch: build pipeline")
	}
	defer done()

	var auditor worker.Auditor = p
	if c.Batch.TimeoutSecs > 0 {
		auditor = &timeoutAuditor{inner: p, timeout: time.Duration(c.Batch.TimeoutSecs) * time.Second}
	}
	processor := worker.NewBatchProcessor(auditor, workers, zap.L())

	fmt.Fprintf(os.Stderr, "⚙️  Verifying documents with %d workers...\n", workers)
	fmt.Fprintf(os.Stderr, "\n")
	results := processor.ProcessPaths(ctx, paths)

	successCount := 0
	failureCount := 0
	renderer := pipeline.NewRenderer(!noFooter)
	names := make(map[string]bool)

	for i, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		name := reportName(result.Path)
		if names[name] {
			name = fmt.Sprintf("%s-%d", name, i+1)
		}
		names[name] = true
		jsonPath := filepath.Join(outputDir, name+".json")
		mdPath := filepath.Join(outputDir, name+".md")

		if err := renderer.RenderFile(result.Report, jsonPath, pipeline.FormatJSON); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
			continue
		}
		if err := renderer.RenderFile(result.Report, mdPath, pipeline.FormatMarkdown); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Path, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (risk: %s, score %.3f, %v)\n",
			result.Path, result.Report.Risk.OverallRisk, result.Report.Risk.HallucinationScore, result.Duration.Round(time.Millisecond))
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d documents\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// timeoutAuditor bounds each document audit
type timeoutAuditor struct {
	inner   worker.Auditor
	timeout time.Duration
}

func (a *timeoutAuditor) AuditFile(ctx context.Context, path string) (*model.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.inner.AuditFile(ctx, path)
}

// collectPaths expands directories and list files into document paths.
// Order follows the arguments; duplicates are dropped.
func collectPaths(args []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, eris.Wrapf(err, "batch: stat %s", arg)
		}

		switch {
		case info.IsDir():
			entries, err := os.ReadDir(arg)
			if err != nil {
				return nil, eris.Wrapf(err, "batch: read directory %s", arg)
			}
			var found []string
			for _, e := range entries {
				if !e.IsDir() && isDocument(e.Name()) {
					found = append(found, filepath.Join(arg, e.Name()))
				}
			}
			slices.Sort(found)
			for _, p := range found {
				add(p)
			}

		case strings.EqualFold(filepath.Ext(arg), ".txt"):
			listed, err := worker.ReadPathsFromFile(arg)
			if err != nil {
				return nil, err
			}
			for _, p := range listed {
				add(p)
			}

		default:
			add(arg)
		}
	}

	return paths, nil
}

func isDocument(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// reportName derives a safe report file name from a document path
func reportName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "report"
	}

	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	base = replacer.Replace(base)

	// Limit length
	if len(base) > 100 {
		base = base[:100]
	}
	return base
}
