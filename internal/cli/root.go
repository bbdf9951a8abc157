package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/epistemia/internal/cache"
	"github.com/ppiankov/epistemia/internal/config"
	"github.com/ppiankov/epistemia/internal/nli"
	"github.com/ppiankov/epistemia/internal/pipeline"
)

// Version is set at build time with -ldflags
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "epistemia",
	Short: "Epistemia - Claim verification & hallucination risk diagnostics",
	Long: `Epistemia verifies extracted claims against the evidence retrieved for
them, attributes hallucination mechanisms, and aggregates an epistemic
risk score for the whole document.

Input is a claim document (JSON or YAML) carrying linked entities and
evidence from primary documents, Wikidata, Wikipedia and Grokipedia.
Epistemia fetches nothing: verdicts describe the supplied evidence only.

Epistemia is a mirror, not an oracle.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Epistemia.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "epistemia v%s\n", Version)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./epistemia.yaml, then $HOME/.epistemia/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	rootCmd.AddCommand(versionCmd)
}

// initConfig loads configuration and installs the global logger
func initConfig() error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if verbose {
		c.Log.Level = "debug"
	}
	if err := config.InitLogger(c.Log); err != nil {
		return err
	}
	cfg = c

	if verbose {
		if used := config.UsedFile(cfgFile); used != "" {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", used)
		}
	}
	return nil
}

// newPipeline wires the NLI engine, its cache and the pipeline from c. The
// returned func logs cache usage and must be called once the run is done.
func newPipeline(c *config.Config) (*pipeline.Pipeline, func(), error) {
	var store cache.Cache
	if c.Cache.Enabled {
		store = cache.New(c.Cache.Dir, c.Cache.TTL())
		if p, ok := store.(cache.Prunable); ok {
			removed, err := p.Prune()
			if err != nil {
				zap.L().Warn("Cache prune failed", zap.Error(err))
			} else if removed > 0 {
				zap.L().Debug("Pruned cache entries", zap.Int("removed", removed))
			}
		}
	}

	engine, err := nli.NewEngine(c.NLI, c.Pipeline.Seed(), store, c.Cache.TTL(), zap.L())
	if err != nil {
		return nil, nil, err
	}
	if engine != nil {
		zap.L().Debug("NLI engine enabled", zap.String("provider", c.NLI.Provider), zap.String("model", c.NLI.Model))
	}

	done := func() {
		if o, ok := store.(cache.Observable); ok {
			stats := o.Stats()
			zap.L().Debug("NLI cache",
				zap.Int64("hits", stats.Hits),
				zap.Int64("misses", stats.Misses),
				zap.Int("entries", stats.Entries),
			)
		}
	}

	return pipeline.NewPipeline(c.Pipeline, engine, zap.L()), done, nil
}
