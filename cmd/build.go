package main

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/search-template/internal/config"
	"github.com/sells-group/search-template/internal/dedupe"
	"github.com/sells-group/search-template/internal/export"
	"github.com/sells-group/search-template/internal/pipeline"
)

var buildCmd = &cobra.Command{
	Use:   "build <feed>",
	Short: "Build search templates for a configured feed",
	Long:  "Runs one feed end to end and prints the run summary as JSON. Use `search-template feeds` to list the configured feeds.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		fc, ok := cfg.Feeds[name]
		if !ok {
			return eris.Errorf("unknown feed %q (configured: %s)", name, strings.Join(feedNames(cfg.Feeds), ", "))
		}
		fc = applyBuildFlags(cmd, fc)

		outDir := cfg.Output.Dir
		if cmd.Flags().Changed("output-dir") {
			outDir, _ = cmd.Flags().GetString("output-dir")
		}
		var writerOpts []export.WriterOption
		geoJSON, _ := cmd.Flags().GetBool("geojson")
		if geoJSON || cfg.Output.GeoJSON {
			writerOpts = append(writerOpts, export.WithGeoJSON())
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		var dedupeOpts []dedupe.Option
		if cfg.Dedupe.Workers > 0 {
			dedupeOpts = append(dedupeOpts, dedupe.WithWorkers(cfg.Dedupe.Workers))
		}
		if cfg.Dedupe.ParallelMin > 0 {
			dedupeOpts = append(dedupeOpts, dedupe.WithParallelMin(cfg.Dedupe.ParallelMin))
		}
		r := pipeline.New(name, fc, export.NewWriter(outDir, writerOpts...),
			pipeline.WithDeduper(dedupe.New(dedupeOpts...)),
			pipeline.WithLoadWorkers(cfg.Dedupe.LoadWorkers),
			pipeline.WithDryRun(dryRun),
		)

		result, err := r.Run(cmd.Context())
		if err != nil {
			return eris.Wrapf(err, "build %s", name)
		}

		zap.L().Info("build complete",
			zap.String("feed", name),
			zap.String("output_dir", outDir),
			zap.Int("templates", len(result.Batches)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// applyBuildFlags overlays explicitly set flags on the feed config.
func applyBuildFlags(cmd *cobra.Command, fc config.FeedConfig) config.FeedConfig {
	flags := cmd.Flags()
	if flags.Changed("input") {
		fc.Input, _ = flags.GetString("input")
	}
	if flags.Changed("exclusions") {
		fc.Exclusions, _ = flags.GetString("exclusions")
	}
	if flags.Changed("threshold") {
		fc.ThresholdMiles, _ = flags.GetFloat64("threshold")
	}
	if flags.Changed("max-passes") {
		fc.MaxPasses, _ = flags.GetInt("max-passes")
	}
	if flags.Changed("page-size") {
		fc.PageSize, _ = flags.GetInt("page-size")
	}
	return fc
}

func feedNames(feeds map[string]config.FeedConfig) []string {
	names := make([]string, 0, len(feeds))
	for n := range feeds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	buildCmd.Flags().String("input", "", "input file or directory (overrides the feed config)")
	buildCmd.Flags().String("output-dir", "", "directory for generated templates")
	buildCmd.Flags().String("exclusions", "", "exclusion rules YAML file")
	buildCmd.Flags().Float64("threshold", 0, "dedupe threshold in statute miles")
	buildCmd.Flags().Int("max-passes", dedupe.DefaultMaxPasses, "pass ceiling for passes mode")
	buildCmd.Flags().Int("page-size", 0, "max rows per template (0 = unlimited)")
	buildCmd.Flags().Bool("geojson", false, "also write a GeoJSON preview next to each template")
	buildCmd.Flags().Bool("dry-run", false, "plan batches without writing files")
	rootCmd.AddCommand(buildCmd)
}
