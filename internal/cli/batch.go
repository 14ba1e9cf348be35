package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/lifestory/internal/pipeline"
	"github.com/ppiankov/lifestory/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Build stories for many selections in parallel",
	Long: `Batch builds one story per line of the input file:
- Lines are country,gender,year (quote country names containing commas)
- Blank lines and lines starting with # are skipped, duplicates dropped
- Stories are built concurrently on a fixed number of workers
- Each story is written as Life-Expectancy-<country>-<gender>-<year>.html

Example:
  lifestory batch selections.csv
  lifestory batch selections.csv --concurrency 8 --output-dir ./stories`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./lifestory-stories", "output directory for stories")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&refresh, "refresh", false, "re-download a remote dataset")

	batchCmd.Flags().BoolVar(&narrate, "narrate", false, "add a narrative paragraph above each story")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider for the narrative (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLLMFlags(cfg)
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	workers := cfg.Concurrency.Workers

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Lifestory Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Dataset:      %s\n", cfg.Dataset.Path)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if narrate && cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	p := pipeline.NewPipeline(cfg, pipeline.WithNarration(narrate), pipeline.WithRefresh(refresh))

	// load once up front so a broken dataset fails before any worker starts
	if _, err := p.Dataset(ctx); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "⚙️  Building stories with %d workers...\n\n", workers)

	start := time.Now()
	processor := worker.NewBatchProcessor(p, workers, outputDir)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil && len(results) == 0 {
		return fmt.Errorf("process batch: %w", err)
	}

	successCount := 0
	failureCount := 0
	for _, result := range results {
		sel := result.Selection
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s/%s/%d: %v\n", sel.Country, sel.Gender, sel.Year, result.Error)
			continue
		}
		successCount++
		note := ""
		if result.EmptySlides > 0 {
			note = fmt.Sprintf(" (%d empty slides)", result.EmptySlides)
		}
		fmt.Fprintf(os.Stderr, "✓ %s/%s/%d → %s%s\n", sel.Country, sel.Gender, sel.Year, result.Path, note)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d selections\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  Stopped:   %v\n", err)
	}
	fmt.Fprintf(os.Stderr, "  Duration:  %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d selections failed", failureCount)
	}
	return nil
}
