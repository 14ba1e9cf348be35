package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/lifestory/internal/dataset"
	"github.com/ppiankov/lifestory/internal/model"
	"github.com/ppiankov/lifestory/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	country      string
	gender       string
	year         int
	outFile      string
	embedOnly    bool
	snapshotDir  string
	buildTimeout time.Duration
	refresh      bool
	narrate      bool
	llmProvider  string
	llmModel     string
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the life expectancy story for one selection",
	Long: `Build filters the dataset for one country, gender and birth year and
renders the seven slide story:
- Life expectancy and age distribution for the birth year
- Life expectancy over the years for the country
- Comparison with the subregion, the continent and the world

Example:
  lifestory build --country Japan --gender Female --year 1980
  lifestory build --country "Côte d'Ivoire" --gender Male --out story.html
  lifestory build --country Japan --gender Female --embed
  lifestory build --country Japan --gender Female --snapshots ./png --narrate`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVar(&country, "country", "", "country name as written in the dataset")
	buildCmd.Flags().StringVar(&gender, "gender", "", "gender as written in the dataset (e.g. Female, Male)")
	buildCmd.Flags().IntVar(&year, "year", 0, "birth year (default: selection.default_year)")
	_ = buildCmd.MarkFlagRequired("country")
	_ = buildCmd.MarkFlagRequired("gender")

	buildCmd.Flags().StringVarP(&outFile, "out", "o", "", "output HTML path, - for stdout (default: <output.dir>/Life-Expectancy-<country>.html)")
	buildCmd.Flags().BoolVar(&embedOnly, "embed", false, "print the inline player markup instead of a full document")
	buildCmd.Flags().StringVar(&snapshotDir, "snapshots", "", "also write one PNG preview per slide into this directory")
	buildCmd.Flags().DurationVar(&buildTimeout, "timeout", 2*time.Minute, "overall build timeout")
	buildCmd.Flags().BoolVar(&refresh, "refresh", false, "re-download a remote dataset")

	buildCmd.Flags().BoolVar(&narrate, "narrate", false, "add a narrative paragraph above the story")
	buildCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider for the narrative (openai, anthropic, ollama)")
	buildCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLLMFlags(cfg)

	sel := model.Selection{Country: country, Gender: gender, Year: year}
	if sel.Year == 0 {
		sel.Year = cfg.Selection.DefaultYear
	}

	ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
	defer cancel()

	p := pipeline.NewPipeline(cfg, pipeline.WithNarration(narrate), pipeline.WithRefresh(refresh))

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Building story for %s / %s / %d\n", sel.Country, sel.Gender, sel.Year)
		fmt.Fprintf(os.Stderr, "   Dataset: %s\n", cfg.Dataset.Path)
	}

	if embedOnly {
		res, err := p.Build(ctx, sel)
		if err != nil {
			return buildError(err)
		}
		embed, err := p.Embed(res)
		if err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), embed)
		return nil
	}

	out, err := p.Generate(ctx, sel)
	if err != nil {
		return buildError(err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Resolved %s (%s, %s, %s)\n", sel.Country,
			out.Story.Derived.CountryCode, out.Story.Derived.Subregion, out.Story.Derived.Continent)
		for _, sl := range out.Story.Slides {
			mark := "✓"
			if sl.Matches == 0 {
				mark = "✗"
			}
			fmt.Fprintf(os.Stderr, "%s Slide %d %-28s %d rows\n", mark, sl.Number, sl.Name, sl.Matches)
		}
		if n := out.Story.Narrative; n != nil {
			fmt.Fprintf(os.Stderr, "✓ Narrative from %s\n", n.Source)
			for _, w := range n.Warnings {
				fmt.Fprintf(os.Stderr, "   %s\n", w)
			}
		}
		fmt.Fprintf(os.Stderr, "✓ Built in %v\n", out.Duration.Round(time.Millisecond))
	}

	path := outFile
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(out.Document)
		return err
	}
	if path == "" {
		path = filepath.Join(cfg.Output.Dir, out.FileName)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, out.Document, 0644); err != nil {
		return fmt.Errorf("write story: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Story written to %s\n", path)

	if snapshotDir != "" {
		paths, err := p.WriteSnapshots(out.Result, snapshotDir)
		if err != nil {
			return fmt.Errorf("write snapshots: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ %d snapshots written to %s\n", len(paths), snapshotDir)
	}
	return nil
}

// applyLLMFlags lets command flags override the llm config section
func applyLLMFlags(cfg *model.Config) {
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if cfg.LLM.Provider == "ollama" && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
}

// buildError adds a hint for selections the dataset does not know
func buildError(err error) error {
	var notFound *dataset.NotFoundError
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w (run 'lifestory countries' to list valid names)", err)
	}
	return fmt.Errorf("build failed: %w", err)
}
