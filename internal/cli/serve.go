package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/lifestory/internal/pipeline"
	"github.com/ppiankov/lifestory/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive story form over HTTP",
	Long: `Serve starts a web page with a country dropdown, a gender choice and a
birth year field. "Create Story" renders the story inline and offers the
standalone HTML file for download.

Example:
  lifestory serve
  lifestory serve --addr 127.0.0.1:9000 --narrate`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
	serveCmd.Flags().BoolVar(&refresh, "refresh", false, "re-download a remote dataset")
	serveCmd.Flags().BoolVar(&narrate, "narrate", false, "add a narrative paragraph above each story")
	serveCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider for the narrative (openai, anthropic, ollama)")
	serveCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLLMFlags(cfg)
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.NewPipeline(cfg, pipeline.WithNarration(narrate), pipeline.WithRefresh(refresh))

	// fail fast on a missing or malformed dataset
	opts, err := p.Options(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d countries from %s\n", len(opts.Countries), cfg.Dataset.Path)

	return server.New(p, cfg.Server).ListenAndServe(ctx)
}
