// Package pipeline wires dataset loading, story building, narration and
// rendering into the operations the CLI and server expose.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ppiankov/lifestory/internal/cache"
	"github.com/ppiankov/lifestory/internal/dataset"
	"github.com/ppiankov/lifestory/internal/llm"
	"github.com/ppiankov/lifestory/internal/logging"
	"github.com/ppiankov/lifestory/internal/model"
	"github.com/ppiankov/lifestory/internal/render"
	"github.com/ppiankov/lifestory/internal/story"
)

// Pipeline orchestrates Load → Resolve → Build → Narrate → Render
type Pipeline struct {
	config     *model.Config
	store      *dataset.Store
	fetcher    *Fetcher
	builder    *story.Builder
	renderer   *render.Renderer
	summarizer *llm.Summarizer // nil unless narration is on
	narrate    bool

	fetchMu sync.Mutex
	refresh bool
}

// Option customizes a pipeline
type Option func(*Pipeline)

// WithNarration attaches a narrative to every built story
func WithNarration(on bool) Option {
	return func(p *Pipeline) { p.narrate = on }
}

// WithSummarizer replaces the configured LLM summarizer
func WithSummarizer(s *llm.Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// WithRefresh re-downloads a remote dataset on first use
func WithRefresh(on bool) Option {
	return func(p *Pipeline) { p.refresh = on }
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, opts ...Option) *Pipeline {
	var c cache.Cache
	if cfg.Cache.Enabled {
		c = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	p := &Pipeline{
		config:   cfg,
		store:    dataset.NewStore(c, cfg.Dataset.Encoding),
		fetcher:  NewFetcher(cfg.Dataset.FetchTimeout, cfg.Dataset.UserAgent, cfg.Dataset.MaxBytes),
		builder:  story.NewBuilder(cfg.Selection, cfg.Render.Tooltip),
		renderer: render.NewRenderer(cfg.Render),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.narrate && p.summarizer == nil && cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			logging.Warnf("failed to initialize LLM provider: %v", err)
		} else {
			p.summarizer = s
		}
	}
	return p
}

// Options are the values a selection form offers
type Options struct {
	Countries   []string `json:"countries"`
	Genders     []string `json:"genders"`
	MinYear     int      `json:"min_year"`
	MaxYear     int      `json:"max_year"`
	DefaultYear int      `json:"default_year"`
}

// Result is one built story
type Result struct {
	Story    *story.Story
	Facts    story.Facts
	Duration time.Duration
}

// Output is a built story rendered to a downloadable document
type Output struct {
	*Result
	Document []byte
	FileName string
}

// Dataset loads (or reuses) the configured dataset
func (p *Pipeline) Dataset(ctx context.Context) (*dataset.Dataset, error) {
	path := p.config.Dataset.Path
	if IsRemote(path) {
		p.fetchMu.Lock()
		local, err := p.fetcher.Download(ctx, path, filepath.Join(p.config.Cache.Dir, "datasets"), p.refresh)
		if err == nil {
			p.refresh = false
		}
		p.fetchMu.Unlock()
		if err != nil {
			return nil, &dataset.LoadError{Path: path, Err: err}
		}
		path = local
	}
	return p.store.Load(path)
}

// Options lists countries and genders in file order plus the year bounds
func (p *Pipeline) Options(ctx context.Context) (*Options, error) {
	ds, err := p.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return &Options{
		Countries:   ds.Countries(),
		Genders:     ds.Genders(),
		MinYear:     p.config.Selection.MinYear,
		MaxYear:     p.config.Selection.MaxYear,
		DefaultYear: p.config.Selection.DefaultYear,
	}, nil
}

// Build produces the story for a selection
func (p *Pipeline) Build(ctx context.Context, sel model.Selection) (*Result, error) {
	start := time.Now()

	ds, err := p.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	st, err := p.builder.Build(ds, sel)
	if err != nil {
		return nil, err
	}

	facts := story.ComputeFacts(st)
	if p.narrate {
		// never fails; provider errors fall back to the facts summary
		st = st.WithNarrative(p.summarizer.GenerateNarrative(ctx, facts))
	}

	res := &Result{Story: st, Facts: facts, Duration: time.Since(start)}
	logging.Debugf("built story for %s/%s/%d in %v", sel.Country, sel.Gender, sel.Year, res.Duration)
	return res, nil
}

// Embed renders the inline player markup
func (p *Pipeline) Embed(res *Result) (string, error) {
	return p.renderer.RenderEmbed(res.Story)
}

// Generate builds and renders the downloadable document
func (p *Pipeline) Generate(ctx context.Context, sel model.Selection) (*Output, error) {
	res, err := p.Build(ctx, sel)
	if err != nil {
		return nil, err
	}
	doc, err := p.renderer.RenderFile(res.Story)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return &Output{
		Result:   res,
		Document: doc,
		FileName: render.FileName(sel.Country),
	}, nil
}

// WriteSnapshots writes one PNG per slide into dir and returns the paths
func (p *Pipeline) WriteSnapshots(res *Result, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}

	w, h := p.config.Render.Width, p.config.Render.Height
	var paths []string
	for _, sl := range res.Story.Slides {
		img, err := render.Snapshot(res.Story, sl, w, h)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, render.SnapshotName(res.Story.Selection.Country, sl.Number, sl.Name))
		if err := os.WriteFile(path, img, 0644); err != nil {
			return paths, fmt.Errorf("write snapshot: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
