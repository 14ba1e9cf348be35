package worker

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/lifestory/internal/model"
	"github.com/ppiankov/lifestory/internal/pipeline"
	"github.com/ppiankov/lifestory/internal/render"
)

// Generator builds and renders one story
type Generator interface {
	Generate(ctx context.Context, sel model.Selection) (*pipeline.Output, error)
}

// StoryJob generates one story and writes it to OutputDir
type StoryJob struct {
	Index     int
	Selection model.Selection
	Generator Generator
	OutputDir string
}

// Execute executes the story job
func (j *StoryJob) Execute(ctx context.Context) Result {
	res := &StoryResult{Index: j.Index, Selection: j.Selection}

	out, err := j.Generator.Generate(ctx, j.Selection)
	if err != nil {
		res.Error = err
		return res
	}

	for _, sl := range out.Story.Slides {
		if sl.Matches == 0 {
			res.EmptySlides++
		}
	}

	path := filepath.Join(j.OutputDir, render.SelectionFileName(j.Selection))
	if err := os.WriteFile(path, out.Document, 0644); err != nil {
		res.Error = fmt.Errorf("write %s: %w", path, err)
		return res
	}
	res.Path = path
	return res
}

// StoryResult represents the result of a story job
type StoryResult struct {
	Index       int
	Selection   model.Selection
	Path        string
	EmptySlides int
	Error       error
}

// GetError returns the error from the story result
func (r *StoryResult) GetError() error {
	return r.Error
}

// BatchProcessor generates many stories concurrently
type BatchProcessor struct {
	generator   Generator
	concurrency int
	outputDir   string
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(generator Generator, concurrency int, outputDir string) *BatchProcessor {
	return &BatchProcessor{
		generator:   generator,
		concurrency: concurrency,
		outputDir:   outputDir,
	}
}

// Process generates every selection and returns results in input order
func (b *BatchProcessor) Process(ctx context.Context, selections []model.Selection) ([]*StoryResult, error) {
	if len(selections) == 0 {
		return []*StoryResult{}, nil
	}
	if err := os.MkdirAll(b.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		for i, sel := range selections {
			if !pool.Submit(&StoryJob{Index: i, Selection: sel, Generator: b.generator, OutputDir: b.outputDir}) {
				break
			}
		}
		pool.Close()
	}()

	results := make([]*StoryResult, 0, len(selections))
	for r := range pool.Results() {
		results = append(results, r.(*StoryResult))
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results, ctx.Err()
}

// ProcessFile reads selections from a file and generates them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*StoryResult, error) {
	selections, err := ReadSelectionsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read selections: %w", err)
	}
	return b.Process(ctx, selections)
}

// ReadSelectionsFromFile reads country,gender,year lines. Blank lines and
// lines starting with # are skipped, duplicates dropped. Country names
// containing commas must be quoted.
func ReadSelectionsFromFile(filePath string) ([]model.Selection, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadSelections(file)
}

// ReadSelections parses selections from r
func ReadSelections(r io.Reader) ([]model.Selection, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	var selections []model.Selection
	seen := make(map[model.Selection]bool)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse selections: %w", err)
		}

		line, _ := reader.FieldPos(0)
		year, err := strconv.Atoi(strings.TrimSpace(record[2]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid year %q", line, record[2])
		}
		sel := model.Selection{
			Country: strings.TrimSpace(record[0]),
			Gender:  strings.TrimSpace(record[1]),
			Year:    year,
		}
		if sel.Country == "" || sel.Gender == "" {
			return nil, fmt.Errorf("line %d: country and gender are required", line)
		}

		if !seen[sel] {
			seen[sel] = true
			selections = append(selections, sel)
		}
	}

	return selections, nil
}
