package pipeline

import (
	"io"
	"log/slog"
	"time"

	"github.com/dgallion1/docoutline/internal/chunker"
	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/parser"
)

// Options controls a single extraction run.
type Options struct {
	Classifier outline.Classifier
	Policy     outline.FlushPolicy
	SkipBlank  bool

	Chunk    bool // Also split sections into chunks
	ChunkCfg chunker.Config
}

// DefaultOptions uses the default classifier and FlushOnHeading.
func DefaultOptions() Options {
	return Options{
		Classifier: outline.DefaultClassifier(),
		Policy:     outline.FlushOnHeading,
		ChunkCfg:   chunker.DefaultConfig(),
	}
}

// OptionsFromConfig returns the options described by cfg, chunking disabled.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Classifier: cfg.Classifier(),
		Policy:     cfg.Policy(),
		SkipBlank:  cfg.SkipBlankFragments,
		ChunkCfg:   cfg.ChunkConfig(),
	}
}

// Result is the outline of one document.
type Result struct {
	Title    string            `json:"title" yaml:"title"`
	Filename string            `json:"filename" yaml:"filename"`
	Pages    int               `json:"pages" yaml:"pages"`
	Sections []outline.Section `json:"sections" yaml:"sections"`
	Chunks   []chunker.Chunk   `json:"chunks,omitempty" yaml:"chunks,omitempty"`
}

// Processor runs parse, build and optional chunking for one document.
type Processor struct {
	log *slog.Logger
}

func NewProcessor(log *slog.Logger) *Processor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Processor{log: log}
}

// Process decodes r according to filename's extension and builds its outline.
// Unreadable documents fail with *outline.DocumentReadError.
func (p *Processor) Process(r io.Reader, filename string, opts Options) (*Result, error) {
	log := p.log.With("filename", filename)
	start := time.Now()

	// Phase 1: Parse
	ps, err := parser.ForFile(filename)
	if err != nil {
		return nil, err
	}
	doc, err := ps.Parse(r, filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		return nil, err
	}

	res, err := p.Outline(doc, opts)
	if err != nil {
		log.Error("build failed", "error", err)
		return nil, err
	}
	res.Title = parser.Title(filename)
	res.Filename = filename

	log.Info("outline extracted",
		"pages", res.Pages,
		"sections", len(res.Sections),
		"chunks", len(res.Chunks),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// ProcessFile is Process for a path on disk.
func (p *Processor) ProcessFile(path string, opts Options) (*Result, error) {
	doc, err := parser.OpenFile(path)
	if err != nil {
		return nil, err
	}
	res, err := p.Outline(doc, opts)
	if err != nil {
		return nil, err
	}
	res.Title = parser.Title(path)
	res.Filename = path
	return res, nil
}

// Outline builds sections (and chunks when requested) from an open document.
func (p *Processor) Outline(doc outline.Document, opts Options) (*Result, error) {
	// Phase 2: Build
	b := &outline.Builder{
		Classifier: opts.Classifier,
		Policy:     opts.Policy,
		SkipBlank:  opts.SkipBlank,
		Log:        p.log,
	}
	sections, err := b.Build(doc)
	if err != nil {
		return nil, err
	}
	if sections == nil {
		sections = []outline.Section{}
	}

	res := &Result{Pages: doc.NumPage(), Sections: sections}

	// Phase 3: Chunk
	if opts.Chunk {
		res.Chunks = chunker.ChunkSections(sections, opts.ChunkCfg)
	}
	return res, nil
}
