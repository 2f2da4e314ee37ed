package chunker

import (
	"strings"

	"github.com/dgallion1/docoutline/internal/outline"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap between consecutive chunks in tokens.
	MinChunk     int // Minimum chunk size to emit.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
		MinChunk:     100,
	}
}

// withDefaults fills unset fields. Overlap 0 is a valid setting, so only a
// negative overlap falls back to the default.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = d.ChunkOverlap
	}
	if c.MinChunk <= 0 {
		c.MinChunk = d.MinChunk
	}
	return c
}

// Chunk is a sized text segment with its section context, ready for indexing.
// PageStart and PageEnd cover the paragraphs the chunk's text came from,
// including any overlap carried from the previous chunk.
type Chunk struct {
	Text       string   `json:"text" yaml:"text"`
	Index      int      `json:"index" yaml:"index"`           // Sequence number within document
	Breadcrumb []string `json:"breadcrumb" yaml:"breadcrumb"` // Section heading, empty for leading text
	PageStart  int      `json:"page_start" yaml:"page_start"`
	PageEnd    int      `json:"page_end" yaml:"page_end"`
}

// unit is a paragraph or sentence and the page it was read from.
type unit struct {
	text string
	page int
}

// piece is packed chunk text with the page span of its units.
type piece struct {
	text        string
	first, last int
}

// ChunkSections splits each section's paragraphs into chunks. Chunks never
// cross a section boundary. Sections without per-paragraph pages give their
// chunks the whole section range.
func ChunkSections(sections []outline.Section, cfg Config) []Chunk {
	cfg = cfg.withDefaults()

	var chunks []Chunk
	for _, sec := range sections {
		var breadcrumb []string
		if sec.Heading != nil {
			breadcrumb = []string{*sec.Heading}
		}
		for _, p := range splitSection(sec, cfg) {
			if EstimateTokens(p.text) < cfg.MinChunk {
				continue
			}
			start, end := p.first, p.last
			if start == 0 || end == 0 {
				start, end = sec.PageStart, sec.PageEnd
			}
			chunks = append(chunks, Chunk{
				Text:       p.text,
				Index:      len(chunks),
				Breadcrumb: breadcrumb,
				PageStart:  start,
				PageEnd:    end,
			})
		}
	}
	return chunks
}

// splitSection packs paragraphs into chunks of about cfg.ChunkSize tokens.
// Paragraphs larger than a whole chunk are split by sentence.
func splitSection(sec outline.Section, cfg Config) []piece {
	var units []unit
	var result []piece
	flushUnits := func() {
		result = append(result, pack(units, "\n\n", cfg)...)
		units = units[:0]
	}

	for i, para := range sec.Paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		page := sec.PageOf(i)
		if EstimateTokens(para) > cfg.ChunkSize {
			flushUnits()
			var sentences []unit
			for _, s := range splitSentences(para) {
				sentences = append(sentences, unit{text: s, page: page})
			}
			result = append(result, pack(sentences, " ", cfg)...)
			continue
		}
		units = append(units, unit{text: para, page: page})
	}
	flushUnits()
	return result
}

// pack greedily joins units with sep until the next unit would overflow the
// target, then starts a new chunk seeded with the tail of the previous one.
func pack(units []unit, sep string, cfg Config) []piece {
	var result []piece
	var current strings.Builder
	var members []unit
	currentTokens := 0
	first := 0

	emit := func() {
		last := first
		if len(members) > 0 {
			last = members[len(members)-1].page
		}
		result = append(result, piece{text: current.String(), first: first, last: last})
	}

	for _, u := range units {
		uTokens := EstimateTokens(u.text)
		if currentTokens+uTokens > cfg.ChunkSize && currentTokens > 0 {
			emit()
			prev, prevFirst := current.String(), first
			current.Reset()
			currentTokens = 0
			first = 0
			if overlap := overlapTail(prev, cfg.ChunkOverlap); overlap != "" {
				current.WriteString(overlap)
				currentTokens = EstimateTokens(overlap)
				first = overlapPage(members, len(strings.Fields(overlap)), prevFirst)
			}
			members = members[:0]
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		if first == 0 {
			first = u.page
		}
		current.WriteString(u.text)
		members = append(members, u)
		currentTokens += uTokens
	}

	if currentTokens > 0 {
		emit()
	}
	return result
}

// overlapPage returns the page of the unit in which the last words of
// members begin. Words reaching past members came from the chunk's own
// seed, which starts on fallback.
func overlapPage(members []unit, words, fallback int) int {
	for i := len(members) - 1; i >= 0; i-- {
		words -= len(strings.Fields(members[i].text))
		if words <= 0 {
			return members[i].page
		}
	}
	return fallback
}

// splitSentences breaks on '.', '!' or '?' followed by a space.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if text[i+1] == ' ' {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					sentences = append(sentences, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// overlapTail returns the last tokens worth of words from text, or "" when
// text is no longer than the overlap itself.
func overlapTail(text string, tokens int) string {
	words := strings.Fields(text)
	n := int(float64(tokens) / tokensPerWord)
	if n <= 0 || len(words) <= n {
		return ""
	}
	return strings.Join(words[len(words)-n:], " ")
}
