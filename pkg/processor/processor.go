package processor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

// DefaultSeparators split at paragraphs, then lines, then words, then characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// ProcessorConfig sizes chunks in runes. A zero ChunkSize selects 500 and, when
// ChunkOverlap is also zero, an overlap of 50; with an explicit ChunkSize a zero
// ChunkOverlap means no overlap.
type ProcessorConfig struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// Processor splits documents into overlapping chunks for indexing.
type Processor struct {
	config   ProcessorConfig
	splitter textsplitter.RecursiveCharacter
}

func NewWithConfig(config ProcessorConfig) (*Processor, error) {
	if config.ChunkSize == 0 {
		config.ChunkSize = 500
		if config.ChunkOverlap == 0 {
			config.ChunkOverlap = 50
		}
	}
	if len(config.Separators) == 0 {
		config.Separators = DefaultSeparators
	}
	if config.ChunkSize < 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", config.ChunkSize)
	}
	if config.ChunkOverlap < 0 || config.ChunkOverlap >= config.ChunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be non-negative and less than chunk size %d",
			config.ChunkOverlap, config.ChunkSize)
	}

	return &Processor{
		config: config,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(config.ChunkSize),
			textsplitter.WithChunkOverlap(config.ChunkOverlap),
			textsplitter.WithSeparators(config.Separators),
		),
	}, nil
}

// Config returns the effective configuration after defaults.
func (p *Processor) Config() ProcessorConfig {
	return p.config
}

// Split breaks text into chunks of at most ChunkSize runes. Empty input yields no chunks.
func (p *Processor) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	chunks, err := p.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}

	bounded := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		bounded = append(bounded, p.enforceLimit(chunk)...)
	}

	return bounded, nil
}

// enforceLimit hard-cuts a chunk that is still longer than ChunkSize into
// windows that share ChunkOverlap runes.
func (p *Processor) enforceLimit(chunk string) []string {
	if utf8.RuneCountInString(chunk) <= p.config.ChunkSize {
		return []string{chunk}
	}

	runes := []rune(chunk)
	step := p.config.ChunkSize - p.config.ChunkOverlap
	var parts []string
	for start := 0; ; start += step {
		end := min(start+p.config.ChunkSize, len(runes))
		parts = append(parts, string(runes[start:end]))
		if end == len(runes) {
			return parts
		}
	}
}
