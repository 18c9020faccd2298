package scorer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/xhad/coverletter/internal/models"
	"github.com/xhad/coverletter/internal/types"
)

const (
	DefaultK     = 5
	DefaultQuery = "What are the specific requirements and qualifications?"
)

// Searcher is the retrieval surface the scorer needs.
type Searcher interface {
	Query(ctx context.Context, index types.Index, query string, k int) (string, error)
	Nearest(ctx context.Context, index types.Index, text string) (models.Match, bool, error)
}

type ScorerConfig struct {
	K     int
	Query string
}

// Scorer rates how well a resume covers each job requirement.
type Scorer struct {
	searcher Searcher
	splitter types.Splitter
	config   ScorerConfig
}

// RankedScore is one entry of a ScoreSet in display order.
type RankedScore struct {
	Statement string
	Score     float64
}

func NewWithConfig(config ScorerConfig, searcher Searcher, splitter types.Splitter) (*Scorer, error) {
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if splitter == nil {
		return nil, errors.New("splitter is required")
	}
	if config.K <= 0 {
		config.K = DefaultK
	}
	if strings.TrimSpace(config.Query) == "" {
		config.Query = DefaultQuery
	}
	return &Scorer{searcher: searcher, splitter: splitter, config: config}, nil
}

// Score retrieves the requirement text of jd, re-splits it into statements
// and scores each statement against its nearest resume chunk.
func (s *Scorer) Score(ctx context.Context, resume, jd types.Index) (models.ScoreSet, error) {
	requirements, err := s.searcher.Query(ctx, jd, s.config.Query, s.config.K)
	if err != nil {
		return nil, fmt.Errorf("retrieve requirements: %w", err)
	}

	statements, err := s.splitter.Split(requirements)
	if err != nil {
		return nil, fmt.Errorf("split requirements: %w", err)
	}

	scores := make(models.ScoreSet)
	for _, statement := range statements {
		statement = strings.TrimSpace(statement)
		if statement == "" {
			continue
		}
		if _, seen := scores[statement]; seen {
			continue
		}

		match, ok, err := s.searcher.Nearest(ctx, resume, statement)
		if err != nil {
			return nil, fmt.Errorf("match %q: %w", statement, err)
		}
		if !ok {
			continue
		}
		scores[statement] = Percent(match.Distance)
	}
	return scores, nil
}

// Percent converts a cosine distance into a similarity percentage in [0, 100]
// rounded to two decimals. NaN distances score 0.
func Percent(distance float64) float64 {
	if math.IsNaN(distance) {
		return 0
	}
	p := (1 - distance) * 100
	p = math.Max(0, math.Min(100, p))
	return math.Round(p*100) / 100
}

// Ranked orders scores from best to worst, ties broken by statement.
func Ranked(scores models.ScoreSet) []RankedScore {
	ranked := make([]RankedScore, 0, len(scores))
	for statement, score := range scores {
		ranked = append(ranked, RankedScore{Statement: statement, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Statement < ranked[j].Statement
	})
	return ranked
}
