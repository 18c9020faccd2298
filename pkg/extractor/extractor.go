package extractor

import (
	"context"
	"errors"
	"fmt"

	"github.com/xhad/coverletter/internal/models"
	"github.com/xhad/coverletter/internal/types"
)

// DefaultQueries are the fixed questions asked for each topic.
var DefaultQueries = map[models.Topic]string{
	models.TopicTechnicalSkills:     "What are the candidate's technical skills, programming languages, and tools?",
	models.TopicSoftSkills:          "What are the candidate's soft skills, leadership abilities, and interpersonal skills?",
	models.TopicExperience:          "What are the candidate's most relevant work experiences, projects, and achievements?",
	models.TopicEducation:           "What is the candidate's educational background, degrees, and certifications?",
	models.TopicJobRequirements:     "What are the key technical requirements and qualifications for this position?",
	models.TopicJobResponsibilities: "What are the main responsibilities and duties of this role?",
}

const DefaultK = 3

// Querier is the retrieval operation the extractor runs per topic.
type Querier interface {
	Query(ctx context.Context, index types.Index, query string, k int) (string, error)
}

// Extractor runs the topic queries against the resume and job description indexes.
type Extractor struct {
	querier Querier
	queries map[models.Topic]string
	k       int
}

func New(querier Querier, k int) (*Extractor, error) {
	if querier == nil {
		return nil, errors.New("querier is required")
	}
	if k <= 0 {
		k = DefaultK
	}
	return &Extractor{querier: querier, queries: DefaultQueries, k: k}, nil
}

// Extract returns a bundle holding every topic. The first failed retrieval aborts.
func (e *Extractor) Extract(ctx context.Context, resume, jd types.Index) (models.Bundle, error) {
	bundle := make(models.Bundle, len(e.queries))

	for _, topic := range models.ResumeTopics {
		if err := e.extract(ctx, bundle, resume, topic); err != nil {
			return nil, err
		}
	}
	for _, topic := range models.JobTopics {
		if err := e.extract(ctx, bundle, jd, topic); err != nil {
			return nil, err
		}
	}

	return bundle, nil
}

func (e *Extractor) extract(ctx context.Context, bundle models.Bundle, index types.Index, topic models.Topic) error {
	text, err := e.querier.Query(ctx, index, e.queries[topic], e.k)
	if err != nil {
		return fmt.Errorf("extract %s: %w", topic, err)
	}
	bundle[topic] = text
	return nil
}
