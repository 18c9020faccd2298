package composer

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xhad/coverletter/internal/models"
	"github.com/xhad/coverletter/internal/types"
	"github.com/xhad/coverletter/pkg/llm"
	"github.com/xhad/coverletter/pkg/logger"
)

var (
	ErrExtraction  = errors.New("extraction failed")
	ErrGeneration  = errors.New("generation failed")
	ErrEmptyLetter = errors.New("empty letter")
)

const (
	defaultMaxLogLength = 200

	stageExtraction = "extraction"
	stageGeneration = "generation"
)

// Bundler produces the per-topic context for one letter.
type Bundler interface {
	Extract(ctx context.Context, resume, jd types.Index) (models.Bundle, error)
}

// Chatter is the generation service.
type Chatter interface {
	Chat(ctx context.Context, system, user string) (string, error)
	Provider() string
	Model() string
}

// Composer turns a resume and job description index pair into a cover letter.
type Composer struct {
	bundler   Bundler
	chat      Chatter
	logger    *zap.Logger
	maxLogLen int
}

func New(bundler Bundler, chat Chatter, log *zap.Logger) (*Composer, error) {
	if bundler == nil {
		return nil, errors.New("bundler is required")
	}
	if chat == nil {
		return nil, errors.New("chat engine is required")
	}
	return &Composer{
		bundler:   bundler,
		chat:      chat,
		logger:    logger.WithModel(log, chat.Provider(), chat.Model()),
		maxLogLen: defaultMaxLogLength,
	}, nil
}

// Generate returns the letter text. On any failure, including a panic in a
// collaborator, the error is logged and returned with an empty letter.
func (c *Composer) Generate(ctx context.Context, resume, jd types.Index, hrEmail string) (letter string, err error) {
	log := c.logger.With(zap.String(logger.FieldRequestID, uuid.NewString()))
	stage, stageErr := stageExtraction, ErrExtraction

	defer func() {
		if r := recover(); r != nil {
			letter = ""
			err = fmt.Errorf("%w: panic: %v", stageErr, r)
		}
		if err != nil {
			log.Error("error generating cover letter", zap.String(logger.FieldStage, stage), zap.Error(err))
		}
	}()

	bundle, err := c.bundler.Extract(ctx, resume, jd)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	user, err := BuildUserPrompt(bundle, hrEmail)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	log.Debug("sending prompt",
		zap.Int("prompt_length", utf8.RuneCountInString(user)),
		zap.String("prompt_preview", logger.TruncateForLog(user, c.maxLogLen)),
	)

	stage, stageErr = stageGeneration, ErrGeneration
	letter, err = c.chat.Chat(ctx, SystemPrompt, user)
	if errors.Is(err, llm.ErrEmptyResponse) {
		return "", fmt.Errorf("%w: %w", ErrEmptyLetter, err)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	log.Info("generated cover letter", zap.Int("letter_length", utf8.RuneCountInString(letter)))
	return letter, nil
}
