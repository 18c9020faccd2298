package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xhad/coverletter/internal/types"
	"github.com/xhad/coverletter/pkg/composer"
	"github.com/xhad/coverletter/pkg/config"
	"github.com/xhad/coverletter/pkg/extractor"
	"github.com/xhad/coverletter/pkg/llm"
	"github.com/xhad/coverletter/pkg/processor"
	"github.com/xhad/coverletter/pkg/retriever"
	"github.com/xhad/coverletter/pkg/scorer"
	"github.com/xhad/coverletter/pkg/scraper"
	"github.com/xhad/coverletter/pkg/store"
)

type inputFlags struct {
	resume  string
	jd      string
	jdURL   string
	rebuild bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.resume, "resume", "r", "", "path to the resume text file")
	cmd.Flags().StringVar(&f.jd, "jd", "", "path to the job description text file")
	cmd.Flags().StringVar(&f.jdURL, "jd-url", "", "URL of the job posting to fetch")
	cmd.Flags().BoolVar(&f.rebuild, "rebuild", false, "drop cached indexes before loading")
	cmd.MarkFlagsMutuallyExclusive("jd", "jd-url")
}

var (
	generateFlags inputFlags
	hrEmail       string
	outFile       string
	scoreFlags    inputFlags
	indexFlags    inputFlags

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate a cover letter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context())
		},
	}

	scoreCmd = &cobra.Command{
		Use:   "score",
		Short: "Score how well the resume covers each job requirement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScore(cmd.Context())
		},
	}

	indexCmd = &cobra.Command{
		Use:   "index",
		Short: "Build or refresh the resume and job description indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context())
		},
	}
)

func init() {
	generateFlags.register(generateCmd)
	generateCmd.Flags().StringVar(&hrEmail, "hr-email", "", "address the letter is sent to")
	generateCmd.Flags().StringVarP(&outFile, "out", "o", "", "write the letter to this file instead of stdout")

	scoreFlags.register(scoreCmd)
	indexFlags.register(indexCmd)

	rootCmd.AddCommand(generateCmd, scoreCmd, indexCmd)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
}

// pipeline holds the components shared by every subcommand.
type pipeline struct {
	splitter  *processor.Processor
	store     types.IndexStore
	retriever *retriever.Retriever
	close     func()
}

func newPipeline(ctx context.Context, cfg *config.Config, log *zap.Logger) (*pipeline, error) {
	splitter, err := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    cfg.Processor.ChunkSize,
		ChunkOverlap: cfg.Processor.Overlap(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize processor: %w", err)
	}

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Provider:  cfg.Embedder.Provider,
		Model:     cfg.Embedder.Model,
		BaseURL:   cfg.Embedder.BaseURL,
		APIKey:    cfg.Embedder.APIKey,
		Dimension: cfg.Embedder.Dimension,
		BatchSize: cfg.Embedder.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	p := &pipeline{splitter: splitter, close: func() {}}
	switch cfg.Store.Backend {
	case config.BackendPGVector:
		vs, err := store.NewWithConfig(ctx, store.VectorStoreConfig{
			ConnString:  cfg.Store.DatabaseURL,
			TablePrefix: cfg.Store.TablePrefix,
			VectorDim:   cfg.Store.VectorDim,
		}, splitter, embedder, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vector store: %w", err)
		}
		p.store, p.close = vs, vs.Close
	default:
		fs, err := store.NewFileStore(store.FileStoreConfig{Path: cfg.Store.Path}, splitter, embedder, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize index store: %w", err)
		}
		p.store = fs
	}

	p.retriever, err = retriever.New(embedder)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// loadIndexes reads the inputs and loads or builds both indexes.
func (p *pipeline) loadIndexes(ctx context.Context, in inputFlags) (resume, jd types.Index, err error) {
	if in.resume == "" {
		return nil, nil, errors.New("--resume is required")
	}
	if in.jd == "" && in.jdURL == "" {
		return nil, nil, errors.New("one of --jd or --jd-url is required")
	}

	resumeText, err := os.ReadFile(in.resume)
	if err != nil {
		return nil, nil, fmt.Errorf("reading resume: %w", err)
	}
	jdText, err := readJobDescription(ctx, in)
	if err != nil {
		return nil, nil, err
	}

	if in.rebuild {
		for _, name := range []string{resumeIdx, jdIdx} {
			if err := p.store.Remove(ctx, name); err != nil {
				return nil, nil, fmt.Errorf("removing index %s: %w", name, err)
			}
		}
	}

	spinner := getSpinner("Loading indexes...")
	defer spinner.Finish()

	resume, err = p.store.LoadOrBuild(ctx, string(resumeText), resumeIdx)
	if err != nil {
		return nil, nil, fmt.Errorf("resume index: %w", err)
	}
	jd, err = p.store.LoadOrBuild(ctx, jdText, jdIdx)
	if err != nil {
		return nil, nil, fmt.Errorf("job description index: %w", err)
	}

	log.Info("indexes ready",
		zap.String("resume", resume.Name()), zap.Int("resume_chunks", resume.Len()),
		zap.String("jd", jd.Name()), zap.Int("jd_chunks", jd.Len()),
	)
	return resume, jd, nil
}

func readJobDescription(ctx context.Context, in inputFlags) (string, error) {
	if in.jd != "" {
		data, err := os.ReadFile(in.jd)
		if err != nil {
			return "", fmt.Errorf("reading job description: %w", err)
		}
		return string(data), nil
	}

	s, err := scraper.NewWithConfig(scraper.ScraperConfig{
		RateLimit: cfg.Scraper.RateLimit,
		Timeout:   cfg.Scraper.Timeout,
		UserAgent: cfg.Scraper.UserAgent,
		Selectors: cfg.Scraper.Selectors,
	}, log)
	if err != nil {
		return "", fmt.Errorf("failed to initialize scraper: %w", err)
	}

	spinner := getSpinner("Fetching job posting...")
	doc, err := s.Fetch(ctx, in.jdURL)
	spinner.Finish()
	if err != nil {
		return "", err
	}
	color.Green("✓ Fetched %q (%d characters)", doc.Title, len(doc.Content))
	return doc.Content, nil
}

func runGenerate(ctx context.Context) error {
	if errs := cfg.ValidateChat(); len(errs) > 0 {
		return validationError(errs)
	}

	p, err := newPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer p.close()

	chat, err := llm.NewWithConfig(ctx, llm.ChatConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %w", err)
	}

	ex, err := extractor.New(p.retriever, cfg.Retrieval.K)
	if err != nil {
		return err
	}
	c, err := composer.New(ex, chat, log)
	if err != nil {
		return err
	}

	resume, jd, err := p.loadIndexes(ctx, generateFlags)
	if err != nil {
		return err
	}

	spinner := getSpinner("Writing cover letter...")
	letter, err := c.Generate(ctx, resume, jd, hrEmail)
	spinner.Finish()
	if err != nil {
		return err
	}

	if outFile != "" {
		if err := os.WriteFile(outFile, []byte(letter+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing letter: %w", err)
		}
		color.Green("✓ Cover letter written to %s", outFile)
		return nil
	}
	fmt.Println(letter)
	return nil
}

func runScore(ctx context.Context) error {
	p, err := newPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer p.close()

	s, err := scorer.NewWithConfig(scorer.ScorerConfig{
		K:     cfg.Retrieval.ScoreK,
		Query: cfg.Retrieval.ScoreQuery,
	}, p.retriever, p.splitter)
	if err != nil {
		return err
	}

	resume, jd, err := p.loadIndexes(ctx, scoreFlags)
	if err != nil {
		return err
	}

	scores, err := s.Score(ctx, resume, jd)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		color.Yellow("No requirements could be scored.")
		return nil
	}

	for _, r := range scorer.Ranked(scores) {
		paint := color.RedString
		switch {
		case r.Score >= 70:
			paint = color.GreenString
		case r.Score >= 40:
			paint = color.YellowString
		}
		fmt.Printf("%s  %s\n", paint("%6.2f%%", r.Score), strings.ReplaceAll(r.Statement, "\n", " "))
	}
	return nil
}

func runIndex(ctx context.Context) error {
	p, err := newPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer p.close()

	resume, jd, err := p.loadIndexes(ctx, indexFlags)
	if err != nil {
		return err
	}
	color.Green("✓ %s: %d chunks", resume.Name(), resume.Len())
	color.Green("✓ %s: %d chunks", jd.Name(), jd.Len())
	return nil
}
