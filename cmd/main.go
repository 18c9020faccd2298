package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xhad/coverletter/pkg/config"
	"github.com/xhad/coverletter/pkg/logger"
)

const app = "coverletter"

var (
	cfgFile   string
	debug     bool
	jsonLogs  bool
	resumeIdx string
	jdIdx     string

	cfg *config.Config
	log *zap.Logger

	rootCmd = &cobra.Command{
		Use:               app,
		Short:             "coverletter writes and scores cover letters from a resume and a job description",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yaml, then ~/.config/coverletter/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&jsonLogs, "json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringVar(&resumeIdx, "resume-index", "resume", "name of the resume index")
	rootCmd.PersistentFlags().StringVar(&jdIdx, "jd-index", "job_description", "name of the job description index")
}

func setup(_ *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	var err error
	cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return validationError(errs)
	}

	log, err = logger.New(jsonLogs || cfg.Log.JSON, debug || cfg.Log.Debug)
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}
	return nil
}

func validationError(errs []config.ValidationError) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
}

func main() {
	err := rootCmd.Execute()
	if log != nil {
		_ = log.Sync()
	}
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
