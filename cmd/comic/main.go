// Command comic turns one set of mad-libs answers into an illustrated comic
// without running the server. It reads a Field Map from a JSON file, runs the
// full pipeline and writes the Story Result as JSON.
//
// Usage:
//
//	comic -in fields.json -out story.json [-timeout 10m] [-env .env]
//
// Exit status is 0 on success, 1 on error and 2 when moderation rejects an
// answer.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phrazzld/madlib-comics/internal/config"
	"github.com/phrazzld/madlib-comics/internal/domain"
	"github.com/phrazzld/madlib-comics/internal/generation"
	"github.com/phrazzld/madlib-comics/internal/moderation"
	"github.com/phrazzld/madlib-comics/internal/naming"
	"github.com/phrazzld/madlib-comics/internal/platform/gemini"
	"github.com/phrazzld/madlib-comics/internal/platform/logger"
	"github.com/phrazzld/madlib-comics/internal/redact"
	"github.com/phrazzld/madlib-comics/internal/service"
)

const (
	exitOK       = 0
	exitError    = 1
	exitRejected = 2
)

// stdio names standard input and output for -in and -out.
const stdio = "-"

type options struct {
	in      string
	out     string
	envFile string
	timeout time.Duration
}

// generatorFactory builds the remote generator once configuration is known.
type generatorFactory func(ctx context.Context, cfg *config.Config, log *slog.Logger) (generation.Generator, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, newGeminiGenerator)
	stop()
	os.Exit(code)
}

func newGeminiGenerator(ctx context.Context, cfg *config.Config, log *slog.Logger) (generation.Generator, error) {
	return gemini.NewGeminiGenerator(ctx, log, cfg.LLM, cfg.Generation)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("comic", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.in, "in", stdio, "Field Map JSON file, or - for stdin")
	fs.StringVar(&opts.out, "out", stdio, "Story Result JSON file, or - for stdout")
	fs.StringVar(&opts.envFile, "env", config.DefaultEnvFile, "dotenv file loaded before configuration")
	fs.DurationVar(&opts.timeout, "timeout", 10*time.Minute, "maximum time for the whole pipeline, 0 for none")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

// run executes the CLI and returns its exit status.
func run(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout, stderr io.Writer,
	newGenerator generatorFactory,
) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, "comic:", err)
		return exitError
	}

	if err := config.LoadDotEnv(opts.envFile); err != nil {
		fmt.Fprintln(stderr, "comic:", err)
		return exitError
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "comic:", redact.Error(err))
		return exitError
	}
	log, err := logger.SetupWithWriter(logger.LoggerConfig{Level: cfg.Server.LogLevel}, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "comic:", err)
		return exitError
	}

	fields, err := readFields(opts.in, stdin)
	if err != nil {
		log.Error("failed to read answers", "input", opts.in, "error", err)
		return exitError
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	generator, err := newGenerator(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize generator", "error", redact.Error(err))
		return exitError
	}

	stories, err := service.NewStoryService(
		moderation.FromConfig(cfg.Generation.Denylist),
		naming.NewItalianizer(nil),
		generator,
		log,
	)
	if err != nil {
		log.Error("failed to create story service", "error", err)
		return exitError
	}

	outcome, err := stories.Generate(ctx, fields, func(p domain.Progress) {
		log.Info("progress",
			"step", p.Step,
			"panels_done", p.PanelsDone,
			"panels_total", p.PanelsTotal)
	})
	if err != nil {
		log.Error("story generation failed",
			"kind", service.ClassifyError(err),
			"error", redact.Error(err))
		return exitError
	}
	if outcome.IsRejected() {
		fmt.Fprintf(stderr, "comic: answer %q contains content that is not allowed\n", outcome.Moderation.Field)
		return exitRejected
	}

	if err := writeStory(opts.out, stdout, outcome.Story); err != nil {
		log.Error("failed to write story", "output", opts.out, "error", err)
		return exitError
	}
	log.Info("story written", "output", opts.out, "panel_count", len(outcome.Story.Panels))
	return exitOK
}

func readFields(path string, stdin io.Reader) (domain.FieldMap, error) {
	var (
		data []byte
		err  error
	)
	if path == stdio {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var fields domain.FieldMap
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no answers given", domain.ErrValidation)
	}
	return fields, nil
}

func writeStory(path string, stdout io.Writer, story *domain.StoryResult) error {
	data, err := json.MarshalIndent(story, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path == stdio {
		_, err = stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
