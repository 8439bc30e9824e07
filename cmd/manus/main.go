package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"manus/internal/clipboard"
	"manus/internal/config"
	"manus/internal/llm"
	"manus/internal/logging"
	"manus/internal/renderer"
	"manus/internal/runner"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitConfig      = 2
	exitCredential  = 3
	exitCompletion  = 4
	exitInterrupted = 130
)

var errUsage = errors.New("no request given")

// app holds everything a command invocation touches outside the process.
type app struct {
	stdout    io.Writer
	stderr    io.Writer
	lookup    llm.LookupFunc
	newClient runner.ClientFactory
	clipboard clipboard.Writer
}

type flags struct {
	model    string
	init     bool
	force    bool
	dir      string
	verbose  bool
	dryRun   bool
	copy     bool
	markdown bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		lookup: os.LookupEnv,
	}, os.Args[1:])
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, a *app, args []string) int {
	rend := renderer.New(a.stdout, a.stderr)
	cmd := newRootCmd(a, rend)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	if !errors.Is(err, errUsage) {
		rend.Error(err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	var (
		cfgErr  *config.ConfigError
		credErr *llm.CredentialError
		compErr *llm.CompletionError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.As(err, &cfgErr):
		return exitConfig
	case errors.As(err, &credErr):
		return exitCredential
	case errors.As(err, &compErr):
		return exitCompletion
	default:
		return exitFailure
	}
}

func newRootCmd(a *app, rend *renderer.Renderer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "manus [request...]",
		Short: "Ask a language model about the project in the current directory",
		Long: `manus gathers the text files of a project, honoring .manusignore, and
sends them together with your request to a chat completion model. The
answer is streamed to stdout.

Run "manus --init" to create a sample manus.json and .manusignore.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New(a.stderr, f.verbose)
			defer func() { _ = log.Sync() }()

			root, err := filepath.Abs(f.dir)
			if err != nil {
				return fmt.Errorf("resolve project root: %w", err)
			}

			if f.init {
				return runInit(rend, root, f.force)
			}

			request := strings.TrimSpace(strings.Join(args, " "))
			if request == "" {
				cmd.SetOut(a.stderr)
				_ = cmd.Help()
				return errUsage
			}

			return runner.New(runner.Deps{
				NewClient: a.newClient,
				Lookup:    a.lookup,
				Clipboard: a.clipboard,
				Renderer:  rend,
				Logger:    log,
			}).Run(cmd.Context(), runner.Options{
				Root:     root,
				Request:  request,
				Model:    f.model,
				Mode:     mode(f),
				Markdown: f.markdown,
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.model, "model", "m", "", "model to use, overriding the config file")
	fl.BoolVarP(&f.init, "init", "i", false, "create sample manus.json and .manusignore in the project root")
	fl.BoolVar(&f.force, "force", false, "let --init overwrite existing files")
	fl.StringVarP(&f.dir, "dir", "C", ".", "project root")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	fl.BoolVar(&f.dryRun, "dry-run", false, "print the payload instead of sending it")
	fl.BoolVar(&f.copy, "copy", false, "copy the payload to the clipboard instead of sending it")
	fl.BoolVar(&f.markdown, "markdown", false, "render the answer as markdown when stdout is a terminal")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "copy")

	return cmd
}

func mode(f flags) runner.Mode {
	switch {
	case f.dryRun:
		return runner.ModeDryRun
	case f.copy:
		return runner.ModeCopy
	default:
		return runner.ModeStream
	}
}

func runInit(rend *renderer.Renderer, root string, force bool) error {
	plan, err := config.PlanInit(root)
	if err != nil {
		return err
	}

	conflicts := config.Conflicts(plan)
	if len(conflicts) > 0 && !force {
		for _, c := range conflicts {
			rend.Diff(c.ExistingPath, c.Existing, c.Content)
		}
	}
	if err := config.WriteInit(plan, force); err != nil {
		return err
	}

	for _, p := range plan {
		rend.Created(p.Path)
	}
	rend.Info("edit %s and %s to customize your assistant", config.ConfigFiles[0], config.IgnoreFileName)
	return nil
}
