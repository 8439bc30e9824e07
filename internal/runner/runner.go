package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"manus/internal/builder"
	"manus/internal/clipboard"
	"manus/internal/config"
	"manus/internal/google"
	"manus/internal/llm"
	"manus/internal/logging"
	"manus/internal/model"
	"manus/internal/openai"
	"manus/internal/prompt"
	"manus/internal/renderer"
)

// DotEnvName is read from the project root for API keys missing from the environment.
const DotEnvName = ".env"

// Mode selects what happens with the assembled payload.
type Mode int

const (
	// ModeStream sends the payload and streams the answer to stdout.
	ModeStream Mode = iota
	// ModeDryRun prints the payload without calling a provider.
	ModeDryRun
	// ModeCopy puts the payload on the clipboard.
	ModeCopy
)

// ConfigLoader resolves the configuration of a project root.
type ConfigLoader interface {
	Load(root string) (model.Config, error)
}

// ProjectScanner produces the manifest of a project root.
type ProjectScanner interface {
	Scan(ctx context.Context, root string, rules *builder.RuleSet) (builder.Result, error)
}

// ScannerFactory builds a scanner bounded by the configured limits.
type ScannerFactory func(opts builder.Options) ProjectScanner

// ClientFactory builds the completion client for a resolved credential.
type ClientFactory func(cfg model.Config, cred llm.Credential, log *zap.Logger) (llm.Client, error)

// Deps are the collaborators of a run. Zero fields get production defaults.
type Deps struct {
	Loader     ConfigLoader
	NewScanner ScannerFactory
	NewClient  ClientFactory
	Lookup     llm.LookupFunc
	Clipboard  clipboard.Writer
	Renderer   *renderer.Renderer
	Logger     *zap.Logger
}

// Options describe one request.
type Options struct {
	Root     string
	Request  string
	Model    string
	Mode     Mode
	Markdown bool
}

// Runner executes the pipeline from configuration to output.
type Runner struct {
	d Deps
}

// New returns a runner over d, filling unset fields with the real implementations.
func New(d Deps) *Runner {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Loader == nil {
		d.Loader = config.NewLoader(d.Logger)
	}
	if d.NewScanner == nil {
		d.NewScanner = func(opts builder.Options) ProjectScanner { return builder.NewScanner(opts) }
	}
	if d.NewClient == nil {
		d.NewClient = NewClient
	}
	if d.Lookup == nil {
		d.Lookup = os.LookupEnv
	}
	if d.Clipboard == nil {
		d.Clipboard = clipboard.System{}
	}
	if d.Renderer == nil {
		d.Renderer = renderer.New(os.Stdout, os.Stderr)
	}
	return &Runner{d: d}
}

// NewClient builds the completion client for cfg.Provider.
func NewClient(cfg model.Config, cred llm.Credential, log *zap.Logger) (llm.Client, error) {
	switch cfg.Provider {
	case openai.Provider:
		return openai.New(openai.Config{APIKey: cred.Key, BaseURL: cfg.BaseURL, Logger: log}), nil
	case google.Provider:
		return google.New(google.Config{APIKey: cred.Key, BaseURL: cfg.BaseURL, Logger: log}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// Run executes one request. Configuration and credentials are settled
// before the project is scanned, so either failure leaves the tree untouched.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	log, _ := logging.WithRun(r.d.Logger)
	log = log.With(zap.String("root", opts.Root))

	cfg, err := r.d.Loader.Load(opts.Root)
	if err != nil {
		return err
	}
	cfg = config.WithModel(cfg, opts.Model)
	log.Debug("config resolved",
		zap.String("model", cfg.Model),
		zap.String("provider", cfg.Provider),
		zap.String("source", cfg.Source))

	var cred llm.Credential
	if opts.Mode == ModeStream {
		lookup := llm.ChainLookup(r.d.Lookup, llm.MapLookup(readDotEnv(log, opts.Root)))
		cred, err = llm.ResolveCredential(lookup, cfg.Provider)
		if err != nil {
			return err
		}
		log.Debug("credential resolved", zap.String("env", cred.Source))
	}

	scanner := r.d.NewScanner(builder.Options{
		MaxFileBytes:  cfg.MaxFileBytes,
		MaxTotalBytes: cfg.MaxTotalBytes,
		Logger:        log,
	})
	res, err := scanner.Scan(ctx, opts.Root, config.Rules(cfg))
	if err != nil {
		return fmt.Errorf("scan %s: %w", opts.Root, err)
	}

	payload := prompt.Assemble(cfg, res.Manifest, opts.Request)
	r.d.Renderer.Scanned(res, prompt.EstimateTokens(payload))

	switch opts.Mode {
	case ModeDryRun:
		return r.printPayload(payload)
	case ModeCopy:
		if err := clipboard.Copy(r.d.Clipboard, payload); err != nil {
			return err
		}
		r.d.Renderer.Success("copied payload to clipboard (%s)", humanize.Bytes(uint64(len(clipboard.Format(payload)))))
		return nil
	default:
		return r.complete(ctx, log, cfg, cred, payload, opts.Markdown)
	}
}

// readDotEnv parses root/.env without touching the process environment.
// A missing file yields nil; a malformed one is logged and ignored.
func readDotEnv(log *zap.Logger, root string) map[string]string {
	path := filepath.Join(root, DotEnvName)
	vars, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("could not read env file", zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	log.Debug("loaded env file", zap.String("path", path), zap.Int("vars", len(vars)))
	return vars
}

func (r *Runner) printPayload(p model.Payload) error {
	enc := json.NewEncoder(r.d.Renderer.Out())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

func (r *Runner) complete(ctx context.Context, log *zap.Logger, cfg model.Config, cred llm.Credential, p model.Payload, markdown bool) error {
	client, err := r.d.NewClient(cfg, cred, log)
	if err != nil {
		return err
	}

	req := llm.Request{Model: p.Model, SystemMessage: p.SystemMessage, UserMessage: p.UserMessage}
	r.d.Renderer.Thinking(cfg.Model)

	if markdown {
		text, err := llm.Collect(ctx, cfg.Provider, client.Stream(ctx, req))
		if err != nil {
			return err
		}
		if err := r.d.Renderer.Markdown(text); err != nil {
			return err
		}
		r.d.Renderer.Done()
		return nil
	}

	n, err := llm.Relay(ctx, cfg.Provider, client.Stream(ctx, req), r.d.Renderer.Out())
	log.Debug("stream finished", zap.Int64("bytes", n), zap.Error(err))
	if err != nil {
		return err
	}
	r.d.Renderer.Done()
	return nil
}
