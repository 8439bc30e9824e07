package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"manus/internal/builder"
	"manus/internal/model"
)

const (
	DefaultModel    = "gpt-4.1-mini"
	DefaultProvider = "openai"

	DefaultSystemPrompt = "You are a world-class full-stack developer assistant named Manus. " +
		"Your goal is to help the user with their coding tasks. " +
		"You are working on a project described by the following file contents. " +
		"Analyze the context and provide concise, actionable code or advice. " +
		"If you are asked to write code, only output the code block and nothing else."

	IgnoreFileName = ".manusignore"
	GitignoreName  = ".gitignore"
)

// ConfigFiles are checked in order; the first one present is used.
var ConfigFiles = []string{"manus.json", "manus.yaml", "manus.yml"}

// ValidProviders lists the supported completion backends.
var ValidProviders = []string{"openai", "gemini"}

// DefaultModels is the model used for a provider when the config names none.
var DefaultModels = map[string]string{
	"openai": DefaultModel,
	"gemini": "gemini-2.5-flash",
}

// BuiltinIgnore is always active and cannot be negated by project rules.
var BuiltinIgnore = []string{
	".git/",
	"node_modules/",
	"venv/",
	"__pycache__/",
	"*.log",
	"*.sqlite3",
	"*.env",
	IgnoreFileName,
	"manus.json",
	"manus.yaml",
	"manus.yml",
}

// ConfigError reports a config file that exists but cannot be used.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// fileConfig is the on-disk shape. Pointers distinguish unset keys.
type fileConfig struct {
	Model         *string  `json:"model" yaml:"model"`
	SystemPrompt  *string  `json:"system_prompt" yaml:"system_prompt"`
	IgnoreFiles   []string `json:"ignore_files" yaml:"ignore_files"`
	Provider      *string  `json:"provider" yaml:"provider"`
	BaseURL       *string  `json:"base_url" yaml:"base_url"`
	MaxFileBytes  *int64   `json:"max_file_bytes" yaml:"max_file_bytes"`
	MaxTotalBytes *int64   `json:"max_total_bytes" yaml:"max_total_bytes"`
	UseGitignore  *bool    `json:"use_gitignore" yaml:"use_gitignore"`
	IncludeTree   *bool    `json:"include_tree" yaml:"include_tree"`
}

// Default returns the built-in configuration.
func Default() model.Config {
	return model.Config{
		Model:         DefaultModel,
		SystemPrompt:  DefaultSystemPrompt,
		BuiltinIgnore: slices.Clone(BuiltinIgnore),
		Provider:      DefaultProvider,
		MaxFileBytes:  builder.DefaultMaxFileBytes,
	}
}

type Loader struct {
	log *zap.Logger
}

func NewLoader(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{log: log}
}

// Load reads the project configuration under root with a no-op logger.
func Load(root string) (model.Config, error) {
	return NewLoader(nil).Load(root)
}

// Load merges the project config file and ignore file under root with the defaults.
func (l *Loader) Load(root string) (model.Config, error) {
	cfg := Default()

	path, fc, err := readConfigFile(root)
	if err != nil {
		return model.Config{}, err
	}
	if fc != nil {
		fc.apply(&cfg)
		if err := validate(cfg); err != nil {
			return model.Config{}, &ConfigError{Path: path, Err: err}
		}
		cfg.Source = path
		l.log.Debug("loaded config", zap.String("path", path))
	}

	if cfg.UseGitignore {
		cfg.IgnorePatterns = append(cfg.IgnorePatterns, l.readIgnoreFile(root, GitignoreName)...)
	}
	cfg.IgnorePatterns = append(cfg.IgnorePatterns, l.readIgnoreFile(root, IgnoreFileName)...)
	return cfg, nil
}

func readConfigFile(root string) (string, *fileConfig, error) {
	for _, name := range ConfigFiles {
		path := filepath.Join(root, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return path, nil, &ConfigError{Path: path, Err: err}
		}

		var fc fileConfig
		if filepath.Ext(name) == ".json" {
			err = json.Unmarshal(data, &fc)
		} else {
			err = yaml.Unmarshal(data, &fc)
		}
		if err != nil {
			return path, nil, &ConfigError{Path: path, Err: fmt.Errorf("failed to parse: %w", err)}
		}
		return path, &fc, nil
	}
	return "", nil, nil
}

func (fc *fileConfig) apply(cfg *model.Config) {
	if fc.SystemPrompt != nil && strings.TrimSpace(*fc.SystemPrompt) != "" {
		cfg.SystemPrompt = *fc.SystemPrompt
	}
	if v := nonEmpty(fc.Provider); v != "" {
		cfg.Provider = strings.ToLower(v)
	}
	if v := nonEmpty(fc.Model); v != "" {
		cfg.Model = v
	} else if m, ok := DefaultModels[cfg.Provider]; ok {
		cfg.Model = m
	}
	if v := nonEmpty(fc.BaseURL); v != "" {
		cfg.BaseURL = v
	}
	if fc.MaxFileBytes != nil {
		cfg.MaxFileBytes = *fc.MaxFileBytes
	}
	if fc.MaxTotalBytes != nil {
		cfg.MaxTotalBytes = *fc.MaxTotalBytes
	}
	if fc.UseGitignore != nil {
		cfg.UseGitignore = *fc.UseGitignore
	}
	if fc.IncludeTree != nil {
		cfg.IncludeTree = *fc.IncludeTree
	}
	cfg.IgnorePatterns = append(cfg.IgnorePatterns, fc.IgnoreFiles...)
}

func nonEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func validate(cfg model.Config) error {
	if !slices.Contains(ValidProviders, cfg.Provider) {
		return fmt.Errorf("invalid provider %q (valid: %v)", cfg.Provider, ValidProviders)
	}
	if cfg.MaxFileBytes < 0 {
		return fmt.Errorf("max_file_bytes must not be negative")
	}
	if cfg.MaxTotalBytes < 0 {
		return fmt.Errorf("max_total_bytes must not be negative")
	}
	return nil
}

// readIgnoreFile returns the patterns of an optional ignore file. Read
// failures are logged and treated as an empty file.
func (l *Loader) readIgnoreFile(root, name string) []string {
	path := filepath.Join(root, name)
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.log.Warn("could not read ignore file", zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	defer f.Close()

	patterns, err := builder.ReadPatterns(f)
	if err != nil {
		l.log.Warn("could not read ignore file", zap.String("path", path), zap.Error(err))
		return nil
	}
	l.log.Debug("loaded ignore file", zap.String("path", path), zap.Int("patterns", len(patterns)))
	return patterns
}

// WithModel returns a copy of cfg using the given model. An empty model keeps cfg's.
func WithModel(cfg model.Config, name string) model.Config {
	out := cfg
	out.BuiltinIgnore = slices.Clone(cfg.BuiltinIgnore)
	out.IgnorePatterns = slices.Clone(cfg.IgnorePatterns)
	if name = strings.TrimSpace(name); name != "" {
		out.Model = name
	}
	return out
}

// Rules compiles the ignore rules of cfg.
func Rules(cfg model.Config) *builder.RuleSet {
	return builder.CompileLayered(cfg.BuiltinIgnore, cfg.IgnorePatterns)
}
