package model

// Config is the effective configuration for one run.
type Config struct {
	Model        string
	SystemPrompt string
	// BuiltinIgnore holds the safety exclusions that project rules cannot undo.
	BuiltinIgnore []string
	// IgnorePatterns holds project rules: ignore_files first, then ignore file lines.
	IgnorePatterns []string

	Provider      string
	BaseURL       string
	MaxFileBytes  int64
	MaxTotalBytes int64
	UseGitignore  bool
	IncludeTree   bool

	// Source is the config file that was read, empty when defaults were used.
	Source string
}

// AllIgnorePatterns returns the builtin rules followed by the project rules.
func (c Config) AllIgnorePatterns() []string {
	out := make([]string, 0, len(c.BuiltinIgnore)+len(c.IgnorePatterns))
	out = append(out, c.BuiltinIgnore...)
	return append(out, c.IgnorePatterns...)
}

// FileEntry is one file of project context. Path always uses forward slashes.
type FileEntry struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type Manifest []FileEntry

// Size returns the total content length in bytes.
func (m Manifest) Size() int64 {
	var n int64
	for _, f := range m {
		n += int64(len(f.Content))
	}
	return n
}

// Paths lists the manifest paths in order.
func (m Manifest) Paths() []string {
	out := make([]string, len(m))
	for i, f := range m {
		out[i] = f.Path
	}
	return out
}

type Payload struct {
	Model         string `json:"model"`
	SystemMessage string `json:"system_message"`
	UserMessage   string `json:"user_message"`
}
