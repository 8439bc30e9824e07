package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const sampleSystemPrompt = "You are a React/Node.js expert. Focus on writing clean, modern " +
	"TypeScript code. When asked to create a new file, wrap the content in a markdown code " +
	"block with the filename as the title, e.g., ```filename.ts\\n...code...\\n```"

const sampleIgnore = `# Add files or directories to ignore when gathering project context.
# Patterns are glob-style (e.g., *.log, /tmp/, src/test.js)
*.tmp
temp/
`

// InitFile is one file written by init.
type InitFile struct {
	Path    string
	Content []byte
	// ExistingPath is set when a file already occupies this role.
	ExistingPath string
	Existing     []byte
}

// ExistsError is returned when init would overwrite files without force.
type ExistsError struct {
	Paths []string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("configuration already exists (%s); rerun with --force to overwrite", strings.Join(e.Paths, ", "))
}

// SampleConfig returns the starter manus.json content.
func SampleConfig() []byte {
	sample := struct {
		Model        string   `json:"model"`
		SystemPrompt string   `json:"system_prompt"`
		IgnoreFiles  []string `json:"ignore_files"`
	}{
		Model:        DefaultModel,
		SystemPrompt: sampleSystemPrompt,
		IgnoreFiles:  []string{"dist/", "build/", "coverage/"},
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	_ = enc.Encode(sample)
	return buf.Bytes()
}

// SampleIgnore returns the starter ignore file content.
func SampleIgnore() []byte {
	return []byte(sampleIgnore)
}

// PlanInit lists the files init writes under root together with whatever
// already exists in their place. Any existing config file counts as a
// conflict for manus.json since it would be shadowed or replaced.
func PlanInit(root string) ([]InitFile, error) {
	cfgFile := InitFile{Path: filepath.Join(root, ConfigFiles[0]), Content: SampleConfig()}
	for _, name := range ConfigFiles {
		path := filepath.Join(root, name)
		data, err := readExisting(path)
		if err != nil {
			return nil, err
		}
		if data != nil {
			cfgFile.ExistingPath, cfgFile.Existing = path, data
			break
		}
	}

	ignFile := InitFile{Path: filepath.Join(root, IgnoreFileName), Content: SampleIgnore()}
	data, err := readExisting(ignFile.Path)
	if err != nil {
		return nil, err
	}
	if data != nil {
		ignFile.ExistingPath, ignFile.Existing = ignFile.Path, data
	}

	return []InitFile{cfgFile, ignFile}, nil
}

func readExisting(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// Conflicts returns the files of plan that would replace existing content.
func Conflicts(plan []InitFile) []InitFile {
	var out []InitFile
	for _, f := range plan {
		if f.ExistingPath != "" {
			out = append(out, f)
		}
	}
	return out
}

// WriteInit writes every file of plan. Nothing is written when a file
// exists and force is false.
func WriteInit(plan []InitFile, force bool) error {
	if c := Conflicts(plan); len(c) > 0 && !force {
		paths := make([]string, len(c))
		for i, f := range c {
			paths[i] = f.ExistingPath
		}
		return &ExistsError{Paths: paths}
	}

	for _, f := range plan {
		if err := os.WriteFile(f.Path, f.Content, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
	}
	return nil
}
