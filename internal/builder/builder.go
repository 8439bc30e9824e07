package builder

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"manus/internal/model"
)

// DefaultMaxFileBytes matches the per-file limit of the original tool.
const DefaultMaxFileBytes = 100000

var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".bin": true, ".exe": true, ".zip": true, ".tar": true, ".gz": true,
	".pdf": true, ".so": true, ".dll": true,
}

// ScanWarning describes a file that was skipped. It is never fatal.
type ScanWarning struct {
	Path   string
	Reason string
	Err    error
}

func (w ScanWarning) Error() string {
	if w.Err != nil {
		return fmt.Sprintf("%s: %s: %v", w.Path, w.Reason, w.Err)
	}
	return fmt.Sprintf("%s: %s", w.Path, w.Reason)
}

func (w ScanWarning) Unwrap() error { return w.Err }

// Skip reasons.
const (
	ReasonBinary      = "binary content"
	ReasonTooLarge    = "exceeds max file size"
	ReasonUnreadable  = "unreadable"
	ReasonSymlinkDir  = "symlink to directory"
	ReasonNotRegular  = "not a regular file"
	ReasonOutsideRoot = "symlink target outside the project"
)

// Options bound what a scan collects.
type Options struct {
	// MaxFileBytes skips single files larger than this. Zero disables the check.
	MaxFileBytes int64
	// MaxTotalBytes bounds the manifest. Zero disables the budget.
	MaxTotalBytes int64
	Logger        *zap.Logger
}

// Result is the output of a scan.
type Result struct {
	Manifest model.Manifest
	Warnings []ScanWarning
	// Dropped lists files removed to fit MaxTotalBytes, largest first.
	Dropped []string
	Bytes   int64
}

// Scanner collects the text files of a project tree.
type Scanner struct {
	opts Options
	log  *zap.Logger
}

// NewScanner returns a scanner; a nil Logger discards log output.
func NewScanner(opts Options) *Scanner {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{opts: opts, log: log}
}

// Scan walks root in lexical order and collects every text file the rules allow.
func (s *Scanner) Scan(ctx context.Context, root string, rules *RuleSet) (Result, error) {
	var res Result

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return res, err
	}
	// WalkDir does not descend into a symlinked root.
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return res, fmt.Errorf("scan root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return res, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return res, fmt.Errorf("scan root %s is not a directory", absRoot)
	}

	warn := func(w ScanWarning) {
		res.Warnings = append(res.Warnings, w)
		if w.Reason == ReasonBinary {
			s.log.Debug("skipping file", zap.String("path", w.Path), zap.String("reason", w.Reason))
			return
		}
		s.log.Warn("skipping file", zap.String("path", w.Path), zap.String("reason", w.Reason), zap.Error(w.Err))
	}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, _ := filepath.Rel(absRoot, path)
		rel = filepath.ToSlash(rel)
		if rel == "." {
			if walkErr != nil {
				return walkErr
			}
			return nil
		}

		if walkErr != nil {
			warn(ScanWarning{Path: rel, Reason: ReasonUnreadable, Err: walkErr})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		isDir := d.IsDir()
		mode := d.Type()
		if mode&fs.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil {
				warn(ScanWarning{Path: rel, Reason: ReasonUnreadable, Err: err})
				return nil
			}
			if target.IsDir() {
				if !rules.excludes(rel, true) {
					warn(ScanWarning{Path: rel, Reason: ReasonSymlinkDir})
				}
				return nil
			}
			if rules.excludes(rel, false) {
				return nil
			}
			if !within(absRoot, path) {
				warn(ScanWarning{Path: rel, Reason: ReasonOutsideRoot})
				return nil
			}
			mode = target.Mode().Type()
		}

		// Parents were already accepted by the walk, so only rel itself is checked.
		if rules.excludes(rel, isDir) {
			if isDir {
				s.log.Debug("pruning directory", zap.String("path", rel))
				return filepath.SkipDir
			}
			return nil
		}
		if isDir {
			return nil
		}
		// Pipes, sockets and devices can block a read indefinitely.
		if !mode.IsRegular() {
			warn(ScanWarning{Path: rel, Reason: ReasonNotRegular})
			return nil
		}

		entry, w := s.readFile(path, rel)
		if w != nil {
			warn(*w)
			return nil
		}
		res.Manifest = append(res.Manifest, entry)
		return nil
	})
	if err != nil {
		return res, err
	}

	res.Manifest, res.Dropped = applyBudget(res.Manifest, s.opts.MaxTotalBytes)
	for _, p := range res.Dropped {
		s.log.Warn("dropping file to fit manifest budget", zap.String("path", p))
	}
	res.Bytes = res.Manifest.Size()
	return res, nil
}

func (s *Scanner) readFile(path, rel string) (model.FileEntry, *ScanWarning) {
	if binaryExtensions[strings.ToLower(filepath.Ext(rel))] {
		return model.FileEntry{}, &ScanWarning{Path: rel, Reason: ReasonBinary}
	}

	if s.opts.MaxFileBytes > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return model.FileEntry{}, &ScanWarning{Path: rel, Reason: ReasonUnreadable, Err: err}
		}
		if info.Size() > s.opts.MaxFileBytes {
			return model.FileEntry{}, &ScanWarning{Path: rel, Reason: ReasonTooLarge}
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return model.FileEntry{}, &ScanWarning{Path: rel, Reason: ReasonUnreadable, Err: err}
	}
	if isBinary(content) {
		return model.FileEntry{}, &ScanWarning{Path: rel, Reason: ReasonBinary}
	}
	return model.FileEntry{Path: rel, Content: string(content)}, nil
}

// within reports whether the link at path resolves to a file under root.
// root must already be free of symlinks.
func within(root, path string) bool {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isBinary(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data)
}

// applyBudget drops the largest files until the manifest fits in limit.
// The order of the remaining entries is preserved.
func applyBudget(m model.Manifest, limit int64) (model.Manifest, []string) {
	total := m.Size()
	if limit <= 0 || total <= limit {
		return m, nil
	}

	idx := make([]int, len(m))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		la, lb := len(m[idx[a]].Content), len(m[idx[b]].Content)
		if la != lb {
			return la > lb
		}
		return m[idx[a]].Path < m[idx[b]].Path
	})

	drop := make(map[int]bool)
	var dropped []string
	for _, i := range idx {
		if total <= limit {
			break
		}
		drop[i] = true
		dropped = append(dropped, m[i].Path)
		total -= int64(len(m[i].Content))
	}

	kept := make(model.Manifest, 0, len(m)-len(drop))
	for i, f := range m {
		if !drop[i] {
			kept = append(kept, f)
		}
	}
	return kept, dropped
}

// Tree renders the manifest paths as an indented tree.
func Tree(m model.Manifest) string {
	var tree strings.Builder
	seen := make(map[string]bool)
	for _, f := range m {
		parts := strings.Split(f.Path, "/")
		for depth := range parts {
			prefix := strings.Join(parts[:depth+1], "/")
			if seen[prefix] {
				continue
			}
			seen[prefix] = true
			indent := ""
			if depth > 0 {
				indent = strings.Repeat("  ", depth-1) + "└── "
			}
			name := parts[depth]
			if depth < len(parts)-1 {
				name += "/"
			}
			tree.WriteString(indent + name + "\n")
		}
	}
	return tree.String()
}
