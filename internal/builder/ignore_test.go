package builder

import (
	"strings"
	"testing"
)

func TestIsIgnored(t *testing.T) {
	rules := Compile([]string{
		"# comment",
		"",
		"node_modules/",
		"*.exe",
		"dist/bin",
		"/tmp/",
		"*.log",
		"!keep.log",
		"file?.txt",
		"[unterminated",
	})

	tests := []struct {
		path     string
		isDir    bool
		expected bool
	}{
		{"node_modules", true, true},
		{"node_modules", false, false},
		{"node_modules/package.json", false, true},
		{"web/node_modules/lib/index.js", false, true},
		{"src/main.go", false, false},
		{"main.exe", false, true},
		{"cmd/tool/main.exe", false, true},
		{"dist/bin", false, true},
		{"dist/bin/app", false, true},
		{"other/dist/bin", false, false},
		{"tmp", true, true},
		{"tmp/keep.txt", false, true},
		{"nested/tmp/keep.txt", false, false},
		{"nested/tmp", true, false},
		{"a.log", false, true},
		{"logs/b.log", false, true},
		{"keep.log", false, false},
		{"file1.txt", false, true},
		{"file12.txt", false, false},
		{"[unterminated", false, true},
		{"# comment", false, false},
		{"internal/builder/ignore.go", false, false},
	}

	for _, tt := range tests {
		got := rules.IsIgnored(tt.path, tt.isDir)
		if got != tt.expected {
			t.Errorf("IsIgnored(%q, %v) = %v; want %v", tt.path, tt.isDir, got, tt.expected)
		}
	}
}

func TestStarDoesNotCrossSlash(t *testing.T) {
	rules := Compile([]string{"src/*.go"})

	if !rules.IsIgnored("src/main.go", false) {
		t.Errorf("src/*.go should match src/main.go")
	}
	if rules.IsIgnored("src/pkg/main.go", false) {
		t.Errorf("src/*.go should not match src/pkg/main.go")
	}
	if rules.IsIgnored("lib/src/main.go", false) {
		t.Errorf("src/*.go is relative to the root and should not match lib/src/main.go")
	}
}

func TestLastMatchWins(t *testing.T) {
	rules := Compile([]string{"!a.txt", "a.txt"})
	if !rules.IsIgnored("a.txt", false) {
		t.Errorf("later exclusion should win over an earlier negation")
	}

	rules = Compile([]string{"a.txt", "!a.txt"})
	if rules.IsIgnored("a.txt", false) {
		t.Errorf("later negation should win over an earlier exclusion")
	}
}

func TestBuiltinRulesCannotBeNegated(t *testing.T) {
	rules := CompileLayered([]string{".git/", "*.env"}, []string{"!.git/", "!prod.env"})

	if !rules.IsIgnored(".git", true) {
		t.Errorf(".git should stay ignored")
	}
	if !rules.IsIgnored(".git/config", false) {
		t.Errorf(".git/config should stay ignored")
	}
	if !rules.IsIgnored("prod.env", false) {
		t.Errorf("prod.env should stay ignored")
	}
}

func TestNegationInsideIgnoredDirectory(t *testing.T) {
	rules := Compile([]string{"build/", "!build/keep.txt"})
	if !rules.IsIgnored("build/keep.txt", false) {
		t.Errorf("a file below an ignored directory cannot be re-included")
	}
}

func TestEscapedPrefixes(t *testing.T) {
	rules := Compile([]string{`\#notes.md`, `\!important`})
	if !rules.IsIgnored("#notes.md", false) {
		t.Errorf(`\#notes.md should match a literal "#notes.md"`)
	}
	if !rules.IsIgnored("!important", false) {
		t.Errorf(`\!important should match a literal "!important"`)
	}
}

func TestParseRuleFlags(t *testing.T) {
	tests := []struct {
		line string
		want Rule
	}{
		{"/tmp/", Rule{Raw: "/tmp/", Pattern: "tmp", DirOnly: true, Anchored: true}},
		{"node_modules/", Rule{Raw: "node_modules/", Pattern: "node_modules", DirOnly: true}},
		{"!docs/*.md", Rule{Raw: "!docs/*.md", Pattern: "docs/*.md", Negate: true, Anchored: true}},
		{"  *.log  ", Rule{Raw: "*.log", Pattern: "*.log"}},
		{"[abc", Rule{Raw: "[abc", Pattern: "[abc", Literal: true}},
	}
	for _, tt := range tests {
		got, ok := ParseRule(tt.line)
		if !ok {
			t.Fatalf("ParseRule(%q) reported no rule", tt.line)
		}
		if got != tt.want {
			t.Errorf("ParseRule(%q) = %+v; want %+v", tt.line, got, tt.want)
		}
	}

	for _, line := range []string{"", "   ", "# comment", "/", "!"} {
		if _, ok := ParseRule(line); ok {
			t.Errorf("ParseRule(%q) should be skipped", line)
		}
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	patterns := []string{"*.log", "/tmp/", "vendor/", "!vendor/keep", "a?c", "docs/**/*.png"}
	paths := []string{"x.log", "tmp", "tmp/a", "vendor", "vendor/keep", "abc", "docs/a/b/c.png", "src/x.go"}

	first := Compile(patterns)
	second := Compile(patterns)
	for _, p := range paths {
		for _, dir := range []bool{true, false} {
			a := first.IsIgnored(p, dir)
			if b := second.IsIgnored(p, dir); a != b {
				t.Errorf("IsIgnored(%q, %v) differs between compilations: %v vs %v", p, dir, a, b)
			}
			if again := first.IsIgnored(p, dir); again != a {
				t.Errorf("IsIgnored(%q, %v) differs between evaluations", p, dir)
			}
		}
	}
}

func TestReadPatterns(t *testing.T) {
	in := "# header\n*.tmp\n\n  temp/  \n#tail\n"
	got, err := ReadPatterns(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "*.tmp" || got[1] != "temp/" {
		t.Errorf("ReadPatterns = %q", got)
	}
}
