package prompt

import (
	"strconv"
	"strings"

	"manus/internal/builder"
	"manus/internal/model"
)

const (
	ContextHeader = "Project context:"
	TreeHeader    = "Project tree:"
)

// Assemble builds the payload for one completion call. It performs no I/O.
func Assemble(cfg model.Config, m model.Manifest, request string) model.Payload {
	return model.Payload{
		Model:         cfg.Model,
		SystemMessage: cfg.SystemPrompt,
		UserMessage:   userMessage(cfg, m, request),
	}
}

func userMessage(cfg model.Config, m model.Manifest, request string) string {
	if len(m) == 0 {
		return request
	}

	var b strings.Builder
	b.WriteString(ContextHeader)
	b.WriteString("\n\n")

	if cfg.IncludeTree {
		b.WriteString(TreeHeader)
		b.WriteString("\n")
		writeBlock(&b, "", builder.Tree(m))
		b.WriteString("\n")
	}

	for _, f := range m {
		writeBlock(&b, f.Path, f.Content)
		b.WriteString("\n")
	}

	b.WriteString(request)
	return b.String()
}

// writeBlock emits a fenced block tagged with info. The fence is longer than
// any run of the fence character inside content, so content cannot close it.
// A path with line breaks is quoted so it stays on the fence line.
func writeBlock(b *strings.Builder, info, content string) {
	if strings.ContainsAny(info, "\n\r") {
		info = strconv.Quote(info)
	}
	fence := Fence(info, content)
	b.WriteString(fence)
	b.WriteString(info)
	b.WriteString("\n")
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(fence)
	b.WriteString("\n")
}

// Fence picks the fence for a block. Backticks are used unless the info
// string contains one, in which case tildes are used.
func Fence(info, content string) string {
	ch := byte('`')
	if strings.ContainsRune(info, '`') {
		ch = '~'
	}
	n := longestRun(content, ch) + 1
	if n < 3 {
		n = 3
	}
	return strings.Repeat(string(ch), n)
}

func longestRun(s string, ch byte) int {
	longest, cur := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == ch {
			cur++
			if cur > longest {
				longest = cur
			}
			continue
		}
		cur = 0
	}
	return longest
}

// EstimateTokens gives a rough token count for the payload.
func EstimateTokens(p model.Payload) int {
	return (len(p.SystemMessage) + len(p.UserMessage)) / 4
}
