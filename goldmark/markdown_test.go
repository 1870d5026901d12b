package goldmark_test

import (
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/fwojciec/chatkit"
	"github.com/fwojciec/chatkit/goldmark"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Force ANSI output so styled spans produce escape codes.
	lipgloss.SetColorProfile(termenv.ANSI)
	os.Exit(m.Run())
}

func TestRender(t *testing.T) {
	t.Parallel()

	theme := chatkit.DefaultTheme()

	tests := []struct {
		name  string
		src   string
		width int
		want  []string
	}{
		{"plain paragraph", "hello world", 80, []string{"hello world"}},
		{"bold", "**bold**", 80, []string{"bold"}},
		{"italic", "*italic*", 80, []string{"italic"}},
		{"strikethrough", "~~gone~~", 80, []string{"gone"}},
		{"inline code", "run `go test`", 80, []string{"run", "go test"}},
		{"fenced code with language", "```python\nprint('hi')\n```", 80, []string{"python", "print('hi')"}},
		{"code is not reflowed", "```go\nfmt.Println(\"hello world\")\n```", 20, []string{`fmt.Println("hello world")`}},
		{"bullet list", "- one\n- two", 80, []string{"• one", "• two"}},
		{"ordered list", "3. third\n4. fourth", 80, []string{"3. third", "4. fourth"}},
		{"task list", "- [x] done\n- [ ] todo", 80, []string{"[x] done", "[ ] todo"}},
		{"link", "[click](https://example.com)", 80, []string{"click", "(https://example.com)"}},
		{"autolink", "see https://go.dev today", 80, []string{"https://go.dev"}},
		{"image", "![alt text](https://example.com/a.png)", 80, []string{"alt text", "example.com/a.png"}},
		{"blockquote", "> quoted words", 80, []string{"▎ quoted words"}},
		{"thematic break", "above\n\n---\n\nbelow", 80, []string{"above", "───", "below"}},
		{"nested list", "- outer\n  - inner", 80, []string{"outer", "  • inner"}},
		{"zero width defaults", "hello world", 0, []string{"hello world"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ansi.Strip(goldmark.Render(tt.src, tt.width, theme))
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", goldmark.Render("", 80, theme))
	})

	t.Run("heading is styled differently from paragraph", func(t *testing.T) {
		t.Parallel()
		assert.NotEqual(t, goldmark.Render("# Title", 80, theme), goldmark.Render("Title", 80, theme))
	})

	t.Run("paragraph wraps to width", func(t *testing.T) {
		t.Parallel()
		long := "word1 word2 word3 word4 word5 word6 word7 word8 word9 word10 word11 word12"
		got := ansi.Strip(goldmark.Render(long, 30, theme))
		assert.Greater(t, len(strings.Split(got, "\n")), 1)
		assert.Contains(t, got, "word12")
	})

	t.Run("list continuation lines hang under the marker", func(t *testing.T) {
		t.Parallel()
		src := "- this is a very long list item that should wrap onto continuation lines"
		lines := strings.Split(ansi.Strip(goldmark.Render(src, 30, theme)), "\n")
		require.Greater(t, len(lines), 1)
		assert.True(t, strings.HasPrefix(lines[0], "• "))
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) != "" {
				assert.True(t, strings.HasPrefix(line, "  "), "continuation: %q", line)
			}
		}
	})
}

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	theme := chatkit.DefaultTheme()

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()
		r := goldmark.NewRenderer(theme)
		assert.Equal(t, "", r.Render("", true, "m1", 80))
	})

	t.Run("matches full render when complete", func(t *testing.T) {
		t.Parallel()
		r := goldmark.NewRenderer(theme)
		src := "first paragraph\n\nsecond paragraph"
		got := ansi.Strip(r.Render(src, false, "m1", 80))
		assert.Contains(t, got, "first paragraph")
		assert.Contains(t, got, "second paragraph")
	})

	t.Run("streaming closes unclosed fence", func(t *testing.T) {
		t.Parallel()
		r := goldmark.NewRenderer(theme)
		got := ansi.Strip(r.Render("intro\n\n```go\nx := 1", true, "m1", 80))
		assert.Contains(t, got, "intro")
		assert.Contains(t, got, "│ x := 1")
		assert.NotContains(t, got, "```")
	})

	t.Run("partial markdown never panics", func(t *testing.T) {
		t.Parallel()
		r := goldmark.NewRenderer(theme)
		for _, src := range []string{"**bo", "[link](", "- ", "# ", "```", "> ", "1."} {
			assert.NotPanics(t, func() { r.Render(src, true, "m1", 40) })
		}
	})

	t.Run("caches stable prefix per width", func(t *testing.T) {
		t.Parallel()
		r := goldmark.NewRenderer(theme)
		r.Render("one\n\ntwo", true, "m1", 80)
		r.Render("one\n\ntwo three", true, "m1", 80)
		assert.Equal(t, 1, r.CachedWidths("m1"))
		r.Render("one\n\ntwo three", true, "m1", 40)
		assert.Equal(t, 2, r.CachedWidths("m1"))
	})

	t.Run("prefix change invalidates cache", func(t *testing.T) {
		t.Parallel()
		r := goldmark.NewRenderer(theme)
		r.Render("one\n\ntwo", true, "m1", 80)
		r.Render("one\n\ntwo", true, "m1", 40)
		r.Render("one\n\ntwo\n\nthree", true, "m1", 80)
		assert.Equal(t, 1, r.CachedWidths("m1"))
	})

	t.Run("forget drops cache", func(t *testing.T) {
		t.Parallel()
		r := goldmark.NewRenderer(theme)
		r.Render("one\n\ntwo", false, "m1", 80)
		r.Forget("m1")
		assert.Equal(t, 0, r.CachedWidths("m1"))
	})
}

func TestStablePrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", goldmark.StablePrefix("no break"))
	assert.Equal(t, "a\n\nb", goldmark.StablePrefix("a\n\nb\n\nc"))
	assert.Equal(t, "a", goldmark.StablePrefix("a\n\n```\ncode\n\nmore"))
	assert.True(t, goldmark.HasUnclosedFence("```go\nx"))
	assert.False(t, goldmark.HasUnclosedFence("```go\nx\n```"))
}
