package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroupings(t *testing.T) {
	t.Run("valid lines", func(t *testing.T) {
		out := "Kitchen remodel: 0, 2\nWebsite launch: 1, 3, 4\n"
		got := parseGroupings(out, 5)
		require.Len(t, got, 2)
		assert.Equal(t, "Kitchen remodel", got[0].Name)
		assert.Equal(t, []int{0, 2}, got[0].Indices)
		assert.Equal(t, []int{1, 3, 4}, got[1].Indices)
	})

	t.Run("out of range indices dropped", func(t *testing.T) {
		got := parseGroupings("Cleanup: 0, 7, -1, 2", 3)
		require.Len(t, got, 1)
		assert.Equal(t, []int{0, 2}, got[0].Indices)
	})

	t.Run("only invalid indices skips line", func(t *testing.T) {
		assert.Empty(t, parseGroupings("Cleanup: 9, 10", 3))
	})

	t.Run("none answer", func(t *testing.T) {
		assert.Empty(t, parseGroupings("None", 3))
	})

	t.Run("missing colon skipped", func(t *testing.T) {
		assert.Empty(t, parseGroupings("just prose without structure", 3))
	})
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 15, parseDuration("15"))
	assert.Equal(t, 30, parseDuration("I'd say 30 minutes"))
	assert.Equal(t, 120, parseDuration("120\n"))
	assert.Zero(t, parseDuration("45"), "off-bucket values rejected")
	assert.Zero(t, parseDuration("no idea"))
	assert.Zero(t, parseDuration(""))
}

func TestParseTags(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		got := parseTags(`{"tags": ["Code Review", "golang"]}`)
		assert.Equal(t, []string{"code-review", "golang"}, got)
	})

	t.Run("fenced json", func(t *testing.T) {
		got := parseTags("```json\n{\"tags\": [\"work\"]}\n```")
		assert.Equal(t, []string{"work"}, got)
	})

	t.Run("capped at five", func(t *testing.T) {
		got := parseTags(`{"tags": ["a", "b", "c", "d", "e", "f", "g"]}`)
		assert.Len(t, got, 5)
	})

	t.Run("bad json", func(t *testing.T) {
		assert.Empty(t, parseTags("sorry, I can't"))
		assert.Empty(t, parseTags(""))
	})
}
