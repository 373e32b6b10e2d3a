package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wordsPage(number, count int, prefix string) PageText {
	words := make([]string, count)
	for i := range words {
		words[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return PageText{Number: number, Text: strings.Join(words, " ")}
}

func TestSplitEmptyPages(t *testing.T) {
	chunks := Split("doc-1", []PageText{
		{Number: 1, Text: ""},
		{Number: 2, Text: "   \n\t "},
	}, 260, 80)
	assert.Empty(t, chunks)
}

func TestSplitSinglePartialChunk(t *testing.T) {
	chunks := Split("doc-1", []PageText{{Number: 1, Text: "alpha beta gamma"}}, 260, 80)
	require.Len(t, chunks, 1)
	assert.Equal(t, "doc-1:0", chunks[0].ID)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[0].PageStart)
	assert.Equal(t, 1, chunks[0].PageEnd)
	assert.Equal(t, "alpha beta gamma", chunks[0].Text)
}

func TestSplitOverlapIsSuffixOfPrevious(t *testing.T) {
	chunks := Split("doc-1", []PageText{wordsPage(1, 700, "w")}, 260, 80)
	require.True(t, len(chunks) >= 2)

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1].Text)
		cur := strings.Fields(chunks[i].Text)
		overlap := 80
		if len(cur) < overlap {
			overlap = len(cur)
		}
		assert.Equal(t, prev[len(prev)-overlap:], cur[:overlap], "chunk %d must start with previous tail", i)
	}
}

func TestSplitReconstructsWordSequence(t *testing.T) {
	pages := []PageText{wordsPage(1, 300, "a"), wordsPage(2, 250, "b"), wordsPage(3, 90, "c")}
	var all []string
	for _, p := range pages {
		all = append(all, strings.Fields(p.Text)...)
	}

	chunks := Split("doc-1", pages, 260, 80)
	require.NotEmpty(t, chunks)

	var rebuilt []string
	for i, c := range chunks {
		words := strings.Fields(c.Text)
		assert.LessOrEqual(t, len(words), 260)
		if i == 0 {
			rebuilt = append(rebuilt, words...)
			continue
		}
		skip := 80
		if skip > len(words) {
			skip = len(words)
		}
		rebuilt = append(rebuilt, words[skip:]...)
	}
	assert.Equal(t, all, rebuilt)
}

func TestSplitPageSpans(t *testing.T) {
	pages := []PageText{wordsPage(1, 100, "a"), wordsPage(2, 200, "b"), wordsPage(3, 300, "c")}
	chunks := Split("doc-1", pages, 260, 80)
	require.NotEmpty(t, chunks)

	prevStart, prevEnd := 0, 0
	for _, c := range chunks {
		assert.GreaterOrEqual(t, c.PageStart, 1)
		assert.LessOrEqual(t, c.PageEnd, 3)
		assert.LessOrEqual(t, c.PageStart, c.PageEnd)
		assert.GreaterOrEqual(t, c.PageStart, prevStart)
		assert.GreaterOrEqual(t, c.PageEnd, prevEnd)
		prevStart, prevEnd = c.PageStart, c.PageEnd
	}

	// First chunk fills (100 a-words + 160 b-words) so it spans pages 1-2.
	assert.Equal(t, 1, chunks[0].PageStart)
	assert.Equal(t, 2, chunks[0].PageEnd)
	// Retained tail is attributed to the emitting page, so the next chunk
	// starts there even though tail words may predate it.
	assert.Equal(t, 2, chunks[1].PageStart)
}

func TestSplitDeterministicIDs(t *testing.T) {
	pages := []PageText{wordsPage(1, 500, "w")}
	first := Split("doc-1", pages, 260, 80)
	second := Split("doc-1", pages, 260, 80)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, fmt.Sprintf("doc-1:%d", i), first[i].ID)
	}
}

func TestSplitOverlapAtLeastChunkSizeDisablesOverlap(t *testing.T) {
	chunks := Split("doc-1", []PageText{wordsPage(1, 10, "w")}, 4, 4)
	require.Len(t, chunks, 3)
	var rebuilt []string
	for _, c := range chunks {
		rebuilt = append(rebuilt, strings.Fields(c.Text)...)
	}
	assert.Len(t, rebuilt, 10)
}
