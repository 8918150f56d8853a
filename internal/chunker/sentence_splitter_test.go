package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aeroassist/internal/domain"
)

// byteTokenizer treats every byte as one token, so token counts equal text
// lengths and decode round-trips exactly.
type byteTokenizer struct{}

func (byteTokenizer) Encode(text string) []int {
	tokens := make([]int, len(text))
	for i := 0; i < len(text); i++ {
		tokens[i] = int(text[i])
	}
	return tokens
}

func (byteTokenizer) Decode(tokens []int) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteByte(byte(t))
	}
	return sb.String()
}

func (byteTokenizer) Count(text string) int { return len(text) }

func newSplitter(t *testing.T, size, overlap int) *SentenceSplitter {
	t.Helper()
	s, err := NewSentenceSplitter(byteTokenizer{}, size, overlap)
	require.NoError(t, err)
	return s
}

func TestNewSentenceSplitterValidation(t *testing.T) {
	_, err := NewSentenceSplitter(nil, 640, 60)
	assert.Error(t, err)
	_, err = NewSentenceSplitter(byteTokenizer{}, 0, 0)
	assert.Error(t, err)
	_, err = NewSentenceSplitter(byteTokenizer{}, 100, 100)
	assert.Error(t, err)
	_, err = NewSentenceSplitter(byteTokenizer{}, 100, -1)
	assert.Error(t, err)
}

func TestSplitPagesSinglePage(t *testing.T) {
	s := newSplitter(t, 640, 60)
	chunks := s.SplitPages([]domain.LocalizedText{
		{Text: "Check the oil. Replace the filter.", StartPageNo: 0, EndPageNo: 0},
	})
	require.Len(t, chunks, 1)
	assert.Equal(t, "Check the oil. Replace the filter.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].StartPageNo)
	assert.Equal(t, 0, chunks[0].EndPageNo)
}

func TestSplitPagesAttributesPageRanges(t *testing.T) {
	s := newSplitter(t, 40, 0)
	pages := []domain.LocalizedText{
		{Text: "First page sentence one. More text here.", StartPageNo: 0, EndPageNo: 0},
		{Text: "Second page sentence. Even more text.", StartPageNo: 1, EndPageNo: 1},
	}
	chunks := s.SplitPages(pages)
	require.NotEmpty(t, chunks)

	assert.Equal(t, 0, chunks[0].StartPageNo)
	last := chunks[len(chunks)-1]
	assert.Equal(t, 1, last.EndPageNo)

	// Page attribution is monotonic non-decreasing in document order.
	for i := 1; i < len(chunks); i++ {
		assert.GreaterOrEqual(t, chunks[i].StartPageNo, chunks[i-1].StartPageNo)
	}
}

func TestSplitPagesSkippedPageKeepsPhysicalNumbering(t *testing.T) {
	s := newSplitter(t, 640, 60)
	// Page 0 was blank and never emitted by extraction; attribution must
	// point at the physical second page.
	chunks := s.SplitPages([]domain.LocalizedText{
		{Text: "Only the second page has content.", StartPageNo: 1, EndPageNo: 1},
	})
	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].StartPageNo)
	assert.Equal(t, 1, chunks[0].EndPageNo)
}

func TestSplitPagesTrailingOffsetResolvesToLastPage(t *testing.T) {
	s := newSplitter(t, 30, 0)
	pages := []domain.LocalizedText{
		{Text: "Short first page.", StartPageNo: 0, EndPageNo: 0},
		{Text: "The last page carries the final sentence of all.", StartPageNo: 3, EndPageNo: 3},
	}
	chunks := s.SplitPages(pages)
	require.NotEmpty(t, chunks)
	last := chunks[len(chunks)-1]
	assert.Equal(t, 3, last.EndPageNo)
}

func TestSplitPagesOverlap(t *testing.T) {
	s := newSplitter(t, 30, 10)
	// Five 10-token sentences; each chunk holds three and hands the last one
	// back as overlap for the next.
	text := "aaaaaaaaa.bbbbbbbbb.ccccccccc.ddddddddd.eeeeeeeee."
	chunks := s.SplitPages([]domain.LocalizedText{{Text: text, StartPageNo: 0, EndPageNo: 0}})
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		head := chunks[i].Text[:10]
		assert.True(t, strings.HasSuffix(chunks[i-1].Text, head),
			"chunk %d should end with the head of chunk %d", i-1, i)
	}
}

func TestSplitPagesLongSentenceHardSplit(t *testing.T) {
	s := newSplitter(t, 20, 5)
	long := strings.Repeat("abcde ", 20) // one 120-char "sentence", no terminator
	chunks := s.SplitPages([]domain.LocalizedText{{Text: long, StartPageNo: 0, EndPageNo: 0}})
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 20)
	}
}

func TestSplitPagesIdempotent(t *testing.T) {
	s := newSplitter(t, 50, 10)
	pages := []domain.LocalizedText{
		{Text: "One sentence here. Another sentence there. A third follows.", StartPageNo: 0, EndPageNo: 0},
		{Text: "Page two begins. Page two ends.", StartPageNo: 1, EndPageNo: 1},
	}
	first := s.SplitPages(pages)
	second := s.SplitPages(pages)
	assert.Equal(t, first, second)
}

func TestSplitPagesEmptyInput(t *testing.T) {
	s := newSplitter(t, 640, 60)
	assert.Empty(t, s.SplitPages(nil))
	assert.Empty(t, s.SplitPages([]domain.LocalizedText{}))
}
