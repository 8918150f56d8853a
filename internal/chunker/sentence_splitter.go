// Package chunker splits extracted documents into overlapping,
// sentence-bounded chunks sized in tokens, re-attributing every chunk to the
// page range it came from.
package chunker

import (
	"errors"
	"regexp"
	"strings"

	"aeroassist/internal/domain"
	"aeroassist/internal/extract"
)

const (
	DefaultChunkSize    = 640
	DefaultChunkOverlap = 60
)

// SentenceSplitter produces token-bounded chunks that preferentially break at
// sentence boundaries. Sizes are measured with the injected tokenizer so they
// stay aligned with the embedding model's context window.
type SentenceSplitter struct {
	tok          domain.Tokenizer
	chunkSize    int
	chunkOverlap int
	sentenceRe   *regexp.Regexp
}

// NewSentenceSplitter validates the chunking parameters. The overlap must be
// smaller than the chunk size or every split would stall in place.
func NewSentenceSplitter(tok domain.Tokenizer, chunkSize, chunkOverlap int) (*SentenceSplitter, error) {
	if tok == nil {
		return nil, errors.New("tokenizer must not be nil")
	}
	if chunkSize <= 0 {
		return nil, errors.New("chunk size must be positive")
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, errors.New("chunk overlap must be in [0, chunk_size)")
	}
	return &SentenceSplitter{
		tok:          tok,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		sentenceRe:   regexp.MustCompile(`[^.!?]+[.!?]*`),
	}, nil
}

// Split runs page extraction from scratch and returns the chunk sequence for
// the document. Calling it twice on the same bytes yields the same chunks.
func (s *SentenceSplitter) Split(documentData []byte) ([]domain.LocalizedText, error) {
	pages, err := extract.Pages(documentData)
	if err != nil {
		return nil, err
	}
	return s.SplitPages(pages), nil
}

// SplitPages re-joins the per-page spans into one document stream, splits it,
// and resolves each chunk back to a page range through the page-offset index.
func (s *SentenceSplitter) SplitPages(pages []domain.LocalizedText) []domain.LocalizedText {
	var sb strings.Builder
	pageOffsets := make([]int, 0, len(pages))
	pageNos := make([]int, 0, len(pages))
	for _, page := range pages {
		sb.WriteString(page.Text)
		sb.WriteString("\n")
		pageOffsets = append(pageOffsets, sb.Len())
		pageNos = append(pageNos, page.StartPageNo)
	}
	documentText := sb.String()
	if strings.TrimSpace(documentText) == "" {
		return nil
	}

	var chunks []domain.LocalizedText
	for _, sp := range s.splitWithOffsets(documentText) {
		text := strings.TrimSpace(documentText[sp.start:sp.end])
		if text == "" {
			continue
		}
		chunks = append(chunks, domain.LocalizedText{
			Text:        text,
			StartPageNo: pageNos[pageNoIndexForOffset(pageOffsets, sp.start)],
			EndPageNo:   pageNos[pageNoIndexForOffset(pageOffsets, sp.end)],
		})
	}
	return chunks
}

// pageNoIndexForOffset returns the index of the first page whose cumulative
// character count exceeds the given offset. An offset past the end of the
// index resolves to the last recorded page rather than page zero, so trailing
// chunks keep a monotonic page attribution.
func pageNoIndexForOffset(pageOffsets []int, offset int) int {
	for i, cumulative := range pageOffsets {
		if cumulative > offset {
			return i
		}
	}
	return len(pageOffsets) - 1
}

type span struct {
	start  int
	end    int
	tokens int
}

// splitWithOffsets packs sentences greedily into chunks of at most chunkSize
// tokens, then backs up over the tail sentences of each chunk to form the
// overlap for the next one.
func (s *SentenceSplitter) splitWithOffsets(text string) []span {
	sentences := s.sentenceSpans(text)
	if len(sentences) == 0 {
		return nil
	}

	var out []span
	i := 0
	for i < len(sentences) {
		total := 0
		j := i
		for j < len(sentences) && total+sentences[j].tokens <= s.chunkSize {
			total += sentences[j].tokens
			j++
		}
		if j == i {
			j = i + 1
		}
		out = append(out, span{start: sentences[i].start, end: sentences[j-1].end, tokens: total})
		if j >= len(sentences) {
			break
		}
		next := j
		overlap := 0
		for next > i+1 && overlap+sentences[next-1].tokens <= s.chunkOverlap {
			overlap += sentences[next-1].tokens
			next--
		}
		i = next
	}
	return out
}

// sentenceSpans segments the text into sentence units with byte offsets and
// token counts. A sentence longer than the chunk size is hard-split into
// token windows; offsets inside it are recovered by decoding token prefixes,
// which round-trips exactly for the BPE encodings in use.
func (s *SentenceSplitter) sentenceSpans(text string) []span {
	var units []span
	for _, loc := range s.sentenceRe.FindAllStringIndex(text, -1) {
		tokens := s.tok.Encode(text[loc[0]:loc[1]])
		if len(tokens) <= s.chunkSize {
			units = append(units, span{start: loc[0], end: loc[1], tokens: len(tokens)})
			continue
		}
		step := s.chunkSize - s.chunkOverlap
		for t := 0; t < len(tokens); t += step {
			end := t + s.chunkSize
			if end > len(tokens) {
				end = len(tokens)
			}
			units = append(units, span{
				start:  loc[0] + len(s.tok.Decode(tokens[:t])),
				end:    loc[0] + len(s.tok.Decode(tokens[:end])),
				tokens: end - t,
			})
			if end == len(tokens) {
				break
			}
		}
	}
	return units
}
