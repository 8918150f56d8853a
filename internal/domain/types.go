package domain

import (
	"fmt"
	"sort"
	"strings"
)

// LocalizedText is a span of document text attributable to a physical page
// range. Page numbers are zero-based indices into the source document and
// start_page_no <= end_page_no always holds.
type LocalizedText struct {
	Text        string `json:"text"`
	StartPageNo int    `json:"start_page_no"`
	EndPageNo   int    `json:"end_page_no"`
}

// InferenceInteraction is a single turn in a conversation. Originator is
// either "user" or "agent"; the last element of a history is the question
// currently being asked.
type InferenceInteraction struct {
	Originator string `json:"originator"`
	Text       string `json:"text"`
}

const (
	OriginatorUser  = "user"
	OriginatorAgent = "agent"
)

// InferenceSource is a retrieved passage with its provenance. FileName is
// basename-only and page numbers are 1-based, both adjusted at the point the
// source is surfaced to a caller.
type InferenceSource struct {
	Text        string `json:"text"`
	FileName    string `json:"file_name"`
	FileHash    string `json:"file_hash"`
	StartPageNo int    `json:"start_page_no"`
	EndPageNo   int    `json:"end_page_no"`
}

// ToMarkdown renders the citation string for this source.
func (s InferenceSource) ToMarkdown() string {
	if s.StartPageNo == s.EndPageNo {
		return fmt.Sprintf("%s, p. %d", s.FileName, s.StartPageNo)
	}
	return fmt.Sprintf("%s, pp. %d-%d", s.FileName, s.StartPageNo, s.EndPageNo)
}

// InferenceResult is the model's answer together with the passages that
// informed it. Sources is empty when no retrieval was performed.
type InferenceResult struct {
	Text    string            `json:"text"`
	Sources []InferenceSource `json:"sources"`
}

// ToMarkdown renders the answer followed by a sorted, de-duplicated citation
// list. With no sources the answer is returned verbatim.
func (r InferenceResult) ToMarkdown() string {
	if len(r.Sources) == 0 {
		return r.Text
	}
	seen := make(map[string]struct{}, len(r.Sources))
	lines := make([]string, 0, len(r.Sources))
	for _, s := range r.Sources {
		line := "- " + s.ToMarkdown()
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}
	sort.Strings(lines)
	return r.Text + "\n\n----------\n\n" + strings.Join(lines, "\n")
}

// SearchResult is a matching chunk returned by the vector store with its
// stored payload and relevance score.
type SearchResult struct {
	Text     string
	Metadata ChunkMetadata
	Score    float64
}

// ChunkMetadata is the provenance payload stored alongside every embedded
// chunk. Page numbers are zero-based as produced by the chunk splitter.
type ChunkMetadata struct {
	FileName    string `json:"file_name"`
	FileHash    string `json:"file_hash"`
	StartPageNo int    `json:"start_page_no"`
	EndPageNo   int    `json:"end_page_no"`
}

// DocumentRef identifies a document to API clients.
type DocumentRef struct {
	FileName string `json:"file_name"`
	FileHash string `json:"file_hash"`
}

// DocumentRecord describes a registered document file.
type DocumentRecord struct {
	ID                 string
	FileName           string
	FileHash           string
	FileSize           int64
	FileModificationTS int64
}
