package inference

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aeroassist/internal/domain"
)

// scriptedModel answers the classification prompt first, then the final
// prompt, recording everything it was asked.
type scriptedModel struct {
	responses []string
	prompts   []string
}

func (m *scriptedModel) Complete(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if len(m.responses) == 0 {
		return "", errors.New("no scripted response left")
	}
	response := m.responses[0]
	m.responses = m.responses[1:]
	return response, nil
}

type fakeRetriever struct {
	results []domain.SearchResult
	queries []string
}

func (r *fakeRetriever) Search(_ context.Context, query string) ([]domain.SearchResult, error) {
	r.queries = append(r.queries, query)
	return r.results, nil
}

func newTestOrchestrator(t *testing.T, cfg Config) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(cfg)
	require.NoError(t, err)
	return o
}

func TestInferEmptyHistory(t *testing.T) {
	model := &scriptedModel{}
	retriever := &fakeRetriever{}
	o := newTestOrchestrator(t, Config{Model: model, Retriever: retriever})

	_, err := o.Infer(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyHistory)
	// Fails fast: no external service was contacted.
	assert.Empty(t, model.prompts)
	assert.Empty(t, retriever.queries)
}

func TestInferCasualSkipsRetrieval(t *testing.T) {
	model := &scriptedModel{responses: []string{"CASUAL", "Hello to you too!"}}
	retriever := &fakeRetriever{}
	o := newTestOrchestrator(t, Config{Model: model, Retriever: retriever})

	result, err := o.Infer(context.Background(), []domain.InferenceInteraction{
		{Originator: domain.OriginatorUser, Text: "Hello!"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello to you too!", result.Text)
	assert.Empty(t, result.Sources)
	assert.Empty(t, retriever.queries)
}

func TestInferTechnicalRetrievesOnce(t *testing.T) {
	model := &scriptedModel{responses: []string{"TECHNICAL", "Check the oil pump."}}
	retriever := &fakeRetriever{results: []domain.SearchResult{
		{Text: "Oil pressure limits...", Metadata: domain.ChunkMetadata{
			FileName: "/data/manuals/jabiru_5100.pdf", FileHash: "abc123", StartPageNo: 2, EndPageNo: 3,
		}},
	}}
	o := newTestOrchestrator(t, Config{Model: model, Retriever: retriever})

	question := "My oil pressure dropped, Jabiru 5100"
	result, err := o.Infer(context.Background(), []domain.InferenceInteraction{
		{Originator: domain.OriginatorUser, Text: question},
	})
	require.NoError(t, err)
	require.Equal(t, []string{question}, retriever.queries)
	require.Len(t, result.Sources, 1)
	// Basename only, pages shifted to 1-based.
	assert.Equal(t, "jabiru_5100.pdf", result.Sources[0].FileName)
	assert.Equal(t, "abc123", result.Sources[0].FileHash)
	assert.Equal(t, 3, result.Sources[0].StartPageNo)
	assert.Equal(t, 4, result.Sources[0].EndPageNo)
	// The retrieved passage made it into the final prompt.
	require.Len(t, model.prompts, 2)
	assert.Contains(t, model.prompts[1], "Oil pressure limits...")
	assert.Contains(t, model.prompts[1], "do not use ```markdown``` code blocks")
}

func TestClassificationDefaultsToCasual(t *testing.T) {
	model := &scriptedModel{responses: []string{"no idea what this is", "Answer."}}
	retriever := &fakeRetriever{}
	o := newTestOrchestrator(t, Config{Model: model, Retriever: retriever})

	result, err := o.Infer(context.Background(), []domain.InferenceInteraction{
		{Originator: domain.OriginatorUser, Text: "Hmm."},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Sources)
	assert.Empty(t, retriever.queries)
}

func TestClassificationCaseInsensitiveFallback(t *testing.T) {
	model := &scriptedModel{responses: []string{"this looks technical to me", "Answer."}}
	retriever := &fakeRetriever{}
	o := newTestOrchestrator(t, Config{Model: model, Retriever: retriever})

	_, err := o.Infer(context.Background(), []domain.InferenceInteraction{
		{Originator: domain.OriginatorUser, Text: "Describe the fuel system."},
	})
	require.NoError(t, err)
	assert.Len(t, retriever.queries, 1)
}

func TestClassificationPrefersCasualOnBoth(t *testing.T) {
	model := &scriptedModel{responses: []string{"CASUAL or TECHNICAL", "Answer."}}
	retriever := &fakeRetriever{}
	o := newTestOrchestrator(t, Config{Model: model, Retriever: retriever})

	_, err := o.Infer(context.Background(), []domain.InferenceInteraction{
		{Originator: domain.OriginatorUser, Text: "Hey."},
	})
	require.NoError(t, err)
	assert.Empty(t, retriever.queries)
}

func TestSkipClassificationAlwaysRetrieves(t *testing.T) {
	model := &scriptedModel{responses: []string{"Answer."}}
	retriever := &fakeRetriever{}
	o := newTestOrchestrator(t, Config{Model: model, Retriever: retriever, SkipClassification: true})

	_, err := o.Infer(context.Background(), []domain.InferenceInteraction{
		{Originator: domain.OriginatorUser, Text: "Anything."},
	})
	require.NoError(t, err)
	assert.Len(t, retriever.queries, 1)
	// Only the final prompt was sent; no classification round-trip.
	assert.Len(t, model.prompts, 1)
}

func TestTechnicalTemplateOverride(t *testing.T) {
	model := &scriptedModel{responses: []string{"Answer."}}
	retriever := &fakeRetriever{results: []domain.SearchResult{{Text: "passage"}}}
	o := newTestOrchestrator(t, Config{
		Model:                     model,
		Retriever:                 retriever,
		SkipClassification:        true,
		TechnicalTemplateOverride: "Q: {question}\nR: {search_results}",
	})

	_, err := o.Infer(context.Background(), []domain.InferenceInteraction{
		{Originator: domain.OriginatorUser, Text: "How?"},
	})
	require.NoError(t, err)
	require.Len(t, model.prompts, 1)
	assert.Equal(t, "Q: How?\nR: passage", model.prompts[0])
}

func TestHistoryFormatting(t *testing.T) {
	history := []domain.InferenceInteraction{
		{Originator: domain.OriginatorUser, Text: "Hi there. "},
		{Originator: domain.OriginatorAgent, Text: "Hello, how can I help?"},
		{Originator: domain.OriginatorUser, Text: "What next?"},
	}
	formatted := concatenateHistory(history)
	assert.Equal(t, "Engineer: Hi there.\n\nYou: Hello, how can I help?", formatted)

	assert.Equal(t, "None.", concatenateHistory(history[2:]))
}

func TestHistoryAppearsInPrompt(t *testing.T) {
	model := &scriptedModel{responses: []string{"CASUAL", "Sure."}}
	retriever := &fakeRetriever{}
	o := newTestOrchestrator(t, Config{Model: model, Retriever: retriever})

	_, err := o.Infer(context.Background(), []domain.InferenceInteraction{
		{Originator: domain.OriginatorUser, Text: "Good morning"},
		{Originator: domain.OriginatorAgent, Text: "Morning!"},
		{Originator: domain.OriginatorUser, Text: "Thanks for yesterday"},
	})
	require.NoError(t, err)
	require.Len(t, model.prompts, 2)
	for _, prompt := range model.prompts {
		assert.Contains(t, prompt, "Engineer: Good morning")
		assert.Contains(t, prompt, "You: Morning!")
	}
	// Rendered prompts are dedented.
	for _, line := range strings.Split(model.prompts[1], "\n") {
		assert.False(t, strings.HasPrefix(line, "\t"), "prompt line still indented: %q", line)
	}
}

func TestQuerySearchIndex(t *testing.T) {
	model := &scriptedModel{}
	retriever := &fakeRetriever{results: []domain.SearchResult{
		{Text: "passage", Metadata: domain.ChunkMetadata{FileName: "a.pdf", FileHash: "h1", StartPageNo: 0, EndPageNo: 0}},
	}}
	o := newTestOrchestrator(t, Config{Model: model, Retriever: retriever})

	sources, err := o.QuerySearchIndex(context.Background(), "  fuel pump  ")
	require.NoError(t, err)
	assert.Equal(t, []string{"fuel pump"}, retriever.queries)
	require.Len(t, sources, 1)
	assert.Equal(t, 1, sources[0].StartPageNo)
}
