// Package inference runs the retrieval-augmented prompting protocol:
// classify the turn, retrieve passages when it is technical, assemble the
// prompt, invoke the model, and attach attributed sources to the answer.
package inference

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"aeroassist/internal/domain"
)

// ErrEmptyHistory is returned when an inference request carries no turns.
// It fails fast, before any external service is contacted.
var ErrEmptyHistory = errors.New("interaction history must not be empty")

// Orchestrator drives one inference request end to end.
type Orchestrator struct {
	model             domain.CompletionModel
	retriever         domain.Retriever
	skipClassify      bool
	technicalTemplate string
	casualTemplate    string
	classifyTemplate  string
}

// Config assembles an Orchestrator. With SkipClassification set, every turn
// is treated as technical and retrieval always runs. The technical prompt
// template may be overridden; placeholders are {history}, {question} and
// {search_results}.
type Config struct {
	Model                     domain.CompletionModel
	Retriever                 domain.Retriever
	SkipClassification        bool
	TechnicalTemplateOverride string
}

func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Model == nil {
		return nil, errors.New("completion model must not be nil")
	}
	if cfg.Retriever == nil {
		return nil, errors.New("retriever must not be nil")
	}
	technical := cfg.TechnicalTemplateOverride
	if technical == "" {
		technical = defaultTechnicalPromptTemplate
	}
	return &Orchestrator{
		model:             cfg.Model,
		retriever:         cfg.Retriever,
		skipClassify:      cfg.SkipClassification,
		technicalTemplate: technical,
		casualTemplate:    defaultCasualPromptTemplate,
		classifyTemplate:  defaultClassificationPromptTemplate,
	}, nil
}

// Infer answers the last turn of the history. Technical turns retrieve
// passages and cite them; casual turns answer directly with no sources.
func (o *Orchestrator) Infer(ctx context.Context, history []domain.InferenceInteraction) (domain.InferenceResult, error) {
	if len(history) == 0 {
		return domain.InferenceResult{}, ErrEmptyHistory
	}

	technical := true
	if !o.skipClassify {
		var err error
		technical, err = o.classifyTechnical(ctx, history)
		if err != nil {
			return domain.InferenceResult{}, err
		}
	}

	var searchResults []domain.SearchResult
	template := o.casualTemplate
	if technical {
		var err error
		searchResults, err = o.retriever.Search(ctx, extractQuestion(history))
		if err != nil {
			return domain.InferenceResult{}, err
		}
		template = o.technicalTemplate
	}

	prompt := renderTemplate(template, map[string]any{
		"history":        concatenateHistory(history),
		"question":       extractQuestion(history),
		"search_results": concatenateSearchResults(searchResults),
	})
	text, err := o.model.Complete(ctx, prompt)
	if err != nil {
		return domain.InferenceResult{}, err
	}

	return domain.InferenceResult{
		Text:    text,
		Sources: ExtractSources(searchResults),
	}, nil
}

// QuerySearchIndex runs retrieval for a bare query and returns attributed
// sources without invoking the model.
func (o *Orchestrator) QuerySearchIndex(ctx context.Context, query string) ([]domain.InferenceSource, error) {
	results, err := o.retriever.Search(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	return ExtractSources(results), nil
}

// classifyTechnical asks the model to label the current turn. The response
// is inspected case-sensitively first, then case-insensitively; anything
// ambiguous defaults to casual, so no retrieval happens on a wrong guess.
func (o *Orchestrator) classifyTechnical(ctx context.Context, history []domain.InferenceInteraction) (bool, error) {
	prompt := renderTemplate(o.classifyTemplate, map[string]any{
		"history":  concatenateHistory(history),
		"question": extractQuestion(history),
	})
	response, err := o.model.Complete(ctx, prompt)
	if err != nil {
		return false, err
	}
	if strings.Contains(response, "CASUAL") {
		return false, nil
	}
	if strings.Contains(response, "TECHNICAL") {
		return true, nil
	}
	upper := strings.ToUpper(response)
	if strings.Contains(upper, "CASUAL") {
		return false, nil
	}
	if strings.Contains(upper, "TECHNICAL") {
		return true, nil
	}
	return false, nil
}

// extractQuestion returns the trimmed text of the current (last) turn.
func extractQuestion(history []domain.InferenceInteraction) string {
	return strings.TrimSpace(history[len(history)-1].Text)
}

// concatenateHistory formats every turn except the current one as
// alternating Engineer/You lines, or "None." when there is no prior context.
func concatenateHistory(history []domain.InferenceInteraction) string {
	if len(history) < 2 {
		return "None."
	}
	lines := make([]string, 0, len(history)-1)
	for _, interaction := range history[:len(history)-1] {
		if interaction.Originator == domain.OriginatorAgent {
			lines = append(lines, "You: "+strings.TrimSpace(interaction.Text))
		} else {
			lines = append(lines, "Engineer: "+strings.TrimSpace(interaction.Text))
		}
	}
	return strings.Join(lines, "\n\n")
}

func concatenateSearchResults(results []domain.SearchResult) string {
	passages := make([]string, 0, len(results))
	for _, r := range results {
		passages = append(passages, r.Text)
	}
	return strings.Join(passages, "\n\n")
}

// ExtractSources converts raw search results into client-facing sources:
// basename-only file names and 1-based page numbers.
func ExtractSources(results []domain.SearchResult) []domain.InferenceSource {
	sources := make([]domain.InferenceSource, 0, len(results))
	for _, r := range results {
		sources = append(sources, domain.InferenceSource{
			Text:        r.Text,
			FileName:    filepath.Base(r.Metadata.FileName),
			FileHash:    r.Metadata.FileHash,
			StartPageNo: r.Metadata.StartPageNo + 1,
			EndPageNo:   r.Metadata.EndPageNo + 1,
		})
	}
	return sources
}
