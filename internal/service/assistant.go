// Package service is the application facade shared by the HTTP server and
// the chat TUI.
package service

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/charmbracelet/log"

	"aeroassist/internal/domain"
	"aeroassist/internal/inference"
	"aeroassist/internal/store"
)

// ErrDocumentNotFound is returned when a file hash has no registered
// document.
var ErrDocumentNotFound = errors.New("document not found")

// Assistant exposes question answering, document search, and document
// lookup over the underlying components. Every inference is audit-logged.
type Assistant struct {
	orchestrator *inference.Orchestrator
	registry     *store.Store
	logger       *log.Logger
}

func NewAssistant(orchestrator *inference.Orchestrator, registry *store.Store, logger *log.Logger) *Assistant {
	if logger == nil {
		logger = log.Default()
	}
	return &Assistant{orchestrator: orchestrator, registry: registry, logger: logger}
}

// Query answers the last turn of the interaction history and records the
// exchange in the inference log. Audit failures are logged, not surfaced:
// the engineer still gets their answer.
func (a *Assistant) Query(ctx context.Context, username string, history []domain.InferenceInteraction) (domain.InferenceResult, error) {
	result, err := a.orchestrator.Infer(ctx, history)
	if err != nil {
		return domain.InferenceResult{}, err
	}
	if err := a.registry.LogInference(ctx, username, history, result); err != nil {
		a.logger.Error("inference audit log failed", "err", err)
	}
	return result, nil
}

// SearchDocuments matches registered documents by file name.
func (a *Assistant) SearchDocuments(ctx context.Context, query string) ([]domain.DocumentRef, error) {
	records, err := a.registry.SearchDocuments(ctx, query)
	if err != nil {
		return nil, err
	}
	refs := make([]domain.DocumentRef, 0, len(records))
	for _, rec := range records {
		refs = append(refs, domain.DocumentRef{
			FileName: filepath.Base(rec.FileName),
			FileHash: rec.FileHash,
		})
	}
	return refs, nil
}

// SearchIndex runs a vector search and returns the distinct documents the
// matching chunks came from, in relevance order.
func (a *Assistant) SearchIndex(ctx context.Context, query string) ([]domain.DocumentRef, error) {
	sources, err := a.orchestrator.QuerySearchIndex(ctx, query)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(sources))
	refs := make([]domain.DocumentRef, 0, len(sources))
	for _, s := range sources {
		if _, ok := seen[s.FileHash]; ok {
			continue
		}
		seen[s.FileHash] = struct{}{}
		refs = append(refs, domain.DocumentRef{FileName: s.FileName, FileHash: s.FileHash})
	}
	return refs, nil
}

// DocumentPath resolves a file hash to the document's path on disk.
func (a *Assistant) DocumentPath(ctx context.Context, fileHash string) (string, error) {
	rec, err := a.registry.DocumentByHash(ctx, fileHash)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", ErrDocumentNotFound
	}
	return rec.FileName, nil
}
