// Package ingest synchronizes a directory of PDF manuals into the document
// registry and the vector index.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"aeroassist/internal/domain"
	"aeroassist/internal/store"
)

// Pipeline chunks, embeds and indexes documents. Each file is processed to
// completion before the next; a parse failure skips the file rather than
// aborting the batch.
type Pipeline struct {
	splitter domain.Splitter
	embedder domain.Embedder
	vectors  domain.VectorStore
	registry *store.Store
	logger   *log.Logger
}

func NewPipeline(splitter domain.Splitter, embedder domain.Embedder, vectors domain.VectorStore, registry *store.Store, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		splitter: splitter,
		embedder: embedder,
		vectors:  vectors,
		registry: registry,
		logger:   logger,
	}
}

// SyncDirectory discovers every .pdf under dir recursively and ingests the
// ones whose content hash is not yet registered. Returns the number of
// documents (re)indexed.
func (p *Pipeline) SyncDirectory(ctx context.Context, dir string) (int, error) {
	var fileNames []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			fileNames = append(fileNames, path)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	sort.Strings(fileNames)

	if err := p.vectors.Init(ctx, p.embedder.Dimension()); err != nil {
		return 0, err
	}

	ingested := 0
	for i, fileName := range fileNames {
		fileHash, err := fileSHA256(fileName)
		if err != nil {
			return ingested, err
		}
		p.logger.Info("synchronizing document",
			"n", fmt.Sprintf("%d/%d", i+1, len(fileNames)),
			"file_hash", fileHash,
			"file_name", fileName)

		known, err := p.registry.DocumentByHash(ctx, fileHash)
		if err != nil {
			return ingested, err
		}
		if known != nil {
			continue
		}
		if err := p.ingestFile(ctx, fileName, fileHash); err != nil {
			p.logger.Error("document skipped", "file_name", fileName, "err", err)
			continue
		}
		ingested++
	}
	return ingested, nil
}

// IngestFile processes a single document regardless of registry state.
func (p *Pipeline) IngestFile(ctx context.Context, fileName string) error {
	fileHash, err := fileSHA256(fileName)
	if err != nil {
		return err
	}
	if err := p.vectors.Init(ctx, p.embedder.Dimension()); err != nil {
		return err
	}
	return p.ingestFile(ctx, fileName, fileHash)
}

func (p *Pipeline) ingestFile(ctx context.Context, fileName, fileHash string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return err
	}
	chunks, err := p.splitter.Split(data)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		p.logger.Warn("document produced no chunks", "file_name", fileName)
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}

	meta := domain.ChunkMetadata{FileName: fileName, FileHash: fileHash}
	if err := p.vectors.DeleteByFileHash(ctx, fileHash); err != nil {
		return err
	}
	if err := p.vectors.Upsert(ctx, chunks, meta, vectors); err != nil {
		return err
	}

	info, err := os.Stat(fileName)
	if err != nil {
		return err
	}
	return p.registry.UpsertDocument(ctx, domain.DocumentRecord{
		FileName:           fileName,
		FileHash:           fileHash,
		FileSize:           info.Size(),
		FileModificationTS: info.ModTime().Unix(),
	})
}

func fileSHA256(fileName string) (string, error) {
	fp, err := os.Open(fileName)
	if err != nil {
		return "", err
	}
	defer fp.Close()
	h := sha256.New()
	if _, err := io.Copy(h, fp); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
