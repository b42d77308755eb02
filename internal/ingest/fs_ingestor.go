package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joseph-ayodele/orders-tracker/constants"
)

// maxFileSize bounds a single notes file.
const maxFileSize = 4 << 20

// FSIngestor reads order notes from the local filesystem. Snippets whose text
// was already seen by this ingestor are reported as deduplicated and dropped.
type FSIngestor struct {
	AllowedExts map[string]struct{} // lowercased sans '.'; nil -> default set
	logger      *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewFSIngestor(logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{logger: logger, seen: make(map[string]struct{})}
}

func (i *FSIngestor) allowed(ext string) bool {
	if i.AllowedExts == nil {
		return AllowedExt(ext)
	}
	_, ok := i.AllowedExts[constants.NormalizeExt(ext)]
	return ok
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) ([]Snippet, IngestionResult, error) {
	out := IngestionResult{SourcePath: path}
	if err := ctx.Err(); err != nil {
		return nil, out, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		i.logger.Error("abs path error", "path", path, "error", err)
		return nil, out, err
	}
	out.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !i.allowed(ext) {
		i.logger.Warn("unsupported or missing extension", "path", abs, "ext", ext)
		return nil, out, fmt.Errorf("unsupported or missing extension: %q", ext)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, out, err
	}
	if info.Size() > maxFileSize {
		return nil, out, fmt.Errorf("%s: file too large (%d bytes)", abs, info.Size())
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		i.logger.Error("read error", "path", abs, "error", err)
		return nil, out, err
	}

	format := constants.FormatForExt(ext)
	var snippets []Snippet
	for idx, text := range SplitSnippets(string(data), format) {
		sum := sha256.Sum256([]byte(text))
		h := hex.EncodeToString(sum[:])
		if !i.markSeen(h) {
			out.Deduplicated++
			continue
		}
		snippets = append(snippets, Snippet{
			SourcePath: abs,
			Index:      idx,
			Text:       text,
			HashHex:    h,
			Format:     format,
		})
	}
	out.Snippets = len(snippets)
	i.logger.Debug("file ingested", "path", abs, "snippets", out.Snippets, "deduplicated", out.Deduplicated)
	return snippets, out, nil
}

// markSeen records h and reports whether it was new.
func (i *FSIngestor) markSeen(h string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.seen == nil {
		i.seen = make(map[string]struct{})
	}
	if _, ok := i.seen[h]; ok {
		return false
	}
	i.seen[h] = struct{}{}
	return true
}

// IngestDirectory walks root, skips hidden if requested,
// and calls IngestPath for each file. Returns snippets, per-file results and aggregate stats.
func (i *FSIngestor) IngestDirectory(
	ctx context.Context,
	root string,
	skipHidden bool,
) ([]Snippet, []IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root_path is required")
	}

	var (
		snippets []Snippet
		results  []IngestionResult
		stats    DirStats
	)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !i.allowed(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		s, r, err := i.IngestPath(ctx, path)
		if err != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		snippets = append(snippets, s...)
		results = append(results, r)
		stats.Succeeded++
		stats.Snippets += uint32(r.Snippets)
		stats.Deduplicated += uint32(r.Deduplicated)
		return nil
	})

	if err != nil {
		return snippets, results, stats, fmt.Errorf("walk: %w", err)
	}
	return snippets, results, stats, nil
}
