package ingest

import "context"

// Snippet is one order note found in a file.
type Snippet struct {
	SourcePath string
	Index      int // 0-based paragraph index within the file
	Text       string
	HashHex    string
	Format     string
}

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath   string
	Snippets     int
	Deduplicated int
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Failed       uint32
	Snippets     uint32
	Deduplicated uint32
}

// Ingestor is the behavior the batch command depends on.
type Ingestor interface {
	// IngestPath reads a single file.
	IngestPath(ctx context.Context, path string) ([]Snippet, IngestionResult, error)
	// IngestDirectory reads all matching files under root.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]Snippet, []IngestionResult, DirStats, error)
}
