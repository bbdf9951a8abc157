package worker

import (
	"bufio"
	"context"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ppiankov/epistemia/internal/model"
)

// Auditor audits one claim document on disk
type Auditor interface {
	AuditFile(ctx context.Context, path string) (*model.Report, error)
}

// AuditResult is the outcome of auditing one document
type AuditResult struct {
	Path     string
	Report   *model.Report
	Error    error
	Duration time.Duration
}

// BatchProcessor audits many documents concurrently
type BatchProcessor struct {
	auditor Auditor
	pool    *Pool
	logger  *zap.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(auditor Auditor, concurrency int, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		auditor: auditor,
		pool:    NewPool(concurrency, logger),
		logger:  logger,
	}
}

// ProcessPaths audits every path. Results keep input order.
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*AuditResult {
	results := make([]*AuditResult, len(paths))

	errs := b.pool.Run(ctx, len(paths), func(ctx context.Context, i int) error {
		start := time.Now()
		report, err := b.auditor.AuditFile(ctx, paths[i])
		results[i] = &AuditResult{
			Path:     paths[i],
			Report:   report,
			Error:    err,
			Duration: time.Since(start),
		}
		if err != nil {
			b.logger.Warn("Audit failed", zap.String("path", paths[i]), zap.Error(err))
		}
		return err
	})

	// Tasks that never ran or panicked leave no result behind
	for i, err := range errs {
		if results[i] == nil {
			results[i] = &AuditResult{Path: paths[i], Error: err}
		}
	}

	return results
}

// ProcessFile reads document paths from a list file and audits them
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*AuditResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, err
	}
	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads document paths (one per line). Blank lines and
// '#' comments are skipped, duplicates dropped.
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, eris.Wrap(err, "worker: open list file")
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "worker: scan list file")
	}

	return paths, nil
}
