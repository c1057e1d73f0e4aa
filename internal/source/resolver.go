package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/zhenghao/ledger-reporter/internal/excel"
)

// DefaultSizeLimit is the pre-flight ceiling for source files.
const DefaultSizeLimit = 100 * 1024 * 1024

// streamableExts lists container formats our sequential reader understands.
// Anything else requested as a stream downgrades to a full workbook load.
var streamableExts = map[string]bool{
	"xlsx": true,
}

// Resolver validates declared sources and applies their load strategies.
type Resolver struct {
	sizeLimit int64
	logger    *zap.Logger
}

// NewResolver creates a resolver. A sizeLimit of zero uses DefaultSizeLimit.
func NewResolver(sizeLimit int64, logger *zap.Logger) *Resolver {
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	return &Resolver{sizeLimit: sizeLimit, logger: logger}
}

// Resolve validates the file at path against the requirement and returns an
// access context for it. primary is the strategy of the run's primary source
// and is what StrategyAuto mirrors. All validation is pre-flight: a source
// that passes Resolve will not fail existence, extension, or size checks
// mid-stream.
func (r *Resolver) Resolve(req Requirement, path string, primary LoadStrategy) (*Context, error) {
	if path == "" {
		if req.Required {
			return nil, &MissingSourceError{ID: req.ID, Label: req.Label}
		}
		return nil, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &UnsupportedFileError{Path: path, Reason: "file does not exist"}
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !extAllowed(ext, req.Exts) {
		return nil, &UnsupportedFileError{
			Path:   path,
			Reason: fmt.Sprintf("extension %q not in allow-list %v", ext, req.Exts),
		}
	}

	if info.Size() > r.sizeLimit {
		return nil, &FileTooLargeError{Path: path, Size: info.Size(), Limit: r.sizeLimit}
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = StrategyAuto
	}
	if strategy == StrategyAuto {
		strategy = primary
		if strategy == "" || strategy == StrategyAuto {
			strategy = StrategyWorkbook
		}
	}
	if strategy == StrategyStream && !streamableExts[ext] {
		r.logger.Warn("source has no stream implementation, falling back to workbook load",
			zap.String("source_id", req.ID),
			zap.String("ext", ext))
		strategy = StrategyWorkbook
	}

	ctx := &Context{
		ID:       req.ID,
		Path:     path,
		Size:     info.Size(),
		Strategy: strategy,
	}

	switch strategy {
	case StrategyWorkbook:
		table, err := excel.LoadTable(path)
		if err != nil {
			return nil, fmt.Errorf("load source %q: %w", req.ID, err)
		}
		ctx.Table = table
		ctx.Factory = table
		ctx.SheetNames = table.SheetNames()
	default:
		factory := excel.FileStreamFactory{Path: path}
		src, err := factory.NewSource()
		if err != nil {
			return nil, fmt.Errorf("probe source %q: %w", req.ID, err)
		}
		ctx.SheetNames = src.SheetNames()
		if err := src.Close(); err != nil {
			return nil, fmt.Errorf("close probe for source %q: %w", req.ID, err)
		}
		ctx.Factory = factory
	}

	r.logger.Debug("source resolved",
		zap.String("source_id", req.ID),
		zap.String("path", path),
		zap.Int64("size", ctx.Size),
		zap.String("strategy", string(strategy)))

	return ctx, nil
}

func extAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}
