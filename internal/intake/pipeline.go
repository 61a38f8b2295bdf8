// Package intake parses uploaded member spreadsheets and validates them
// against the member sales rules.
package intake

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"salesintake/internal/config"
	"salesintake/internal/domain"
)

const bytesPerMB = 1024 * 1024

// File is a candidate upload as received from the user.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Content     []byte
}

// Pipeline turns files into intake items. It never fails: every problem is
// recorded on the returned item.
type Pipeline struct {
	accepted    []string
	maxMB       int64
	previewRows int
	registry    *Registry
	logger      *zap.Logger
	now         func() time.Time
}

// NewPipeline creates a pipeline with the member rules for cfg.RequiredFields.
func NewPipeline(cfg config.IntakeConfig, logger *zap.Logger) *Pipeline {
	return NewPipelineWithRegistry(cfg, NewMemberRegistry(cfg.RequiredFields), logger)
}

// NewPipelineWithRegistry creates a pipeline running the rules in registry.
func NewPipelineWithRegistry(cfg config.IntakeConfig, registry *Registry, logger *zap.Logger) *Pipeline {
	accepted := make([]string, 0, len(cfg.AcceptedExtensions))
	for _, e := range cfg.AcceptedExtensions {
		accepted = append(accepted, strings.ToLower(e))
	}
	return &Pipeline{
		accepted:    accepted,
		maxMB:       cfg.MaxFileSizeMB,
		previewRows: cfg.PreviewRows,
		registry:    registry,
		logger:      logger,
		now:         time.Now,
	}
}

// MaxFileSizeBytes is the largest file the pipeline will decode.
func (p *Pipeline) MaxFileSizeBytes() int64 {
	return p.maxMB * bytesPerMB
}

// AcceptedExtensions lists the accepted file extensions.
func (p *Pipeline) AcceptedExtensions() []string {
	return append([]string(nil), p.accepted...)
}

// ParseAndValidate checks, decodes and validates f. Files with an
// unaccepted extension or over the size limit are rejected without being
// decoded. A decoded file is ready for upload whether or not it passed
// validation; the report says which.
func (p *Pipeline) ParseAndValidate(ctx context.Context, f File) *domain.IntakeItem {
	item := &domain.IntakeItem{
		ID:          uuid.New(),
		Name:        f.Name,
		SizeBytes:   f.Size,
		ContentType: f.ContentType,
		Status:      domain.ItemStatusReady,
		CreatedAt:   p.now().UTC(),
	}

	ext := strings.ToLower(filepath.Ext(f.Name))
	if !p.accepts(ext) {
		return p.reject(item, domain.ErrUnsupportedFileType, fmt.Sprintf("Unsupported file type %q: only %s files are accepted", ext, strings.Join(p.accepted, ", ")))
	}
	if float64(f.Size)/bytesPerMB > float64(p.maxMB) {
		return p.reject(item, domain.ErrFileTooLarge, fmt.Sprintf("File too large: max allowed size is %d MB", p.maxMB))
	}
	decode, ok := decoders[ext]
	if !ok {
		return p.reject(item, domain.ErrUnsupportedFileType, fmt.Sprintf("No reader available for %s files", ext))
	}
	if err := ctx.Err(); err != nil {
		return p.reject(item, err, fmt.Sprintf("Parsing canceled: %v", err))
	}

	records, err := safeDecode(decode, f.Content)
	if err != nil {
		p.logger.Info("intake.ParseAndValidate: decode failed", zap.String("file", f.Name), zap.Error(err))
		return p.reject(item, err, fmt.Sprintf("Failed to parse file: %v", err))
	}

	sheet := Project(records)
	item.Validation = p.registry.Validate(sheet)
	item.Preview = p.preview(sheet)
	item.Content = f.Content

	p.logger.Debug("intake.ParseAndValidate: parsed",
		zap.String("file", f.Name),
		zap.Int("rows", item.Validation.RowCount),
		zap.Int("issues", len(item.Validation.Errors)),
	)
	return item
}

// Validate re-runs the rules over an already projected sheet.
func (p *Pipeline) Validate(s *Sheet) *domain.ValidationReport {
	return p.registry.Validate(s)
}

func (p *Pipeline) accepts(ext string) bool {
	for _, a := range p.accepted {
		if a == ext {
			return true
		}
	}
	return false
}

func (p *Pipeline) reject(item *domain.IntakeItem, cause error, msg string) *domain.IntakeItem {
	item.Status = domain.ItemStatusError
	item.Error = msg
	item.Cause = cause
	return item
}

func (p *Pipeline) preview(s *Sheet) *domain.Preview {
	n := len(s.Rows)
	if n > p.previewRows {
		n = p.previewRows
	}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		rows[i] = append([]string(nil), s.Rows[i].Cells()...)
	}
	headers := make([]string, len(s.Headers))
	copy(headers, s.Headers)
	return &domain.Preview{Headers: headers, Rows: rows}
}

func safeDecode(decode Decoder, data []byte) (records [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			records, err = nil, fmt.Errorf("unreadable file: %v", r)
		}
	}()
	return decode(data)
}
