package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhenghao/ledger-reporter/internal/history"
	"github.com/zhenghao/ledger-reporter/internal/notify"
)

// RunRecorder persists finished runs.
type RunRecorder interface {
	Create(record *history.RunRecord) error
}

// Notifier announces finished runs.
type Notifier interface {
	NotifyRunComplete(ctx context.Context, notice notify.RunNotice) error
}

// Service executes report runs: template lookup, generation, history
// recording, and notification. Recording and notification are best-effort
// and never fail a run that generated its file.
type Service struct {
	registry *Registry
	recorder RunRecorder
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates a report service. recorder and notifier may be nil.
func NewService(registry *Registry, recorder RunRecorder, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		registry: registry,
		recorder: recorder,
		notifier: notifier,
		logger:   logger,
	}
}

// Templates lists the registered templates.
func (s *Service) Templates() []Meta {
	return s.registry.List()
}

// Generate runs the template with the given id against req.
func (s *Service) Generate(ctx context.Context, templateID string, req GenerateRequest) (*GenerateResult, error) {
	template, err := s.registry.Get(templateID)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	started := time.Now()
	s.logger.Info("Starting report run",
		zap.String("run_id", runID),
		zap.String("template_id", templateID),
		zap.String("date_input", req.DateInput))

	result, err := template.Generate(ctx, req)
	duration := time.Since(started)

	record := &history.RunRecord{
		ID:         runID,
		TemplateID: templateID,
		TargetDate: req.DateInput,
		Duration:   duration,
	}
	notice := notify.RunNotice{
		TemplateName: template.Meta().Name,
		TargetDate:   req.DateInput,
	}

	if err != nil {
		record.Status = history.StatusFailed
		record.Error = err.Error()
		notice.Err = err
	} else {
		record.TargetDate = result.YMD
		record.OutputPath = result.OutputPath
		record.AppendedRows = result.AppendedRows
		record.Status = history.StatusSucceeded
		if result.NoOp {
			record.Status = history.StatusNoOp
		}
		notice.TargetDate = result.YMD
		notice.OutputPath = result.OutputPath
		notice.AppendedRows = result.AppendedRows
		notice.NoOp = result.NoOp
	}

	s.record(record)
	s.notify(ctx, notice)

	if err != nil {
		s.logger.Error("Report run failed",
			zap.String("run_id", runID),
			zap.String("template_id", templateID),
			zap.Duration("duration", duration),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Report run finished",
		zap.String("run_id", runID),
		zap.String("template_id", templateID),
		zap.String("output", result.OutputPath),
		zap.Int("appended_rows", result.AppendedRows),
		zap.Bool("noop", result.NoOp),
		zap.Duration("duration", duration))
	return result, nil
}

func (s *Service) record(record *history.RunRecord) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Create(record); err != nil {
		s.logger.Warn("Failed to record run history",
			zap.String("run_id", record.ID),
			zap.Error(err))
	}
}

func (s *Service) notify(ctx context.Context, notice notify.RunNotice) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyRunComplete(ctx, notice); err != nil {
		s.logger.Warn("Failed to send run notification", zap.Error(err))
	}
}
