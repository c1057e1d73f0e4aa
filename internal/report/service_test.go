package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhenghao/ledger-reporter/internal/history"
	"github.com/zhenghao/ledger-reporter/internal/notify"
)

// mockRecorder captures run records for assertions.
type mockRecorder struct {
	records []*history.RunRecord
	err     error
}

func (m *mockRecorder) Create(record *history.RunRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, record)
	return nil
}

// mockNotifier captures run notices.
type mockNotifier struct {
	notices []notify.RunNotice
	err     error
}

func (m *mockNotifier) NotifyRunComplete(ctx context.Context, notice notify.RunNotice) error {
	if m.err != nil {
		return m.err
	}
	m.notices = append(m.notices, notice)
	return nil
}

func successTemplate() *stubTemplate {
	return &stubTemplate{
		meta: Meta{ID: "ledger-daily", Name: "台账日报"},
		result: &GenerateResult{
			OutputPath:   "/out/台账-20250111.xlsx",
			TargetDate:   time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
			YMD:          "20250111",
			AppendedRows: 5,
		},
	}
}

func TestServiceGenerateSuccess(t *testing.T) {
	registry := NewRegistry()
	tmpl := successTemplate()
	registry.Register(tmpl)

	recorder := &mockRecorder{}
	notifier := &mockNotifier{}
	svc := NewService(registry, recorder, notifier, zap.NewNop())

	result, err := svc.Generate(context.Background(), "ledger-daily", GenerateRequest{DateInput: "20250111"})
	require.NoError(t, err)
	assert.Equal(t, 5, result.AppendedRows)
	assert.Equal(t, 1, tmpl.calls)

	require.Len(t, recorder.records, 1)
	record := recorder.records[0]
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "ledger-daily", record.TemplateID)
	assert.Equal(t, "20250111", record.TargetDate)
	assert.Equal(t, history.StatusSucceeded, record.Status)
	assert.Equal(t, 5, record.AppendedRows)

	require.Len(t, notifier.notices, 1)
	notice := notifier.notices[0]
	assert.Equal(t, "台账日报", notice.TemplateName)
	assert.Equal(t, 5, notice.AppendedRows)
	assert.NoError(t, notice.Err)
}

func TestServiceGenerateNoOpStatus(t *testing.T) {
	registry := NewRegistry()
	tmpl := successTemplate()
	tmpl.result.NoOp = true
	tmpl.result.AppendedRows = 0
	registry.Register(tmpl)

	recorder := &mockRecorder{}
	svc := NewService(registry, recorder, nil, zap.NewNop())

	result, err := svc.Generate(context.Background(), "ledger-daily", GenerateRequest{DateInput: "20250111"})
	require.NoError(t, err)
	assert.True(t, result.NoOp)

	require.Len(t, recorder.records, 1)
	assert.Equal(t, history.StatusNoOp, recorder.records[0].Status)
}

func TestServiceGenerateFailureRecorded(t *testing.T) {
	registry := NewRegistry()
	boom := errors.New("extraction failed")
	registry.Register(&stubTemplate{meta: Meta{ID: "ledger-daily"}, err: boom})

	recorder := &mockRecorder{}
	notifier := &mockNotifier{}
	svc := NewService(registry, recorder, notifier, zap.NewNop())

	_, err := svc.Generate(context.Background(), "ledger-daily", GenerateRequest{DateInput: "20250111"})
	assert.ErrorIs(t, err, boom)

	require.Len(t, recorder.records, 1)
	assert.Equal(t, history.StatusFailed, recorder.records[0].Status)
	assert.Equal(t, "extraction failed", recorder.records[0].Error)

	require.Len(t, notifier.notices, 1)
	assert.ErrorIs(t, notifier.notices[0].Err, boom)
}

func TestServiceGenerateUnknownTemplate(t *testing.T) {
	recorder := &mockRecorder{}
	svc := NewService(NewRegistry(), recorder, nil, zap.NewNop())

	_, err := svc.Generate(context.Background(), "missing", GenerateRequest{})
	var notFound *TemplateNotFoundError
	assert.ErrorAs(t, err, &notFound)

	// No run happened, nothing recorded.
	assert.Empty(t, recorder.records)
}

func TestServiceSideEffectFailuresAreNonFatal(t *testing.T) {
	registry := NewRegistry()
	registry.Register(successTemplate())

	recorder := &mockRecorder{err: errors.New("db down")}
	notifier := &mockNotifier{err: errors.New("lark down")}
	svc := NewService(registry, recorder, notifier, zap.NewNop())

	result, err := svc.Generate(context.Background(), "ledger-daily", GenerateRequest{DateInput: "20250111"})
	require.NoError(t, err)
	assert.Equal(t, 5, result.AppendedRows)
}
