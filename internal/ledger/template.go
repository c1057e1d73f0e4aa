package ledger

import (
	"context"

	"go.uber.org/zap"

	"github.com/zhenghao/ledger-reporter/internal/report"
	"github.com/zhenghao/ledger-reporter/internal/source"
)

// TemplateID identifies the daily financing-ledger template in the registry.
const TemplateID = "ledger-daily"

// DailyTemplate adapts the daily append pipeline to the report template
// contract.
type DailyTemplate struct {
	appender *DailyAppender
}

// NewDailyTemplate creates the template.
func NewDailyTemplate(cfg Config, resolver *source.Resolver, logger *zap.Logger) *DailyTemplate {
	return &DailyTemplate{appender: NewDailyAppender(cfg, resolver, logger)}
}

// Meta describes the template.
func (t *DailyTemplate) Meta() report.Meta {
	return report.Meta{
		ID:          TemplateID,
		Name:        "台账日报",
		Description: "将目标日期的放款与还款记录追加到台账工作簿",
		Sources:     Requirements(),
	}
}

// Generate runs one daily append. The output filename is derived from the
// baseline ledger's name plus the target date.
func (t *DailyTemplate) Generate(ctx context.Context, req report.GenerateRequest) (*report.GenerateResult, error) {
	_, ymd, err := ParseTargetDate(req.DateInput)
	if err != nil {
		return nil, err
	}
	ledgerPath := req.Paths[SourceLedgerWorkbook]
	outputPath := report.OutputPath(req.OutputDir, ledgerPath, ymd)

	run, err := t.appender.Run(ctx, RunInput{
		Paths:      req.Paths,
		DateInput:  req.DateInput,
		OutputPath: outputPath,
	})
	if err != nil {
		return nil, err
	}

	result := &report.GenerateResult{
		OutputPath:   run.OutputPath,
		TargetDate:   run.TargetDate,
		YMD:          run.YMD,
		AppendedRows: run.AppendedRows,
		NoOp:         run.NoOp,
	}
	if run.NoOp {
		result.Warnings = append(result.Warnings, report.Warning{
			Code:    "no_new_rows",
			Message: "目标日期无新增数据，输出为基线文件的副本",
		})
	}
	return result, nil
}
