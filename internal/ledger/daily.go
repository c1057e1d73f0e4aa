package ledger

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zhenghao/ledger-reporter/internal/excel"
	"github.com/zhenghao/ledger-reporter/internal/source"
	"github.com/zhenghao/ledger-reporter/pkg/utils"
)

// Identifiers of the external sources one daily append run declares.
const (
	SourceLoanDetail       = "loanDetail"
	SourceFactoringRepay   = "factoringRepay"
	SourceRefactoringRepay = "refactoringRepay"
	SourceLedgerWorkbook   = "ledgerWorkbook"
)

// Fixed layout of the ledger's target sheet.
const (
	DefaultTargetSheet      = "融资及还款明细"
	DefaultTemplateRowIndex = 10
	DefaultDataStartRow     = 2
	DefaultMaxRows          = 300000
)

// InvalidDateError reports a target-date input that is not a legal calendar
// date. It is raised before any I/O begins.
type InvalidDateError struct {
	Input string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid target date %q: want a legal yyyymmdd date", e.Input)
}

// ParseTargetDate validates an 8-digit date string, separator characters
// tolerated, and returns the UTC midnight of that day plus its yyyymmdd form.
func ParseTargetDate(raw string) (time.Time, string, error) {
	digits := make([]byte, 0, 8)
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	if len(digits) != 8 {
		return time.Time{}, "", &InvalidDateError{Input: raw}
	}

	year := atoi(digits[0:4])
	month := atoi(digits[4:6])
	day := atoi(digits[6:8])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, "", &InvalidDateError{Input: raw}
	}
	return t, string(digits), nil
}

func atoi(b []byte) int {
	n := 0
	for _, c := range b {
		n = n*10 + int(c-'0')
	}
	return n
}

// Config tunes one DailyAppender. Zero values fall back to the fixed layout
// constants above.
type Config struct {
	TargetSheet      string
	TemplateRowIndex int
	LoanSheet        excel.SheetRef
	RepaySheet       excel.SheetRef
	LoanStartRow     int
	RepayStartRow    int
	MaxRows          int
	YieldInterval    int
	// PrimaryStrategy is the load strategy of the loan-detail source;
	// auto-strategy sources mirror it.
	PrimaryStrategy source.LoadStrategy
}

func (c Config) withDefaults() Config {
	if c.TargetSheet == "" {
		c.TargetSheet = DefaultTargetSheet
	}
	if c.TemplateRowIndex <= 0 {
		c.TemplateRowIndex = DefaultTemplateRowIndex
	}
	if c.LoanStartRow <= 0 {
		c.LoanStartRow = DefaultDataStartRow
	}
	if c.RepayStartRow <= 0 {
		c.RepayStartRow = DefaultDataStartRow
	}
	if c.MaxRows <= 0 {
		c.MaxRows = DefaultMaxRows
	}
	if c.YieldInterval <= 0 {
		c.YieldInterval = excel.DefaultYieldInterval
	}
	if c.PrimaryStrategy == "" {
		c.PrimaryStrategy = source.StrategyStream
	}
	return c
}

// Requirements returns the declared external sources of a daily append run.
func Requirements() []source.Requirement {
	return []source.Requirement{
		{ID: SourceLoanDetail, Label: "放款明细", Required: true, Exts: []string{"xlsx"}, Strategy: StrategyPrimary()},
		{ID: SourceFactoringRepay, Label: "保理融资还款明细", Required: true, Exts: []string{"xlsx"}, Strategy: source.StrategyAuto},
		{ID: SourceRefactoringRepay, Label: "再保理融资还款明细", Required: true, Exts: []string{"xlsx"}, Strategy: source.StrategyAuto},
		{ID: SourceLedgerWorkbook, Label: "台账基线文件", Required: true, Exts: []string{"xlsx"}, Strategy: source.StrategyStream},
	}
}

// StrategyPrimary is the default strategy for the loan-detail source.
func StrategyPrimary() source.LoadStrategy { return source.StrategyStream }

// RunInput is one "append data for date D" request.
type RunInput struct {
	// Paths maps source ids to the files satisfying them.
	Paths map[string]string
	// DateInput is the target date, 8 digits with optional separators.
	DateInput string
	// OutputPath is where the extended (or copied) workbook lands.
	OutputPath string
}

// RunResult summarizes one finished run.
type RunResult struct {
	OutputPath   string
	TargetDate   time.Time
	YMD          string
	AppendedRows int
	// NoOp is true when the run degraded to a plain copy of the baseline:
	// the target date was already covered, or nothing matched it.
	NoOp bool
}

// DailyAppender runs the full reconcile-and-append pipeline for one target
// date: resolve and validate sources, extract records, gate on the baseline's
// last known date, and either stream the appended workbook or fall back to a
// byte copy.
type DailyAppender struct {
	cfg      Config
	resolver *source.Resolver
	scanner  *Scanner
	writer   *Writer
	logger   *zap.Logger
}

// NewDailyAppender creates an appender.
func NewDailyAppender(cfg Config, resolver *source.Resolver, logger *zap.Logger) *DailyAppender {
	cfg = cfg.withDefaults()
	return &DailyAppender{
		cfg:      cfg,
		resolver: resolver,
		scanner: NewScanner(ScannerConfig{
			TargetSheet:      cfg.TargetSheet,
			TemplateRowIndex: cfg.TemplateRowIndex,
			YieldInterval:    cfg.YieldInterval,
		}, logger),
		writer: NewWriter(cfg.YieldInterval, logger),
		logger: logger,
	}
}

// Run executes one append operation. Pre-flight failures (bad date, missing
// or invalid sources) surface before any streaming begins; per-cell problems
// never abort the run.
func (a *DailyAppender) Run(ctx context.Context, input RunInput) (*RunResult, error) {
	targetDate, ymd, err := ParseTargetDate(input.DateInput)
	if err != nil {
		return nil, err
	}

	contexts, err := a.resolveSources(input.Paths)
	if err != nil {
		return nil, err
	}

	data, err := a.extract(ctx, contexts)
	if err != nil {
		return nil, err
	}

	scan, err := a.scanner.Scan(ctx, data.LedgerPath)
	if err != nil {
		return nil, err
	}
	if !scan.HasTargetSheet {
		return nil, &excel.SheetNotFoundError{Ref: a.cfg.TargetSheet}
	}

	result := &RunResult{OutputPath: input.OutputPath, TargetDate: targetDate, YMD: ymd}

	// Idempotency gate: a date at or before the last known one means the
	// ledger is already current. Copying the baseline unchanged is the
	// success path here, not an error.
	if scan.LastKnownDate != nil && !AfterDay(targetDate, *scan.LastKnownDate) {
		a.logger.Info("target date not after last ledger date, copying baseline",
			zap.String("target", ymd),
			zap.String("last", excel.FormatYMD(*scan.LastKnownDate)))
		result.NoOp = true
		return result, utils.CopyFile(data.LedgerPath, input.OutputPath)
	}

	rows := BuildAppendableRows(data, targetDate)
	if len(rows) == 0 {
		a.logger.Warn("no records match target date, copying baseline",
			zap.String("target", ymd))
		result.NoOp = true
		return result, utils.CopyFile(data.LedgerPath, input.OutputPath)
	}

	a.logger.Info("appending matched rows",
		zap.String("target", ymd),
		zap.Int("rows", len(rows)),
		zap.Int("loans", len(data.Loans)))

	err = a.writer.CopyAndAppend(ctx, AppendSpec{
		SourcePath:       data.LedgerPath,
		OutputPath:       input.OutputPath,
		TargetSheet:      a.cfg.TargetSheet,
		TemplateRowIndex: a.cfg.TemplateRowIndex,
		Template:         scan.Template,
		Rows:             rows,
		TargetDate:       targetDate,
	})
	if err != nil {
		return nil, err
	}

	result.AppendedRows = len(rows)
	return result, nil
}

func (a *DailyAppender) resolveSources(paths map[string]string) (map[string]*source.Context, error) {
	contexts := make(map[string]*source.Context)
	for _, req := range Requirements() {
		// Sources load one at a time; at most one fully materialized
		// table plus the streaming working set exists at any instant.
		sctx, err := a.resolver.Resolve(req, paths[req.ID], a.cfg.PrimaryStrategy)
		if err != nil {
			return nil, err
		}
		if sctx != nil {
			contexts[req.ID] = sctx
		}
	}
	return contexts, nil
}

func (a *DailyAppender) extract(ctx context.Context, contexts map[string]*source.Context) (*ParsedData, error) {
	data := &ParsedData{LedgerPath: contexts[SourceLedgerWorkbook].Path}

	_, err := excel.ForEachRow(ctx, contexts[SourceLoanDetail].Factory, excel.StreamOptions{
		Sheet:         a.cfg.LoanSheet,
		StartRow:      a.cfg.LoanStartRow,
		MaxRows:       a.cfg.MaxRows,
		YieldInterval: a.cfg.YieldInterval,
	}, func(row excel.Row) error {
		if !row.HasValues() {
			return nil
		}
		if rec := ExtractLoanRow(row); rec != nil {
			data.Loans = append(data.Loans, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("extract loan records: %w", err)
	}

	data.FactoringRepayments, err = a.extractRepayments(ctx, contexts[SourceFactoringRepay])
	if err != nil {
		return nil, fmt.Errorf("extract factoring repayments: %w", err)
	}
	data.RefactoringRepayments, err = a.extractRepayments(ctx, contexts[SourceRefactoringRepay])
	if err != nil {
		return nil, fmt.Errorf("extract refactoring repayments: %w", err)
	}
	return data, nil
}

func (a *DailyAppender) extractRepayments(ctx context.Context, sctx *source.Context) ([]*RepaymentRecord, error) {
	var records []*RepaymentRecord
	_, err := excel.ForEachRow(ctx, sctx.Factory, excel.StreamOptions{
		Sheet:         a.cfg.RepaySheet,
		StartRow:      a.cfg.RepayStartRow,
		MaxRows:       a.cfg.MaxRows,
		YieldInterval: a.cfg.YieldInterval,
	}, func(row excel.Row) error {
		if !row.HasValues() {
			return nil
		}
		if rec := ExtractRepaymentRow(row); rec != nil {
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
