// Package ledger implements the streaming reconciliation engine for the
// financing-and-repayment detail ledger: row extraction from the loan and
// repayment source workbooks, target-date matching and aggregation, a
// one-pass baseline scan, and the streaming copy-and-append writer.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zhenghao/ledger-reporter/internal/excel"
)

// LoanRecord is one originated-loan observation extracted from the loan
// detail sheet. Beyond the loan date, the fields are opaque passthroughs
// addressed by their fixed source column; the output mapping decides where
// each one lands.
type LoanRecord struct {
	LoanDate *time.Time // col 16 (P), actual disbursement date

	ColB  excel.Value // business source
	ColAE excel.Value
	ColAG excel.Value
	ColK  excel.Value // asset id
	ColC  excel.Value // applicant name
	ColG  excel.Value // underlying counterparty name
	ColAZ excel.Value
	ColJ  excel.Value
	ColAA excel.Value // industry
	ColAK excel.Value
	ColN  excel.Value
	ColM  excel.Value
	ColL  excel.Value // financing application no
	ColY  excel.Value // placement mode, direct vs refactoring
	ColAW excel.Value
	ColBC excel.Value
	ColBF excel.Value
	ColQ  excel.Value
	ColT  excel.Value
	ColU  excel.Value
}

// RepaymentRecord is one repayment observation extracted from a factoring or
// refactoring repayment detail sheet. Only rows whose FeeType marks a
// principal repayment participate in ledger appends.
type RepaymentRecord struct {
	RepayDate *time.Time // col 31 (AE)
	FeeType   string     // col 28 (AB)

	ColB  excel.Value
	ColC  excel.Value
	ColF  excel.Value
	ColG  excel.Value
	ColH  excel.Value
	ColJ  excel.Value
	ColM  excel.Value
	ColO  excel.Value
	ColAE excel.Value

	// Amount is the repaid amount (col 33, AG).
	Amount excel.Value
	// BankSerial is the transaction serial used as the merge and grouping
	// key (col 34, AH).
	BankSerial excel.Value
}

// FeeTypePrincipal marks a repayment that reduces outstanding principal, as
// opposed to a fee or interest repayment.
const FeeTypePrincipal = "本金"

// RowType tags an AppendableRow with its originating phase.
type RowType string

const (
	RowTypeLoan        RowType = "loan"
	RowTypeFactoring   RowType = "factoring"
	RowTypeRefactoring RowType = "refactoring"
)

// AppendableRow is one normalized record ready to be materialized as one
// output row. Exactly one of Loan and Repayment is set, per Type.
type AppendableRow struct {
	Type      RowType
	Loan      *LoanRecord
	Repayment *RepaymentRecord
}

// MergeGroup is a positional instruction to override the aggregate and
// merge-key columns of the appended rows in [StartRow, EndRow] with the
// group's summed amount and serial.
type MergeGroup struct {
	StartRow int
	EndRow   int
	Serial   string
	Sum      decimal.Decimal
}

// ParsedData is the full extraction result for one append run.
type ParsedData struct {
	Loans                 []*LoanRecord
	FactoringRepayments   []*RepaymentRecord
	RefactoringRepayments []*RepaymentRecord

	// LedgerPath is the baseline ledger workbook the run extends.
	LedgerPath string
}
