package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhenghao/ledger-reporter/internal/excel"
)

func TestOutputColumns(t *testing.T) {
	cols := OutputColumns()

	// Ordered by column position, no duplicates, spanning A through AR.
	require.NotEmpty(t, cols)
	assert.Equal(t, "A", cols[0])
	assert.Equal(t, "AR", cols[len(cols)-1])

	seen := make(map[string]bool)
	prev := 0
	for _, c := range cols {
		assert.False(t, seen[c], "duplicate column %s", c)
		seen[c] = true
		assert.Greater(t, excel.Col(c), prev, "columns out of order at %s", c)
		prev = excel.Col(c)
	}
	assert.True(t, seen["AI"])
	assert.True(t, seen["W"])
}

func TestBuildLoanRowValues(t *testing.T) {
	loanDate := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)
	loan := &LoanRecord{
		LoanDate: &loanDate,
		ColB:     excel.String("平台A"),
		ColK:     excel.String("ASSET-1"),
		ColN:     excel.String("PAY-9"),
		ColC:     excel.String("借款人甲"),
		ColY:     excel.String("直接投放"),
		ColL:     excel.String("FIN-1"),
	}

	values := BuildRowValues(AppendableRow{Type: RowTypeLoan, Loan: loan})

	assert.Equal(t, "ROW()-2", values["A"].FormulaText())
	assert.Equal(t, "平台A", excel.NormalizeString(values["D"]))
	assert.Equal(t, "ASSET-1", excel.NormalizeString(values["G"]))
	assert.Equal(t, "借款人甲", excel.NormalizeString(values["H"]))
	assert.Equal(t, "FIN-1", excel.NormalizeString(values["Q"]))
	assert.Equal(t, "ASSET-1-PAY-9", excel.NormalizeString(values["O"]))

	// Direct placement relabels to the factoring category.
	assert.Equal(t, "保理", excel.NormalizeString(values["S"]))

	// The loan date lands in the ledger's date column as a native date.
	assert.Equal(t, "20250111", excel.NormalizeString(values["W"]))

	// Loan rows never touch the repayment-only columns.
	_, has := values["AR"]
	assert.False(t, has)
	_, has = values["AI"]
	assert.False(t, has)
}

func TestBuildLoanRowValuesRefactoringCategory(t *testing.T) {
	loan := &LoanRecord{
		ColY:  excel.String("再保理投放"),
		ColAE: excel.String("2025-01-11"),
	}

	values := BuildRowValues(AppendableRow{Type: RowTypeLoan, Loan: loan})
	assert.Equal(t, "再保理", excel.NormalizeString(values["S"]))

	// Without a parsed loan date the raw source date column passes through.
	assert.Equal(t, "2025-01-11", excel.NormalizeString(values["W"]))
}

func TestBuildRepayRowValues(t *testing.T) {
	repayDate := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)
	rep := &RepaymentRecord{
		RepayDate:  &repayDate,
		FeeType:    FeeTypePrincipal,
		ColG:       excel.String("平台B"),
		ColAE:      excel.String("2025-01-11"),
		Amount:     excel.Number(10000.5),
		BankSerial: excel.String("TX-7"),
	}

	values := BuildRowValues(AppendableRow{Type: RowTypeFactoring, Repayment: rep})

	assert.Equal(t, "ROW()-2", values["A"].FormulaText())
	assert.Equal(t, "平台B", excel.NormalizeString(values["D"]))

	// The guarantee columns carry the literal placeholder.
	assert.Equal(t, "/", values["J"].Interface())
	assert.Equal(t, "/", values["K"].Interface())

	assert.Equal(t, "保理", excel.NormalizeString(values["AK"]))
	assert.Equal(t, "TX-7", excel.NormalizeString(values["AR"]))

	amount, ok := excel.ToNumber(values["AH"])
	require.True(t, ok)
	assert.InDelta(t, 10000.5, amount, 1e-9)

	// Loan-only columns are explicit empties, not absent.
	v, has := values["S"]
	require.True(t, has)
	assert.True(t, v.IsEmpty())
}

func TestBuildRepayRowValuesRefactoring(t *testing.T) {
	values := BuildRowValues(AppendableRow{Type: RowTypeRefactoring, Repayment: &RepaymentRecord{}})
	assert.Equal(t, "再保理", excel.NormalizeString(values["AK"]))
}
