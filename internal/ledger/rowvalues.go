package ledger

import (
	"sort"

	"github.com/zhenghao/ledger-reporter/internal/excel"
)

// Destination columns in the ledger's target sheet. Loans and repayments
// populate different column sets; repayment rows leave the loan-only columns
// explicitly empty so stale template content never bleeds through.
var (
	loanOutputColumns = []string{
		"A", "D", "E", "F", "G", "H", "I", "J", "K", "L", "N", "O", "P",
		"Q", "R", "S", "T", "U", "V", "W", "X", "Z", "AB", "AC", "AD",
	}
	repayOutputColumns = []string{
		"A", "D", "E", "F", "G", "H", "I", "J", "K", "L", "N", "O", "P",
		"Q", "R", "S", "T", "U", "V", "W", "X", "Z", "AB", "AC", "AD",
		"AE", "AG", "AH", "AI", "AJ", "AK", "AR",
	}
)

// Aggregate override destinations for merge groups.
const (
	aggregateColumn = "AI" // summed transfer amount
	mergeKeyColumn  = "AR" // transaction serial
)

// Business-type relabeling applied while mapping loan rows.
const (
	placementDirect     = "直接投放"
	categoryFactoring   = "保理"
	categoryRefactoring = "再保理"
)

// rowNumberFormula keeps the sequence column self-maintaining; formula text
// is passed through literally, never evaluated.
const rowNumberFormula = "ROW()-2"

// OutputColumns returns the union of all destination columns, ordered by
// column position. The template style is captured for exactly this set.
func OutputColumns() []string {
	seen := make(map[string]bool)
	var cols []string
	for _, c := range append(append([]string{}, loanOutputColumns...), repayOutputColumns...) {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	sort.Slice(cols, func(i, j int) bool { return excel.Col(cols[i]) < excel.Col(cols[j]) })
	return cols
}

// BuildRowValues converts one AppendableRow into its destination cell map,
// keyed by column letter.
func BuildRowValues(row AppendableRow) map[string]excel.Value {
	if row.Type == RowTypeLoan {
		return buildLoanRowValues(row.Loan)
	}
	return buildRepayRowValues(row.Repayment, row.Type == RowTypeFactoring)
}

func buildLoanRowValues(loan *LoanRecord) map[string]excel.Value {
	values := map[string]excel.Value{
		"A": excel.Formula(rowNumberFormula, excel.Empty()),
		"D": loan.ColB,
		"E": loan.ColAE,
		"F": loan.ColAG,
		"G": loan.ColK,
		"H": loan.ColC,
		"I": loan.ColG,
		"J": loan.ColAZ,
		"K": loan.ColJ,
		"L": loan.ColAA,
		"N": loan.ColAK,
		"O": excel.String(ConcatIdentifiers(loan.ColK, loan.ColN)),
		"P": loan.ColM,
		"Q": loan.ColL,
		"R": loan.ColAK,
		"T": loan.ColN,
		"U": loan.ColAW,
		"V": loan.ColAW,
		"X": loan.ColBC,
		"Z": loan.ColBF,
		"AB": loan.ColQ,
		"AC": loan.ColT,
		"AD": loan.ColU,
	}

	if excel.NormalizeString(loan.ColY) == placementDirect {
		values["S"] = excel.String(categoryFactoring)
	} else {
		values["S"] = excel.String(categoryRefactoring)
	}

	if loan.LoanDate != nil {
		values["W"] = excel.Date(*loan.LoanDate)
	} else {
		values["W"] = loan.ColAE
	}
	return values
}

func buildRepayRowValues(rep *RepaymentRecord, factoring bool) map[string]excel.Value {
	values := map[string]excel.Value{
		"A": excel.Formula(rowNumberFormula, excel.Empty()),
		"D": rep.ColG,
		"E": rep.ColH,
		"F": rep.ColJ,
		"G": rep.ColM,
		"H": rep.ColB,
		"I": rep.ColC,
		"J": excel.String("/"),
		"K": excel.String("/"),
		"L": rep.ColF,

		"AE": rep.ColAE,
		"AG": rep.ColO,
		"AH": rep.Amount,
		"AI": rep.Amount,
		"AJ": rep.ColAE,
		"AR": rep.BankSerial,
	}

	// Loan-only columns are written as explicit empties.
	for _, col := range []string{"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Z", "AB", "AC", "AD"} {
		values[col] = excel.Empty()
	}

	if factoring {
		values["AK"] = excel.String(categoryFactoring)
	} else {
		values["AK"] = excel.String(categoryRefactoring)
	}
	return values
}
