package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/zhenghao/ledger-reporter/internal/excel"
)

// serialCollator orders transaction serials the way the source system does:
// locale-aware with digit runs compared numerically, so "TX-2" sorts before
// "TX-10".
var serialCollator = collate.New(language.Chinese, collate.Numeric)

// CompareSerial compares two transaction serials. Empty serials sort first.
func CompareSerial(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}
	return serialCollator.CompareString(a, b)
}

// SameDay reports whether t falls on the exact calendar day of target.
// A nil date never matches.
func SameDay(t *time.Time, target time.Time) bool {
	if t == nil {
		return false
	}
	y1, m1, d1 := t.Date()
	y2, m2, d2 := target.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// AfterDay reports whether a falls on a strictly later calendar day than b.
func AfterDay(a, b time.Time) bool {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return ad.After(bd)
}

// BuildAppendableRows selects the records matching the target date and fixes
// the append order: loans in encounter order, then factoring principal
// repayments sorted by bank serial, then refactoring principal repayments
// sorted by bank serial. The three phases are never interleaved or re-sorted
// globally.
func BuildAppendableRows(data *ParsedData, targetDate time.Time) []AppendableRow {
	var rows []AppendableRow

	for _, loan := range data.Loans {
		if SameDay(loan.LoanDate, targetDate) {
			rows = append(rows, AppendableRow{Type: RowTypeLoan, Loan: loan})
		}
	}
	for _, rep := range matchRepayments(data.FactoringRepayments, targetDate) {
		rows = append(rows, AppendableRow{Type: RowTypeFactoring, Repayment: rep})
	}
	for _, rep := range matchRepayments(data.RefactoringRepayments, targetDate) {
		rows = append(rows, AppendableRow{Type: RowTypeRefactoring, Repayment: rep})
	}
	return rows
}

func matchRepayments(records []*RepaymentRecord, targetDate time.Time) []*RepaymentRecord {
	var matched []*RepaymentRecord
	for _, rec := range records {
		if rec.FeeType == FeeTypePrincipal && SameDay(rec.RepayDate, targetDate) {
			matched = append(matched, rec)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return CompareSerial(
			excel.NormalizeString(matched[i].BankSerial),
			excel.NormalizeString(matched[j].BankSerial),
		) < 0
	})
	return matched
}

// CollectMergeGroups computes the positional aggregate overrides for the
// repayment rows in rows, assuming the first element lands at absolute output
// row startRow. Every qualifying repayment row forms its own one-row group;
// rows sharing a serial are intentionally not collapsed into one visual merge.
func CollectMergeGroups(rows []AppendableRow, startRow int, targetDate time.Time) []MergeGroup {
	var groups []MergeGroup
	for idx, row := range rows {
		if row.Type == RowTypeLoan {
			continue
		}
		rep := row.Repayment
		if !SameDay(rep.RepayDate, targetDate) {
			continue
		}
		serial := excel.NormalizeString(rep.BankSerial)
		if serial == "" {
			continue
		}
		amount, _ := excel.ToNumber(rep.Amount)
		groups = append(groups, MergeGroup{
			StartRow: startRow + idx,
			EndRow:   startRow + idx,
			Serial:   serial,
			Sum:      decimal.NewFromFloat(amount),
		})
	}
	return groups
}

// ConcatIdentifiers joins two identifier cells with a dash, dropping empty
// sides entirely.
func ConcatIdentifiers(left, right excel.Value) string {
	l := excel.NormalizeString(left)
	r := excel.NormalizeString(right)
	switch {
	case l == "" && r == "":
		return ""
	case l == "":
		return r
	case r == "":
		return l
	}
	return l + "-" + r
}
