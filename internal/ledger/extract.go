package ledger

import (
	"time"

	"github.com/zhenghao/ledger-reporter/internal/excel"
)

// Source column indices, 1-based. The positions are hard-wired per source
// type; the upstream files are fixed-layout exports, not free-form sheets.
const (
	loanDateCol = 16 // P

	repayDateCol    = 31 // AE
	repayFeeTypeCol = 28 // AB
	repayAmountCol  = 33 // AG
	repaySerialCol  = 34 // AH
)

// ExtractLoanRow maps one raw loan-detail row into a LoanRecord. It returns
// nil only for structurally empty rows: every domain column normalizes to
// falsy. Malformed individual cells degrade to empty values and are kept.
func ExtractLoanRow(row excel.Row) *LoanRecord {
	rec := &LoanRecord{
		LoanDate: dateOrNil(row.Cell(loanDateCol)),
		ColB:     row.Cell(2),
		ColAE:    row.Cell(31),
		ColAG:    row.Cell(33),
		ColK:     row.Cell(11),
		ColC:     row.Cell(3),
		ColG:     row.Cell(7),
		ColAZ:    row.Cell(52),
		ColJ:     row.Cell(10),
		ColAA:    row.Cell(27),
		ColAK:    row.Cell(37),
		ColN:     row.Cell(14),
		ColM:     row.Cell(13),
		ColL:     row.Cell(12),
		ColY:     row.Cell(25),
		ColAW:    row.Cell(49),
		ColBC:    row.Cell(55),
		ColBF:    row.Cell(58),
		ColQ:     row.Cell(17),
		ColT:     row.Cell(20),
		ColU:     row.Cell(21),
	}

	if rec.LoanDate == nil && allFalsy(
		rec.ColB, rec.ColAE, rec.ColAG, rec.ColK, rec.ColC, rec.ColG,
		rec.ColAZ, rec.ColJ, rec.ColAA, rec.ColAK, rec.ColN, rec.ColM,
		rec.ColL, rec.ColY, rec.ColAW, rec.ColBC, rec.ColBF, rec.ColQ,
		rec.ColT, rec.ColU,
	) {
		return nil
	}
	return rec
}

// ExtractRepaymentRow maps one raw repayment-detail row into a
// RepaymentRecord, or nil for a structurally empty row.
func ExtractRepaymentRow(row excel.Row) *RepaymentRecord {
	rec := &RepaymentRecord{
		RepayDate:  dateOrNil(row.Cell(repayDateCol)),
		FeeType:    excel.NormalizeString(row.Cell(repayFeeTypeCol)),
		ColG:       row.Cell(7),
		ColH:       row.Cell(8),
		ColJ:       row.Cell(10),
		ColM:       row.Cell(13),
		ColB:       row.Cell(2),
		ColC:       row.Cell(3),
		ColF:       row.Cell(6),
		ColAE:      row.Cell(31),
		ColO:       row.Cell(15),
		Amount:     row.Cell(repayAmountCol),
		BankSerial: row.Cell(repaySerialCol),
	}

	if rec.RepayDate == nil && allFalsy(
		rec.ColG, rec.ColH, rec.ColJ, rec.ColM, rec.ColB, rec.ColC, rec.Amount,
	) {
		return nil
	}
	return rec
}

func dateOrNil(v excel.Value) *time.Time {
	if t, ok := excel.ParseDate(v); ok {
		return &t
	}
	return nil
}

func allFalsy(values ...excel.Value) bool {
	for _, v := range values {
		if !v.IsFalsy() {
			return false
		}
	}
	return true
}
