package ledger

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/zhenghao/ledger-reporter/internal/excel"
)

// newLedgerFixture builds a baseline ledger workbook: title and header rows,
// a styled template row at DefaultTemplateRowIndex, and one data row per
// entry of dataDates starting right below the template row. A second sheet
// is included to verify untouched passthrough.
func newLedgerFixture(t *testing.T, dir string, dataDates []string) string {
	t.Helper()
	sheet := DefaultTargetSheet

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))

	require.NoError(t, f.SetCellValue(sheet, "A1", "机构融资及还款台账"))
	require.NoError(t, f.MergeCell(sheet, "A1", "F1"))
	require.NoError(t, f.SetCellValue(sheet, "A9", "序号"))
	require.NoError(t, f.SetCellValue(sheet, "D9", "业务来源"))
	require.NoError(t, f.SetCellValue(sheet, "W9", "放款日期"))

	styleID, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 10},
		Border: []excelize.Border{
			{Type: "left", Style: 1, Color: "000000"},
			{Type: "right", Style: 1, Color: "000000"},
			{Type: "top", Style: 1, Color: "000000"},
			{Type: "bottom", Style: 1, Color: "000000"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "A10", "AR10", styleID))
	require.NoError(t, f.SetRowHeight(sheet, DefaultTemplateRowIndex, 24))

	for i, date := range dataDates {
		row := DefaultTemplateRowIndex + 1 + i
		require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("A%d", row), i+1))
		require.NoError(t, f.SetCellValue(sheet, fmt.Sprintf("D%d", row), "平台A"))
		require.NoError(t, f.SetCellValue(sheet, excel.CellName(23, row), date))
	}

	_, err = f.NewSheet("说明")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("说明", "A1", "其他工作表"))

	path := filepath.Join(dir, "台账.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// cellSpec addresses one cell by 1-based column within a fixture row.
type cellSpec map[int]interface{}

// newSourceFixture builds a single-sheet source workbook whose data rows
// start at row 2, one cellSpec per row.
func newSourceFixture(t *testing.T, dir, name string, rows []cellSpec) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetCellValue("Sheet1", "A1", "表头"))
	for i, spec := range rows {
		row := 2 + i
		for col, value := range spec {
			require.NoError(t, f.SetCellValue("Sheet1", excel.CellName(col, row), value))
		}
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

// loanFixtureRow builds one loan-detail row disbursed on date.
func loanFixtureRow(date, assetID, placement string) cellSpec {
	return cellSpec{
		2:  "平台A",
		3:  "借款人甲",
		7:  "核心企业",
		11: assetID,
		12: "FIN-" + assetID,
		14: "PAY-" + assetID,
		16: date,
		25: placement,
		27: "制造业",
	}
}

// repayFixtureRow builds one repayment-detail row.
func repayFixtureRow(date, feeType, serial string, amount float64) cellSpec {
	return cellSpec{
		2:  "资方",
		3:  "回款户",
		7:  "平台B",
		8:  "核心企业",
		28: feeType,
		31: date,
		33: amount,
		34: serial,
	}
}

// rawCell reads one cell of a saved workbook without number formatting.
func rawCell(t *testing.T, path, sheet, cell string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}
