package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"yieldcli/pkg/contracts/domain"
)

// Sheet is one worksheet of a generated workbook.
type Sheet struct {
	Name string
	Rows [][]string
}

// WriteWorkbook saves an xlsx file with the given sheets under dir.
func WriteWorkbook(t *testing.T, dir, name string, sheets ...Sheet) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), s.Name))
		} else {
			_, err := f.NewSheet(s.Name)
			require.NoError(t, err)
		}
		for r, row := range s.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := make([]interface{}, len(row))
			for j, v := range row {
				values[j] = v
			}
			require.NoError(t, f.SetSheetRow(s.Name, cell, &values))
		}
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

// SourceFiles are the paths of generated daily input files.
type SourceFiles struct {
	Reference string
	Exchange  string
	Dealer    string
}

// WriteSourceFiles renders sources as the files delivered each day: a
// reference CSV, the exchange workbook with a title row above the header,
// and the dealer workbook with its linked and nominal sheets.
func WriteSourceFiles(t *testing.T, dir string, src domain.Sources) SourceFiles {
	t.Helper()

	ref := filepath.Join(dir, "bond_yields.csv")
	file, err := os.Create(ref)
	require.NoError(t, err)
	w := csv.NewWriter(file)
	require.NoError(t, w.Write(src.Reference.Columns))
	require.NoError(t, w.WriteAll(src.Reference.Rows))
	require.NoError(t, file.Close())

	exchangeRows := append([][]string{{"Bond Trading Report"}, src.Exchange.Columns}, src.Exchange.Rows...)
	exchange := WriteWorkbook(t, dir, "exchange.xlsx", Sheet{Name: "Bonds-Trading ATS", Rows: exchangeRows})

	dealer := WriteWorkbook(t, dir, "dealer.xlsx",
		Sheet{Name: "Yields", Rows: append([][]string{src.Dealer.Linked.Columns}, src.Dealer.Linked.Rows...)},
		Sheet{Name: "Spread calc", Rows: append([][]string{src.Dealer.Nominal.Columns}, src.Dealer.Nominal.Rows...)},
	)

	return SourceFiles{Reference: ref, Exchange: exchange, Dealer: dealer}
}
