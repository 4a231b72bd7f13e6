package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"

	"github.com/scan-io-git/skims/internal/vulnerability"
)

var csvHeader = []string{"title", "what", "where", "cwe"}

// WriteCSV writes one row per vulnerability under a title,what,where,cwe
// header. Rows are sorted so equal inputs give byte-identical output.
func WriteCSV(w io.Writer, vulns []vulnerability.Vulnerability) error {
	rows := make([][]string, 0, len(vulns))
	for _, v := range vulns {
		rows = append(rows, []string{v.Title, v.Path, v.Where(), v.CWEList()})
	}
	slices.SortFunc(rows, slices.Compare)

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}
