// internal/app/system/export/csv.go

// Package export writes infection curves in download formats.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/dalemusser/stratasim/internal/domain/models"
)

// CurveHeader is the header row of a curve CSV.
var CurveHeader = []string{"day", "infections"}

// CurveCSV writes curve as a two-column table, one row per day starting at 0.
func CurveCSV(w io.Writer, curve []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CurveHeader); err != nil {
		return err
	}
	for day, v := range curve {
		if err := cw.Write([]string{strconv.Itoa(day), models.FormatNumber(v)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
