package sim

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
)

// CSVExporter writes pose estimates with their 2-sigma bounds as CSV rows.
type CSVExporter struct {
	w *csv.Writer
}

// NewCSVExporter creates new CSVExporter writing to w and writes the CSV header.
func NewCSVExporter(w io.Writer) (*CSVExporter, error) {
	e := &CSVExporter{w: csv.NewWriter(w)}

	header := []string{"step", "x_true", "y_true", "yaw_true", "x", "y", "yaw"}
	for _, c := range []string{"x", "y", "yaw"} {
		header = append(header, c+"_lo", c+"_hi")
	}

	if err := e.w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write header: %v", err)
	}

	return e, nil
}

// Write writes all steps recorded in History h.
func (e *CSVExporter) Write(h *History) error {
	for i := 0; i < h.Len(); i++ {
		truth, est, cov := h.Truth[i], h.Estimate[i], h.PoseCov[i]

		row := []string{fmt.Sprintf("%d", i)}
		for j := 0; j < 3; j++ {
			row = append(row, fmt.Sprintf("%.6f", truth.AtVec(j)))
		}
		for j := 0; j < 3; j++ {
			row = append(row, fmt.Sprintf("%.6f", est.AtVec(j)))
		}
		for j := 0; j < 3; j++ {
			bound := 2 * math.Sqrt(cov.At(j, j))
			row = append(row,
				fmt.Sprintf("%.6f", est.AtVec(j)-bound),
				fmt.Sprintf("%.6f", est.AtVec(j)+bound),
			)
		}

		if err := e.w.Write(row); err != nil {
			return fmt.Errorf("failed to write step %d: %v", i, err)
		}
	}

	return e.Flush()
}

// Flush flushes buffered rows to the underlying writer.
func (e *CSVExporter) Flush() error {
	e.w.Flush()
	return e.w.Error()
}
