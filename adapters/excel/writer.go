package excel

import (
	"context"
	"fmt"
	"path/filepath"

	"gopower/domain/core"
	"gopower/domain/power"
	"gopower/domain/trial"
	"gopower/internal/errors"

	"github.com/xuri/excelize/v2"
)

const (
	trialsSheet     = "Trials"
	aggregatesSheet = "Aggregates"
)

// Writer exports sweep results to a two-sheet .xlsx workbook.
type Writer struct {
	dir string
}

// NewWriter creates a writer that saves workbooks into dir
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir}
}

// Export writes the flat trial table and the aggregated table, returning the
// path of the saved workbook.
func (w *Writer) Export(ctx context.Context, runID core.RunID, records []trial.Record, cells []power.CellStats) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeTrialsSheet(f, records); err != nil {
		return "", err
	}
	if err := w.writeAggregatesSheet(f, cells); err != nil {
		return "", err
	}

	// The default sheet is replaced by the two named sheets.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", errors.ExportError("failed to drop default sheet", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("power_%s.xlsx", runID))
	if err := f.SaveAs(path); err != nil {
		return "", errors.ExportError("failed to save workbook", err)
	}
	return path, nil
}

func (w *Writer) writeTrialsSheet(f *excelize.File, records []trial.Record) error {
	if _, err := f.NewSheet(trialsSheet); err != nil {
		return errors.ExportError("failed to create trials sheet", err)
	}

	headers := []string{"n", "sd", "repetition", "p_1", "sig_1", "p_2", "sig_2", "p_3", "sig_3", "es_1", "es_2", "es_3"}
	if err := writeHeaderRow(f, trialsSheet, headers); err != nil {
		return err
	}

	for r, rec := range records {
		row := []interface{}{
			rec.N, rec.SD, rec.Rep,
			rec.PIV1, rec.SigIV1,
			rec.PIV2, rec.SigIV2,
			rec.PInteraction, rec.SigInter,
			rec.ESIV1, rec.ESIV2, rec.ESInter,
		}
		if err := writeDataRow(f, trialsSheet, r+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeAggregatesSheet(f *excelize.File, cells []power.CellStats) error {
	if _, err := f.NewSheet(aggregatesSheet); err != nil {
		return errors.ExportError("failed to create aggregates sheet", err)
	}

	headers := []string{"n", "sd", "effect", "power", "significant_count", "completed_trials",
		"failed_trials", "mean_effect_size", "standard_error", "lower_bound", "upper_bound"}
	if err := writeHeaderRow(f, aggregatesSheet, headers); err != nil {
		return err
	}

	for r, cs := range cells {
		row := []interface{}{
			cs.N, cs.SD, string(cs.Effect),
			cs.Power, cs.SignificantCount, cs.CompletedTrials, cs.FailedTrials,
			cs.MeanEffectSize, cs.StdError, cs.LowerBound, cs.UpperBound,
		}
		if err := writeDataRow(f, aggregatesSheet, r+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return errors.ExportError("failed to write header cell", err)
		}
	}
	return nil
}

func writeDataRow(f *excelize.File, sheet string, rowIdx int, values []interface{}) error {
	for c, v := range values {
		cell, _ := excelize.CoordinatesToCellName(c+1, rowIdx)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return errors.ExportError("failed to write data cell", err)
		}
	}
	return nil
}
