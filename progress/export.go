package progress

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"watcher/tasks"
)

var exportHeader = []interface{}{"Link", "Duration", "Title", "Start", "End", "isWatched"}

// XLSXExporter writes the queue as a single-sheet spreadsheet.
type XLSXExporter struct {
	Path string
}

func NewXLSXExporter(path string) *XLSXExporter {
	return &XLSXExporter{Path: path}
}

func (e *XLSXExporter) Export(queue []tasks.VideoTask) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := exportHeader
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, t := range queue {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{t.Link, t.Duration, t.Title, t.Start, t.End, t.IsWatched}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return writeAtomic(e.Path, func(w io.Writer) error {
		if _, err := f.WriteTo(w); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		return nil
	})
}
