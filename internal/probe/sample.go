package probe

import (
	"encoding/csv"
	"fmt"
	"os"
)

// writeSample writes header and rows as CSV to path, replacing any existing
// file.
func writeSample(path string, comma rune, header []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("probe: save sample: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("probe: save sample: %w", cerr)
		}
	}()

	w := csv.NewWriter(f)
	if comma != 0 {
		w.Comma = comma
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("probe: save sample: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("probe: save sample: %w", err)
	}
	return nil
}
