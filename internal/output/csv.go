package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/zhangjyr/gocsv"
)

// Stdout is the output path that writes to standard output.
const Stdout = "-"

// WriteCSV writes records to path in the column order declared by the csv
// struct tags of T. The header is written even when records is empty.
func WriteCSV[T any](path string, records []T) error {
	return withOutput(path, func(w io.Writer) error {
		if records == nil {
			records = []T{}
		}
		return gocsv.Marshal(records, w)
	})
}

// WriteRawCSV writes a header and untyped rows to path.
func WriteRawCSV(path string, header []string, rows [][]string) error {
	return withOutput(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		if err := cw.WriteAll(rows); err != nil {
			return err
		}
		return cw.Error()
	})
}

func withOutput(path string, write func(io.Writer) error) error {
	if path == Stdout {
		if err := write(os.Stdout); err != nil {
			return fmt.Errorf("writing stdout: %w", err)
		}
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
