package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/poiesic/qamatch/normalize"
	"github.com/xuri/excelize/v2"
)

// Accepted header names, compared after normalization.
var (
	questionHeaders = []string{"pergunta", "question"}
	answerHeaders   = []string{"resposta", "answer"}
)

// ReadCSV reads question/answer rows from CSV with a header line.
func ReadCSV(r io.Reader) ([]RawPair, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		records = append(records, record)
	}
	return pairsFromRows(records)
}

// ReadXLSX reads question/answer rows from the first sheet of a workbook.
func ReadXLSX(r io.Reader) ([]RawPair, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrMissingColumns
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return pairsFromRows(rows)
}

func pairsFromRows(rows [][]string) ([]RawPair, error) {
	if len(rows) == 0 {
		return nil, ErrMissingColumns
	}
	qcol, acol := -1, -1
	for i, h := range rows[0] {
		name := normalize.Fold(h)
		switch {
		case qcol < 0 && slices.Contains(questionHeaders, name):
			qcol = i
		case acol < 0 && slices.Contains(answerHeaders, name):
			acol = i
		}
	}
	if qcol < 0 || acol < 0 {
		return nil, ErrMissingColumns
	}

	pairs := make([]RawPair, 0, len(rows)-1)
	for _, row := range rows[1:] {
		pairs = append(pairs, RawPair{Question: cell(row, qcol), Answer: cell(row, acol)})
	}
	return pairs, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
