package core

// csv.go is the parse boundary: raw bytes in, a complete Table out.
//
// Parsing is all-or-nothing. Any read error means no Table is returned, so
// the rest of the package never sees a partially valid file. Common export
// artifacts are handled before the CSV reader sees the data:
//
//   - UTF-8 BOM (0xEF 0xBB 0xBF) from Windows tools is stripped
//   - invalid UTF-8 sequences become U+FFFD
//   - blank records are skipped, including the lines before the header

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrEmptyFile is returned when the input holds no records at all.
var ErrEmptyFile = errors.New("empty file")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV reads a header-based CSV file into a Table.
func ParseCSV(r io.Reader) (Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Table{}, fmt.Errorf("read file: %w", err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	data = sanitizeUTF8(data)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var header []string
	var positions []int
	var rows []Row

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("invalid csv: %w", err)
		}
		if isEmptyRecord(record) {
			continue
		}

		if header == nil {
			header, positions = buildHeader(record)
			continue
		}

		rows = append(rows, recordToRow(header, positions, record))
	}

	if header == nil {
		return Table{}, ErrEmptyFile
	}

	return NewTable(rows), nil
}

// buildHeader returns the usable column names and, for each, its field
// position in a record. Blank names are dropped; duplicates are suffixed.
func buildHeader(record []string) ([]string, []int) {
	names := make([]string, 0, len(record))
	positions := make([]int, 0, len(record))
	counts := make(map[string]int, len(record))
	taken := make(map[string]bool, len(record))

	for i, raw := range record {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}

		unique := name
		for taken[unique] {
			counts[name]++
			unique = name + "_" + strconv.Itoa(counts[name])
		}
		taken[unique] = true

		names = append(names, unique)
		positions = append(positions, i)
	}

	return names, positions
}

func recordToRow(header []string, positions []int, record []string) Row {
	values := make(map[string]string, len(header))
	for i, col := range header {
		pos := positions[i]
		if pos < len(record) {
			values[col] = record[pos]
		}
	}
	return Row{Keys: header, Values: values}
}

func isEmptyRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
			data = data[1:]
		} else {
			buf.Write(data[:size])
			data = data[size:]
		}
	}

	return buf.Bytes()
}
