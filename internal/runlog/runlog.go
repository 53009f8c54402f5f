// Package runlog keeps an append-only CSV history of simulation runs.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/dropsim/internal/model"
)

// Entry is one role run.
type Entry struct {
	Timestamp    time.Time
	Role         model.Role
	Seed         int64
	Drops        int
	Transactions int
	Declined     int
	Output       string
}

// Header is the CSV header of runlog.csv.
const Header = "timestamp,role,seed,drops,transactions,declined,output"

// FileName is the run log file inside the output directory.
const FileName = "runlog.csv"

const (
	numFields       = 7
	colTimestamp    = 0
	colRole         = 1
	colSeed         = 2
	colDrops        = 3
	colTransactions = 4
	colDeclined     = 5
	colOutput       = 6
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRole] = string(e.Role)
	row[colSeed] = strconv.FormatInt(e.Seed, 10)
	row[colDrops] = strconv.Itoa(e.Drops)
	row[colTransactions] = strconv.Itoa(e.Transactions)
	row[colDeclined] = strconv.Itoa(e.Declined)
	row[colOutput] = e.Output
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	seed, err := strconv.ParseInt(record[colSeed], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing seed %q: %w", record[colSeed], err)
	}

	e := Entry{
		Timestamp: ts,
		Role:      model.Role(record[colRole]),
		Seed:      seed,
		Output:    record[colOutput],
	}
	counts := []struct {
		col  int
		name string
		dst  *int
	}{
		{colDrops, "drops", &e.Drops},
		{colTransactions, "transactions", &e.Transactions},
		{colDeclined, "declined", &e.Declined},
	}
	for _, c := range counts {
		if *c.dst, err = strconv.Atoi(record[c.col]); err != nil {
			return Entry{}, fmt.Errorf("parsing %s %q: %w", c.name, record[c.col], err)
		}
	}
	return e, nil
}

// Append writes entries to <dir>/runlog.csv, creating the file and header if
// needed.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries of <dir>/runlog.csv, or nothing if the file does
// not exist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
