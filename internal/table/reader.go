// Package table reads the @-delimited program tables the simulator consumes.
//
// Format: one header row, then one row per statement.
//
//	pc@code@cyclecount@nextpc@meta
//	1@i = 0@1@2@assign i=0
//	2@i = i + 1@1@i < 3 ? 2 : 3@assign i=i+1
//	3@halt@0@-1@exit
//
// pc must increment by one per row starting at 1, code is display text ("?"
// hides the row from rendering), cyclecount is a non-negative integer, nextpc
// is a successor expression (empty halts), meta is pass, exit, or
// "assign name=expr".
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sophiecomputer/cycle-sim/internal/program"
)

// Columns is the exact required header.
var Columns = []string{"pc", "code", "cyclecount", "nextpc", "meta"}

// RowError is one row's parse failure. Line is 1-based and counts the header.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// ParseError aggregates every row-level failure so a bad table reports all of
// its problems at once instead of one per invocation.
type ParseError struct {
	Rows []RowError
}

func (e *ParseError) Error() string {
	if e == nil || len(e.Rows) == 0 {
		return "parse error"
	}
	msgs := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		msgs[i] = r.Error()
	}
	return "parse table: " + strings.Join(msgs, "; ")
}

// Read parses statements from an @-delimited table.
//
// Structural failures (unreadable input, wrong header, wrong field count)
// abort immediately; per-row value failures are collected into a ParseError
// covering the whole table.
func Read(r io.Reader) ([]program.Statement, error) {
	cr := csv.NewReader(r)
	cr.Comma = '@'
	cr.FieldsPerRecord = len(Columns)
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range header {
		if strings.TrimSpace(col) != Columns[i] {
			return nil, fmt.Errorf("bad header: column %d is %q, want %q", i, strings.TrimSpace(col), Columns[i])
		}
	}

	var stmts []program.Statement
	var perr ParseError
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		st, err := parseRow(record)
		if err != nil {
			perr.Rows = append(perr.Rows, RowError{Line: line, Err: err})
			continue
		}
		stmts = append(stmts, st)
	}

	if len(perr.Rows) > 0 {
		return nil, &perr
	}
	return stmts, nil
}

func parseRow(record []string) (program.Statement, error) {
	pc, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return program.Statement{}, fmt.Errorf("pc: %w", err)
	}
	cycles, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return program.Statement{}, fmt.Errorf("cyclecount: %w", err)
	}
	return program.Statement{
		PC:     pc,
		Text:   record[1],
		Cycles: cycles,
		NextPC: strings.TrimSpace(record[3]),
		Meta:   strings.TrimSpace(record[4]),
	}, nil
}

// ReadFile reads a table from disk and constructs the validated program.
func ReadFile(path string) (*program.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	stmts, err := Read(f)
	if err != nil {
		return nil, err
	}
	return program.NewProgram(stmts)
}
