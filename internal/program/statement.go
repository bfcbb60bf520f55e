package program

import "strings"

// HaltPC is the halt sentinel: a successor expression evaluating to it ends
// the run normally.
const HaltPC = -1

// Meta field forms. Anything else must be "assign name=expr".
const (
	MetaPass = "pass"
	MetaExit = "exit"

	metaAssignPrefix = "assign "
)

// Statement is one row of the program table.
//
// PC is the stable identifier, unique within a Program. Text is display-only
// and never consulted by the engine. NextPC is an expression over the run's
// variable environment; an empty expression is a halt signal, as is MetaExit.
type Statement struct {
	PC     int
	Text   string
	Cycles int
	NextPC string
	Meta   string
}

// Hidden reports whether the statement is a bookkeeping row that should not
// appear in rendered output. The table marks these with a "?" in the code
// column.
func (s Statement) Hidden() bool {
	return strings.TrimSpace(s.Text) == "?"
}

// HasNext reports whether the statement carries a successor expression at all.
func (s Statement) HasNext() bool {
	return strings.TrimSpace(s.NextPC) != ""
}

// validMeta reports whether the meta field has one of the three allowed forms.
func validMeta(meta string) bool {
	switch {
	case meta == MetaPass, meta == MetaExit, meta == "":
		return true
	case strings.HasPrefix(meta, metaAssignPrefix):
		rest := strings.TrimSpace(strings.TrimPrefix(meta, metaAssignPrefix))
		name, expr, ok := strings.Cut(rest, "=")
		return ok && strings.TrimSpace(name) != "" && strings.TrimSpace(expr) != ""
	default:
		return false
	}
}
