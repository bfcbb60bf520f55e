package program

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"
)

// Program is an immutable, validated statement table.
//
// It is safe for concurrent read access.
type Program struct {
	stmts []Statement // PC order
	byPC  map[int]Statement

	hash string
}

// NewProgram builds and validates a Program.
//
// Validation runs immediately and rejects:
//   - an empty table
//   - a duplicate PC
//   - PCs that do not increment by exactly one per row
//   - a first PC other than 1 (the designated start)
//   - a negative cycle cost
//   - a meta field that is not pass, exit, or assign name=expr
//   - a successor expression that is a plain integer literal referencing
//     neither an existing PC nor the halt sentinel
//
// Successor expressions that are not plain literals are only resolvable at
// run time and are checked there.
func NewProgram(stmts []Statement) (*Program, error) {
	if len(stmts) == 0 {
		return nil, malformedf("no statements")
	}

	byPC := make(map[int]Statement, len(stmts))
	ordered := make([]Statement, 0, len(stmts))

	for i, s := range stmts {
		if _, exists := byPC[s.PC]; exists {
			return nil, malformedf("duplicate pc: %d", s.PC)
		}
		if i > 0 && s.PC != ordered[i-1].PC+1 {
			return nil, malformedf("pcs must increment by 1 per row: pc %d follows pc %d", s.PC, ordered[i-1].PC)
		}
		if s.Cycles < 0 {
			return nil, malformedf("pc %d: negative cycle cost %d", s.PC, s.Cycles)
		}
		if !validMeta(s.Meta) {
			return nil, malformedf("pc %d: unknown meta %q", s.PC, s.Meta)
		}
		byPC[s.PC] = s
		ordered = append(ordered, s)
	}

	if ordered[0].PC != 1 {
		return nil, malformedf("start statement pc 1 is absent (first pc is %d)", ordered[0].PC)
	}

	// Literal successors are statically resolvable; reject dangling ones now
	// so the engine never has to.
	for _, s := range ordered {
		next := strings.TrimSpace(s.NextPC)
		if next == "" {
			continue
		}
		pc, err := strconv.Atoi(next)
		if err != nil {
			continue
		}
		if pc == HaltPC {
			continue
		}
		if _, ok := byPC[pc]; !ok {
			return nil, malformedf("pc %d: successor %d does not exist", s.PC, pc)
		}
	}

	p := &Program{stmts: ordered, byPC: byPC}
	p.hash = p.computeHash()
	return p, nil
}

// StartPC returns the designated start statement's PC.
func (p *Program) StartPC() int { return p.stmts[0].PC }

// Lookup returns a statement by PC.
func (p *Program) Lookup(pc int) (Statement, bool) {
	s, ok := p.byPC[pc]
	return s, ok
}

// Len returns the number of statements.
func (p *Program) Len() int { return len(p.stmts) }

// Statements returns the statements in PC order.
func (p *Program) Statements() []Statement {
	out := make([]Statement, len(p.stmts))
	copy(out, p.stmts)
	return out
}

// Visible returns the statements that carry displayable source text, in PC
// order. Hidden bookkeeping rows are excluded.
func (p *Program) Visible() []Statement {
	out := make([]Statement, 0, len(p.stmts))
	for _, s := range p.stmts {
		if !s.Hidden() {
			out = append(out, s)
		}
	}
	return out
}

// Hash returns the stable identity for this program.
func (p *Program) Hash() string { return p.hash }

func (p *Program) computeHash() string {
	h := sha256.New()

	writeField := func(data []byte) {
		var length [8]byte
		binary.BigEndian.PutUint64(length[:], uint64(len(data)))
		h.Write(length[:])
		h.Write(data)
	}
	writeInt := func(v int) {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(int64(v)))
		writeField(buf[:])
	}

	writeInt(len(p.stmts))
	for _, s := range p.stmts {
		writeInt(s.PC)
		writeField([]byte(s.Text))
		writeInt(s.Cycles)
		writeField([]byte(s.NextPC))
		writeField([]byte(s.Meta))
	}

	return hex.EncodeToString(h.Sum(nil))
}
