package table

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sophiecomputer/cycle-sim/internal/program"
)

const sampleTable = `pc@code@cyclecount@nextpc@meta
1@i = 0@1@2@assign i=0
2@?@0@3@pass
3@i = i + 1@2@i < 3 ? 3 : 4@assign i=i+1
4@halt@1@-1@exit
`

func TestRead_ParsesSampleTable(t *testing.T) {
	stmts, err := Read(strings.NewReader(sampleTable))
	require.NoError(t, err)
	require.Len(t, stmts, 4)

	assert.Equal(t, program.Statement{
		PC: 1, Text: "i = 0", Cycles: 1, NextPC: "2", Meta: "assign i=0",
	}, stmts[0])

	assert.True(t, stmts[1].Hidden())
	assert.Equal(t, 0, stmts[1].Cycles)

	assert.Equal(t, "i < 3 ? 3 : 4", stmts[2].NextPC)
	assert.Equal(t, program.MetaExit, stmts[3].Meta)
}

func TestRead_RejectsBadHeader(t *testing.T) {
	in := "pc@source@cyclecount@nextpc@meta\n1@a@1@-1@exit\n"
	_, err := Read(strings.NewReader(in))
	require.Error(t, err)
	assert.ErrorContains(t, err, "bad header")
}

func TestRead_CollectsAllRowErrors(t *testing.T) {
	in := "pc@code@cyclecount@nextpc@meta\n" +
		"one@a@1@2@pass\n" +
		"2@b@1@3@pass\n" +
		"3@c@many@-1@exit\n"
	_, err := Read(strings.NewReader(in))

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Len(t, perr.Rows, 2)
	assert.Equal(t, 2, perr.Rows[0].Line)
	assert.Equal(t, 4, perr.Rows[1].Line)
	assert.ErrorContains(t, perr.Rows[0].Err, "pc")
	assert.ErrorContains(t, perr.Rows[1].Err, "cyclecount")
}

func TestRead_RejectsWrongFieldCount(t *testing.T) {
	in := "pc@code@cyclecount@nextpc@meta\n1@a@1@2\n"
	_, err := Read(strings.NewReader(in))
	require.Error(t, err)
}

func TestRead_PreservesDisplayText(t *testing.T) {
	in := "pc@code@cyclecount@nextpc@meta\n1@  x = x + 1  @1@-1@exit\n"
	stmts, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, "  x = x + 1  ", stmts[0].Text)
}

func TestReadFile_BuildsValidatedProgram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "program.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleTable), 0o644))

	p, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Len())
	assert.Equal(t, 1, p.StartPC())
	assert.Len(t, p.Visible(), 3)
}

func TestReadFile_SurfacesMalformedProgram(t *testing.T) {
	// Parses cleanly but violates the incrementing-pc invariant.
	in := "pc@code@cyclecount@nextpc@meta\n1@a@1@3@pass\n3@b@1@-1@exit\n"
	path := filepath.Join(t.TempDir(), "program.txt")
	require.NoError(t, os.WriteFile(path, []byte(in), 0o644))

	_, err := ReadFile(path)
	require.ErrorIs(t, err, program.ErrMalformedProgram)
}

func TestReadFile_MissingFile(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}
