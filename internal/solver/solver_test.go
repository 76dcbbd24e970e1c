package solver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topotools/topoplan/internal/kspace"
)

func TestWriteParams(t *testing.T) {
	params := map[string]any{
		"ADDGRID": true,
		"EDIFFG":  0.005,
		"ENCUT":   520.0,
		"GGA":     "PS",
		"IBRION":  2,
		"LCHARG":  false,
		"MAGMOM":  "15*0.0",
	}

	var buf bytes.Buffer
	require.NoError(t, WriteParams(&buf, params))

	want := strings.Join([]string{
		"ADDGRID = .TRUE.",
		"EDIFFG = 0.005",
		"ENCUT = 520",
		"GGA = PS",
		"IBRION = 2",
		"LCHARG = .FALSE.",
		"MAGMOM = 15*0.0",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteParamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "INCAR")
	require.NoError(t, WriteParamsFile(path, map[string]any{"PREC": "Accurate"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PREC = Accurate\n", string(data))
}

func TestWriteKpoints(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteKpoints(&buf, "TRIM Points", kspace.TRIMPoints()))

	want := strings.Join([]string{
		"TRIM Points",
		"8",
		"Reciprocal",
		"0.000000 0.000000 0.000000 1 gamma",
		"0.500000 0.000000 0.000000 1 x",
		"0.000000 0.500000 0.000000 1 y",
		"0.000000 0.000000 0.500000 1 z",
		"0.500000 0.500000 0.000000 1 s",
		"0.000000 0.500000 0.500000 1 t",
		"0.500000 0.000000 0.500000 1 u",
		"0.500000 0.500000 0.500000 1 r",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestParseTable(t *testing.T) {
	input := `
# solver summary
z2 0

chern 0.000
z2 1
bands 12 14 16
`
	table, err := ParseTable(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"1"}, table["z2"], "last occurrence wins")
	assert.Equal(t, []string{"0.000"}, table["chern"])
	assert.Equal(t, []string{"12", "14", "16"}, table["bands"])
	assert.NotContains(t, table, "#")
}

func TestReadInvariantResult(t *testing.T) {
	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), InvariantOutName)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("parses z2 and chern", func(t *testing.T) {
		res, err := ReadInvariantResult(write(t, "z2 1\nchern 0.5\n"))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Z2)
		assert.Equal(t, 0.5, res.Chern)
	})

	t.Run("chern is optional", func(t *testing.T) {
		res, err := ReadInvariantResult(write(t, "z2 0\n"))
		require.NoError(t, err)
		assert.Equal(t, 0, res.Z2)
		assert.Zero(t, res.Chern)
	})

	t.Run("missing z2", func(t *testing.T) {
		_, err := ReadInvariantResult(write(t, "chern 1.0\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing the z2 field")
	})

	t.Run("malformed z2", func(t *testing.T) {
		_, err := ReadInvariantResult(write(t, "z2 one\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed z2")
	})

	t.Run("malformed chern", func(t *testing.T) {
		_, err := ReadInvariantResult(write(t, "z2 1\nchern x\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed chern")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadInvariantResult(filepath.Join(t.TempDir(), InvariantOutName))
		require.Error(t, err)
	})
}

func TestReadTraceSummary(t *testing.T) {
	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), TraceOutName)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("parses header", func(t *testing.T) {
		sum, err := ReadTraceSummary(write(t, "18\n1\n48\n1 0 0 0 1 0 0 0 1\n"))
		require.NoError(t, err)
		assert.Equal(t, 18, sum.OccupiedBands)
		assert.True(t, sum.SpinOrbit)
		assert.Equal(t, 48, sum.SymmetryOps)
	})

	t.Run("no spin orbit", func(t *testing.T) {
		sum, err := ReadTraceSummary(write(t, "10\n0\n2\n"))
		require.NoError(t, err)
		assert.False(t, sum.SpinOrbit)
	})

	t.Run("truncated header", func(t *testing.T) {
		_, err := ReadTraceSummary(write(t, "10\n1\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "truncated header")
	})

	t.Run("malformed header", func(t *testing.T) {
		_, err := ReadTraceSummary(write(t, "bands\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed header")
	})
}

func TestExecRunner(t *testing.T) {
	t.Run("captures output in the job directory", func(t *testing.T) {
		dir := t.TempDir()
		runner := &ExecRunner{Command: "sh -c"}

		err := runner.Run(context.Background(), dir, "echo from the solver; echo oops 1>&2; touch marker")
		require.NoError(t, err)

		out, err := os.ReadFile(filepath.Join(dir, StdoutName))
		require.NoError(t, err)
		assert.Equal(t, "from the solver\n", string(out))

		errOut, err := os.ReadFile(filepath.Join(dir, StderrName))
		require.NoError(t, err)
		assert.Equal(t, "oops\n", string(errOut))

		assert.FileExists(t, filepath.Join(dir, "marker"))
	})

	t.Run("nonzero exit", func(t *testing.T) {
		runner := &ExecRunner{Command: "sh -c"}
		err := runner.Run(context.Background(), t.TempDir(), "exit 3")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed")
	})

	t.Run("empty command", func(t *testing.T) {
		runner := &ExecRunner{}
		err := runner.Run(context.Background(), t.TempDir(), "echo hi")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "command is empty")
	})
}
