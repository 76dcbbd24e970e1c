package staging

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func writeGzFile(t *testing.T, dir, name, content string) {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestStageDefaults(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	for _, f := range []string{"INCAR", "KPOINTS", "POTCAR", "OUTCAR", "vasprun.xml"} {
		writeFile(t, src, f, "contents of "+f)
	}
	writeFile(t, src, "CONTCAR", "relaxed geometry")
	writeFile(t, src, "POSCAR", "input geometry")

	require.NoError(t, Stage(src, dst, nil))

	for _, f := range []string{"INCAR", "KPOINTS", "POTCAR", "OUTCAR", "vasprun.xml"} {
		assert.Equal(t, "contents of "+f, readFile(t, dst, f))
	}
	// The staged POSCAR is the previous run's CONTCAR, not its POSCAR.
	assert.Equal(t, "relaxed geometry", readFile(t, dst, "POSCAR"))
	assert.NoFileExists(t, filepath.Join(dst, "CONTCAR"))
}

func TestStageRelaxVariants(t *testing.T) {
	t.Run("highest numbered variant wins", func(t *testing.T) {
		src, dst := t.TempDir(), t.TempDir()
		writeFile(t, src, "INCAR", "plain")
		writeFile(t, src, "INCAR.relax1", "first pass")
		writeFile(t, src, "INCAR.relax2", "second pass")

		require.NoError(t, Stage(src, dst, []string{"INCAR"}))
		assert.Equal(t, "second pass", readFile(t, dst, "INCAR"))
	})

	t.Run("compressed variant", func(t *testing.T) {
		src, dst := t.TempDir(), t.TempDir()
		writeGzFile(t, src, "OUTCAR.relax3.GZ", "final ionic step")

		require.NoError(t, Stage(src, dst, []string{"OUTCAR"}))
		assert.Equal(t, "final ionic step", readFile(t, dst, "OUTCAR"))
	})

	t.Run("too many variants", func(t *testing.T) {
		src, dst := t.TempDir(), t.TempDir()
		for i := 1; i <= 10; i++ {
			writeFile(t, src, fmt.Sprintf("OUTCAR.relax%d", i), "step")
		}

		err := Stage(src, dst, []string{"OUTCAR"})
		var stageErr *Error
		require.ErrorAs(t, err, &stageErr)
		assert.Equal(t, "OUTCAR", stageErr.File)
		assert.Contains(t, err.Error(), "more than 9")
	})
}

func TestStageGzip(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeGzFile(t, src, "vasprun.xml.gz", "<modeling></modeling>")

	require.NoError(t, Stage(src, dst, []string{"vasprun.xml"}))

	assert.Equal(t, "<modeling></modeling>", readFile(t, dst, "vasprun.xml"))
	assert.NoFileExists(t, filepath.Join(dst, "vasprun.xml.gz"))
}

func TestStageContcarToPoscar(t *testing.T) {
	t.Run("POSCAR request resolves CONTCAR", func(t *testing.T) {
		src, dst := t.TempDir(), t.TempDir()
		writeFile(t, src, "CONTCAR", "relaxed")
		writeFile(t, src, "POSCAR", "unrelaxed")

		require.NoError(t, Stage(src, dst, []string{"POSCAR"}))
		assert.Equal(t, "relaxed", readFile(t, dst, "POSCAR"))
	})

	t.Run("explicit CONTCAR lands as POSCAR", func(t *testing.T) {
		src, dst := t.TempDir(), t.TempDir()
		writeFile(t, src, "CONTCAR", "relaxed")

		require.NoError(t, Stage(src, dst, []string{"CONTCAR"}))
		assert.Equal(t, "relaxed", readFile(t, dst, "POSCAR"))
		assert.NoFileExists(t, filepath.Join(dst, "CONTCAR"))
	})

	t.Run("missing CONTCAR fails even with POSCAR present", func(t *testing.T) {
		src, dst := t.TempDir(), t.TempDir()
		writeFile(t, src, "POSCAR", "unrelaxed")

		err := Stage(src, dst, []string{"POSCAR"})
		var stageErr *Error
		require.ErrorAs(t, err, &stageErr)
		assert.Equal(t, "CONTCAR", stageErr.File)
	})
}

func TestStageMissingFile(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, src, "INCAR", "x")

	err := Stage(src, dst, []string{"INCAR", "WAVECAR"})
	var stageErr *Error
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "WAVECAR", stageErr.File)
	assert.Contains(t, err.Error(), "cannot find file")
}

func TestStageSourceDirMissing(t *testing.T) {
	err := Stage(filepath.Join(t.TempDir(), "no-such-dir"), t.TempDir(), nil)
	require.Error(t, err)
	var stageErr *Error
	assert.False(t, errors.As(err, &stageErr))
}

func TestStageAdditionalFiles(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, src, "CHGCAR", "charge density")
	writeGzFile(t, src, "WAVECAR.gz", "wavefunctions")

	require.NoError(t, Stage(src, dst, []string{"CHGCAR", "WAVECAR"}))

	assert.Equal(t, "charge density", readFile(t, dst, "CHGCAR"))
	assert.Equal(t, "wavefunctions", readFile(t, dst, "WAVECAR"))
}
