// Package staging assembles a job's working directory from the outputs of a
// previously completed job. It resolves the naming variants a solver run
// leaves behind (numbered relaxation extensions, gzip compression) and
// decompresses on the fly, so downstream jobs always see plain canonical
// filenames.
package staging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// maxRelaxVariants is the highest numbered relaxation extension that sorts
// correctly as a plain string (".relax10" would sort before ".relax2").
const maxRelaxVariants = 9

// Error reports that a prior output could not be staged.
type Error struct {
	File   string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("staging %s: %s", e.File, e.Reason)
}

// DefaultFiles returns the prior outputs staged when no explicit list is
// given. POSCAR is always resolved from the previous run's CONTCAR so the
// new job starts from the relaxed geometry.
func DefaultFiles() []string {
	return []string{"INCAR", "POSCAR", "KPOINTS", "POTCAR", "OUTCAR", "vasprun.xml"}
}

// Stage copies the named prior outputs from srcDir into dstDir. A nil or
// empty files list stages DefaultFiles. For each file it tries, in order,
// the exact name, the highest numbered ".relaxN" variant, and a ".gz"/".GZ"
// compressed sibling of either; compressed sources are decompressed into the
// plain destination name. A file with no matching variant, or with more
// numbered variants than supported, yields an *Error.
func Stage(srcDir, dstDir string, files []string) error {
	if len(files) == 0 {
		files = DefaultFiles()
	}

	entries, err := listDir(srcDir)
	if err != nil {
		return fmt.Errorf("failed to list prior outputs in %s: %w", srcDir, err)
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}

	for _, f := range files {
		src, dst := f, f
		if f == "POSCAR" || f == "CONTCAR" {
			src, dst = "CONTCAR", "POSCAR"
		}

		resolved, compressed, err := resolve(entries, src)
		if err != nil {
			return err
		}

		srcPath := filepath.Join(srcDir, resolved)
		dstPath := filepath.Join(dstDir, dst)
		if compressed {
			err = gunzipFile(srcPath, dstPath)
		} else {
			err = copyFile(srcPath, dstPath)
		}
		if err != nil {
			return fmt.Errorf("failed to stage %s: %w", f, err)
		}
	}
	return nil
}

// resolve picks the on-disk variant of name to stage and reports whether it
// is gzip compressed.
func resolve(entries map[string]bool, name string) (string, bool, error) {
	var relaxVariants []string
	for entry := range entries {
		if strings.HasPrefix(entry, name+".relax") {
			relaxVariants = append(relaxVariants, entry)
		}
	}
	sort.Strings(relaxVariants)

	relaxExt := ""
	if len(relaxVariants) > 0 {
		if len(relaxVariants) > maxRelaxVariants {
			return "", false, &Error{File: name, Reason: fmt.Sprintf("more than %d numbered relaxation outputs", maxRelaxVariants)}
		}
		rest := strings.TrimPrefix(relaxVariants[len(relaxVariants)-1], name+".relax")
		relaxExt = ".relax" + leadingDigits(rest)
	}

	gzExt := ""
	if !entries[name+relaxExt] {
		for _, ext := range []string{".gz", ".GZ"} {
			if entries[name+relaxExt+ext] {
				gzExt = ext
				break
			}
		}
	}

	if !entries[name+relaxExt+gzExt] {
		return "", false, &Error{File: name, Reason: "cannot find file under any naming or compression variant"}
	}
	return name + relaxExt + gzExt, gzExt != "", nil
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}

func listDir(dir string) (map[string]bool, error) {
	list, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	entries := make(map[string]bool, len(list))
	for _, e := range list {
		if !e.IsDir() {
			entries[e.Name()] = true
		}
	}
	return entries, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func gunzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer zr.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, zr); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
