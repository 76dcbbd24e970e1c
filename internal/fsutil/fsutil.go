// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// FindFilesByExtension recursively collects every file under rootPath whose
// name carries the given extension (".hcl" style, dot included). WalkDir
// visits entries in lexical order, so callers that merge the files get a
// deterministic later-file-wins ordering for free.
func FindFilesByExtension(rootPath, extension string) ([]string, error) {
	if extension == "" || extension[0] != '.' {
		panic("extension must start with a dot")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == extension {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", rootPath, err)
	}
	return files, nil
}
