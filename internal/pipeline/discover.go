package pipeline

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nishad/ctrake/internal/errors"
)

// Discover returns every file under dir whose extension matches ext
// (case-insensitive, e.g. ".xml"), sorted.
func Discover(dir, ext string) ([]string, error) {
	const op = errors.Op("pipeline.Discover")

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.E(op, errors.KindIO, err)
	}
	sort.Strings(files)
	return files, nil
}
