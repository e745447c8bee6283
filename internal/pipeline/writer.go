package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/nishad/ctrake/internal/errors"
	"github.com/nishad/ctrake/internal/study"
)

// ArtifactName maps a source document path to its artifact file name:
// the base name with the extension replaced by .json.
func ArtifactName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
}

// Marshal renders a record the way artifacts are stored: four space
// indentation and a trailing newline.
func Marshal(s *study.Study) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ArtifactMode is the permission of written artifacts.
const ArtifactMode os.FileMode = 0644

// WriteArtifact writes s to path atomically through a temp file in the
// same directory.
func WriteArtifact(path string, s *study.Study) error {
	const op = errors.Op("pipeline.WriteArtifact")

	data, err := Marshal(s)
	if err != nil {
		return errors.E(op, errors.KindUnknown, err, "encoding record")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".ctrake-*.tmp")
	if err != nil {
		return errors.E(op, errors.KindIO, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		errors.IgnoreError(tmp.Close(), "closing temp artifact after write failure")
		errors.IgnoreError(os.Remove(tmpName), "removing temp artifact")
		return errors.E(op, errors.KindIO, err)
	}
	if err := tmp.Close(); err != nil {
		errors.IgnoreError(os.Remove(tmpName), "removing temp artifact")
		return errors.E(op, errors.KindIO, err)
	}
	if err := os.Chmod(tmpName, ArtifactMode); err != nil {
		errors.IgnoreError(os.Remove(tmpName), "removing temp artifact")
		return errors.E(op, errors.KindIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		errors.IgnoreError(os.Remove(tmpName), "removing temp artifact")
		return errors.E(op, errors.KindIO, err)
	}
	return nil
}

// ReadArtifact loads a canonical record written by WriteArtifact.
func ReadArtifact(path string) (*study.Study, error) {
	const op = errors.Op("pipeline.ReadArtifact")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.E(op, errors.KindIO, err)
	}
	var s study.Study
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.E(op, errors.KindParse, err, path)
	}
	if s.NCTID == "" {
		return nil, errors.E(op, errors.KindRequired, study.ErrMissingID, path)
	}
	return &s, nil
}
