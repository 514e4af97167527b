package notebook

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/nbsense/internal/editor"
	"github.com/dshills/nbsense/internal/logging"
)

// ErrInvalidNotebook indicates a file that is not nbformat JSON.
var ErrInvalidNotebook = errors.New("invalid notebook")

// Parse builds an in-memory document from nbformat JSON. Each cell gets an
// editor from factory. Cells without an id are named "cell-<index>".
func Parse(data []byte, factory editor.Factory) (*Memory, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidNotebook)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level is not an object", ErrInvalidNotebook)
	}

	md := make(Metadata)
	if m, ok := root.Get("metadata").Value().(map[string]any); ok {
		for k, v := range m {
			md[k] = v
		}
	}
	doc := NewMemory(md)

	cells := root.Get("cells")
	if cells.Exists() && !cells.IsArray() {
		return nil, fmt.Errorf("%w: cells is not an array", ErrInvalidNotebook)
	}

	for i, c := range cells.Array() {
		id := c.Get("id").String()
		if id == "" {
			id = fmt.Sprintf("cell-%d", i)
		}
		cellType := CellType(c.Get("cell_type").String())
		if cellType == "" {
			cellType = CellRaw
		}
		doc.Append(NewMemoryCell(id, cellType, factory.New(joinSource(c.Get("source")))))
	}

	return doc, nil
}

// LoadFile reads and parses an .ipynb file.
func LoadFile(path string, factory editor.Factory) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading notebook %s: %w", path, err)
	}
	doc, err := Parse(data, factory)
	if err != nil {
		return nil, fmt.Errorf("parsing notebook %s: %w", path, err)
	}
	return doc, nil
}

// EnsureLanguageFile applies EnsureLanguage to the notebook file at path,
// rewriting only metadata.language. It reports whether the file changed.
func EnsureLanguageFile(path, lang string, log *logging.Logger) (bool, error) {
	if log == nil {
		log = logging.Nop()
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat notebook %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading notebook %s: %w", path, err)
	}

	updated, changed, err := EnsureLanguageJSON(data, lang, log)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	if !changed {
		return false, nil
	}

	if err := os.WriteFile(path, updated, info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("writing notebook %s: %w", path, err)
	}
	return true, nil
}

// EnsureLanguageJSON is EnsureLanguage over raw nbformat JSON.
func EnsureLanguageJSON(data []byte, lang string, log *logging.Logger) ([]byte, bool, error) {
	if log == nil {
		log = logging.Nop()
	}
	if !gjson.ValidBytes(data) {
		return nil, false, fmt.Errorf("%w: malformed JSON", ErrInvalidNotebook)
	}

	existing := gjson.GetBytes(data, "metadata."+MetadataLanguage)
	if isSetJSON(existing) {
		log.Info("language already defined and is: %s", existing.String())
		return data, false, nil
	}

	updated, err := sjson.SetBytes(data, "metadata."+MetadataLanguage, lang)
	if err != nil {
		return nil, false, fmt.Errorf("setting language: %w", err)
	}
	log.Info("add metadata hint that language is %s", lang)
	return updated, true, nil
}

// isSetJSON applies the Metadata.Language presence rule to a raw value.
func isSetJSON(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.String:
		return r.Str != ""
	case gjson.Number:
		return r.Num != 0
	default:
		return true
	}
}

// joinSource handles both nbformat encodings of cell source: a single string
// or a list of lines that already carry their newlines.
func joinSource(r gjson.Result) string {
	if !r.IsArray() {
		return r.String()
	}
	var b strings.Builder
	for _, part := range r.Array() {
		b.WriteString(part.String())
	}
	return b.String()
}
