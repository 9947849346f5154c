package answers

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/randomer/internal/textnorm"
)

// CategoryMultichoice is the only table category the answerer consumes.
const CategoryMultichoice = "multichoice"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is one known question: its title and the substrings that identify
// its accepted options.
type Record struct {
	Title   string   `json:"title" yaml:"title"`
	Answers []string `json:"answers" yaml:"answers"`
}

// Table maps a question category to its known records. A nil Table means no
// answer key was loaded.
type Table map[string][]Record

// Loaded reports whether the table came from an answer key on disk.
func (t Table) Loaded() bool {
	return t != nil
}

// Lookup returns the first record of category whose title equals title.
func (t Table) Lookup(category, title string) (Record, bool) {
	for _, r := range t[category] {
		if r.Title == title {
			return r, true
		}
	}
	return Record{}, false
}

// Len returns the number of records across all categories.
func (t Table) Len() int {
	n := 0
	for _, records := range t {
		n += len(records)
	}
	return n
}

// LoadTable reads the answer key at path. The format follows the extension:
// .yaml and .yml are YAML, anything else is JSON. Any failure is logged and
// degrades to a nil table, which makes every answer random.
func LoadTable(path string, logger *zap.Logger) Table {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Info("No answer key found, answers are random.", zap.String("path", path))
		return nil
	}
	table, err := parseTable(data, path)
	if err != nil {
		logger.Warn("Answer key could not be parsed, answers are random.", zap.String("path", path), zap.Error(err))
		return nil
	}
	logger.Info("Loaded answer key.",
		zap.String("path", path),
		zap.Int("records", table.Len()),
		zap.Int("multichoice", len(table[CategoryMultichoice])),
	)
	return table
}

func parseTable(data []byte, path string) (Table, error) {
	var table Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&table); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	}
	if table == nil {
		table = Table{}
	}
	for category, records := range table {
		for i := range records {
			records[i].Title = textnorm.Normalize(strings.TrimSpace(records[i].Title))
		}
		table[category] = records
	}
	return table, nil
}
