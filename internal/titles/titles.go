// Package titles loads known component title tables from YAML files and
// keeps them current while the process runs.
package titles

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docstruct/internal/structure"
)

//go:embed schema.json
var schemaJSON []byte

// File is the on-disk layout:
//
//	known_titles:
//	  "1": Vision and Mission of the University and Department
//	  "2": Faculty profiles and individual timetables
type File struct {
	KnownTitles map[string]string `yaml:"known_titles" json:"known_titles"`
}

// Source supplies the title table to use for the next extraction.
type Source interface {
	Current() structure.TitleTable
}

// Static is a Source that never changes.
type Static structure.TitleTable

func (s Static) Current() structure.TitleTable { return structure.TitleTable(s) }

var schema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("load title schema: %v", err))
	}
	s, err := compiler.Compile("schema.json")
	if err != nil {
		panic(fmt.Sprintf("compile title schema: %v", err))
	}
	return s
}

// Parse validates data against the title schema and returns its table.
func Parse(data []byte) (structure.TitleTable, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode titles yaml: %w", err)
	}
	if err := schema.Validate(jsonValue(raw)); err != nil {
		return nil, fmt.Errorf("titles do not match schema: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode titles yaml: %w", err)
	}
	table := make(structure.TitleTable, len(f.KnownTitles))
	for k, v := range f.KnownTitles {
		table[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return table, nil
}

// Load reads and parses a title file.
func Load(path string) (structure.TitleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read titles file: %w", err)
	}
	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Marshal renders a table in the on-disk layout.
func Marshal(table structure.TitleTable) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(File{KnownTitles: table}); err != nil {
		return nil, fmt.Errorf("encode titles yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// jsonValue converts decoded YAML into the shapes JSON decoding would
// produce so the schema validator can walk it. Non-string keys (unquoted
// "1:") are stringified.
func jsonValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonValue(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonValue(val)
		}
		return out
	default:
		return t
	}
}
