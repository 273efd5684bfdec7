// Package document loads a screenplay source file off disk into the
// untyped form internal/model.Build expects, via yaml.v3.
package document

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and decodes the YAML document at path. The result is handed
// to model.Build unmodified; decode.go's asMap/asList/asString/asInt
// helpers tolerate yaml.v3's map[string]any output directly.
func Load(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%s: document is empty", path)
	}
	return doc, nil
}
