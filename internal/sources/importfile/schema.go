package importfile

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// File is an item list as written by the export and backup tools.
// JSON documents parse as YAML, so one schema serves both.
type File struct {
	Items      []Entry `yaml:"items"`
	ExportDate string  `yaml:"exportDate,omitempty"`
	Version    string  `yaml:"version,omitempty"`
}

// Entry is one listed item. Ids may be written as numbers or strings.
type Entry struct {
	ID   Scalar `yaml:"id"`
	Name Scalar `yaml:"name"`
}

// Scalar keeps the literal text of any scalar node.
type Scalar string

func (s *Scalar) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			*s = ""
			return nil
		}
		*s = Scalar(n.Value)
		return nil
	default:
		return fmt.Errorf("line %d: expected a scalar value", n.Line)
	}
}
