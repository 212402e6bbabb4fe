package view

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition is the YAML form of a view config. Attributes and relationships
// are lists rather than maps so declaration order survives parsing.
//
// Example:
//
//	type: user
//	id_field: id
//	attributes:
//	  - name: username
//	  - name: password_hash
//	    serialize: false
//	relationships:
//	  - name: posts
//	    many: true
//	    view: post
type Definition struct {
	Type          string         `yaml:"type"`
	IDField       string         `yaml:"id_field,omitempty"`
	Path          string         `yaml:"path,omitempty"`
	Attributes    []AttributeDef `yaml:"attributes,omitempty"`
	Relationships []RelationDef  `yaml:"relationships,omitempty"`
}

// AttributeDef declares an attribute in YAML. Serialize/Deserialize default
// to true; transform functions cannot be expressed in YAML and are attached
// programmatically via Build.
type AttributeDef struct {
	Name        string `yaml:"name"`
	Serialize   *bool  `yaml:"serialize,omitempty"`
	Deserialize *bool  `yaml:"deserialize,omitempty"`
}

// RelationDef declares a relationship in YAML.
type RelationDef struct {
	Name string `yaml:"name"`
	Many bool   `yaml:"many,omitempty"`
	View string `yaml:"view"`
}

// Config converts the YAML form to a buildable config.
func (d Definition) Config() Config {
	cfg := Config{
		Type:    d.Type,
		IDField: d.IDField,
		Path:    d.Path,
	}
	for _, a := range d.Attributes {
		attr := Attribute{Name: a.Name}
		if a.Serialize != nil && !*a.Serialize {
			attr.Serialize = Never()
		}
		if a.Deserialize != nil && !*a.Deserialize {
			attr.Deserialize = Never()
		}
		cfg.Attributes = append(cfg.Attributes, attr)
	}
	for _, r := range d.Relationships {
		cfg.Relationships = append(cfg.Relationships, Relationship{
			Name:       r.Name,
			Many:       r.Many,
			TargetView: r.View,
		})
	}
	return cfg
}

// Parse parses and validates a view definition from YAML bytes.
func Parse(data []byte) (*Schema, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return Build(def.Config())
}

// ParseFile parses a view definition from a YAML file.
func ParseFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseDir parses every .yaml/.yml view definition in a directory, including
// subdirectories.
func ParseDir(dir string) ([]*Schema, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var views []*Schema
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			sub, err := ParseDir(path)
			if err != nil {
				return nil, err
			}
			views = append(views, sub...)
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		s, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		views = append(views, s)
	}

	return views, nil
}

// LoadDir parses a directory of view definitions and registers them all,
// verifying relationship targets afterwards.
func LoadDir(dir string, reg *Registry) error {
	views, err := ParseDir(dir)
	if err != nil {
		return err
	}
	for _, s := range views {
		if err := reg.Register(s); err != nil {
			return err
		}
	}
	return reg.Verify()
}
