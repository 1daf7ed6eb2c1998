package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a recipe source
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// Catalog is an ordered, read-only set of recipes
type Catalog struct {
	names   []string
	recipes map[string]Recipe
}

// Load reads a Catalog from a file. Files ending in .yaml or .yml are parsed as YAML and everything else
// is parsed as JSON
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: error reading %q: %w", ErrStartupData, path, err)
	}

	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}

	return Parse(bytes.NewReader(data), format)
}

// Parse decodes a Catalog. The order of recipes in the source is kept
func Parse(r io.Reader, format Format) (*Catalog, error) {
	var (
		c   *Catalog
		err error
	)
	switch format {
	case FormatYAML:
		c, err = parseYAML(r)
	default:
		c, err = parseJSON(r)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStartupData, err)
	}

	if len(c.names) == 0 {
		return nil, fmt.Errorf("%w: no recipes", ErrStartupData)
	}

	return c, nil
}

// New creates a Catalog from already-decoded recipes
func New(recipes ...Recipe) (*Catalog, error) {
	c := newCatalog()
	for _, r := range recipes {
		err := c.add(r.Name, r)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStartupData, err)
		}
	}
	return c, nil
}

func newCatalog() *Catalog {
	return &Catalog{recipes: map[string]Recipe{}}
}

func (c *Catalog) add(name string, r Recipe) error {
	if name == "" {
		return fmt.Errorf("recipe name is empty")
	}
	if _, ok := c.recipes[name]; ok {
		return fmt.Errorf("duplicate recipe %q", name)
	}

	r.Name = name
	c.names = append(c.names, name)
	c.recipes[name] = r
	return nil
}

func parseJSON(r io.Reader) (*Catalog, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("error decoding JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object of recipes")
	}

	c := newCatalog()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("error decoding JSON: %w", err)
		}
		name, _ := tok.(string)

		var rec Recipe
		err = dec.Decode(&rec)
		if err != nil {
			return nil, fmt.Errorf("error decoding recipe %q: %w", name, err)
		}

		err = c.add(name, rec)
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

func parseYAML(r io.Reader) (*Catalog, error) {
	var root yaml.Node
	err := yaml.NewDecoder(r).Decode(&root)
	if err != nil {
		return nil, fmt.Errorf("error decoding YAML: %w", err)
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected YAML mapping of recipes")
	}

	c := newCatalog()
	content := root.Content[0].Content
	for i := 0; i+1 < len(content); i += 2 {
		name := content[i].Value

		var rec Recipe
		err := content[i+1].Decode(&rec)
		if err != nil {
			return nil, fmt.Errorf("error decoding recipe %q: %w", name, err)
		}

		err = c.add(name, rec)
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Get returns the Recipe with the provided name
func (c *Catalog) Get(name string) (Recipe, error) {
	r, ok := c.recipes[name]
	if !ok {
		return Recipe{}, fmt.Errorf("%w: %q", ErrUnknownRecipe, name)
	}
	return r, nil
}

// Names returns recipe names in source order
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// All returns every Recipe in source order
func (c *Catalog) All() []Recipe {
	result := make([]Recipe, 0, len(c.names))
	for _, name := range c.names {
		result = append(result, c.recipes[name])
	}
	return result
}

// Len is the number of recipes
func (c *Catalog) Len() int {
	return len(c.names)
}

// Validate checks every recipe. pumpExists reports whether a motor number is configured
func (c *Catalog) Validate(pumpExists func(int) bool) error {
	for _, name := range c.names {
		err := c.recipes[name].validate(pumpExists)
		if err != nil {
			return err
		}
	}
	return nil
}

// Motors returns the set of motor numbers used by any recipe
func (c *Catalog) Motors() map[int]struct{} {
	result := map[int]struct{}{}
	for _, r := range c.recipes {
		for _, i := range r.Ingredients {
			result[i.Motor] = struct{}{}
		}
	}
	return result
}
