// Package content holds the portfolio copy: profile, skills, projects,
// experience and education. A Catalog is parsed from YAML and served from an
// in-memory SQLite Store.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var ErrInvalidCatalog = errors.New("invalid catalog")

type Catalog struct {
	Profile    Profile      `yaml:"profile" json:"profile"`
	Skills     []SkillGroup `yaml:"skills" json:"skills"`
	Projects   []Project    `yaml:"projects" json:"projects"`
	Experience []Experience `yaml:"experience" json:"experience"`
	Education  []Education  `yaml:"education" json:"education"`
}

type Profile struct {
	Name     string `yaml:"name" json:"name"`
	Headline string `yaml:"headline" json:"headline"`
	About    string `yaml:"about" json:"about"`
	Email    string `yaml:"email" json:"email"`
	Phone    string `yaml:"phone" json:"phone,omitempty"`
	Github   string `yaml:"github" json:"github,omitempty"`
	Linkedin string `yaml:"linkedin" json:"linkedin,omitempty"`
	Resume   string `yaml:"resume" json:"resume,omitempty"`
}

type SkillGroup struct {
	Category string   `yaml:"category" json:"category"`
	Items    []string `yaml:"items" json:"items"`
}

type Project struct {
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Tech        []string `yaml:"tech" json:"tech"`
	Image       string   `yaml:"image" json:"image,omitempty"`
	Github      string   `yaml:"github" json:"github,omitempty"`
	Demo        string   `yaml:"demo" json:"demo,omitempty"`
}

type Experience struct {
	Role    string   `yaml:"role" json:"role"`
	Company string   `yaml:"company" json:"company"`
	Period  string   `yaml:"period" json:"period"`
	Bullets []string `yaml:"bullets" json:"bullets"`
}

type Education struct {
	Degree      string `yaml:"degree" json:"degree"`
	Institution string `yaml:"institution" json:"institution"`
	Period      string `yaml:"period" json:"period"`
	Score       string `yaml:"score" json:"score,omitempty"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// LoadFile reads a catalog from path, or the embedded one when path is empty.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) Validate() error {
	if c.Profile.Name == "" {
		return fmt.Errorf("%w: profile.name is required", ErrInvalidCatalog)
	}
	for i, g := range c.Skills {
		if g.Category == "" {
			return fmt.Errorf("%w: skills[%d] has no category", ErrInvalidCatalog, i)
		}
	}
	for i, p := range c.Projects {
		if p.Title == "" {
			return fmt.Errorf("%w: projects[%d] has no title", ErrInvalidCatalog, i)
		}
	}
	for i, e := range c.Experience {
		if e.Role == "" {
			return fmt.Errorf("%w: experience[%d] has no role", ErrInvalidCatalog, i)
		}
	}
	for i, e := range c.Education {
		if e.Degree == "" {
			return fmt.Errorf("%w: education[%d] has no degree", ErrInvalidCatalog, i)
		}
	}
	return nil
}
