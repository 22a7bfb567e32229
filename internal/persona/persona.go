package persona

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Expertise selects the domain the model answers from.
type Expertise string

const (
	ExpertiseNone      Expertise = "NONE"
	ExpertiseLinguist  Expertise = "LINGUIST"
	ExpertiseLawyer    Expertise = "LAWYER"
	ExpertiseEngineer  Expertise = "ENGINEER"
	ExpertiseDoctor    Expertise = "DOCTOR"
	ExpertiseScientist Expertise = "SCIENTIST"
	ExpertiseAuto      Expertise = "AUTO"
)

// Expertises lists every expertise value.
var Expertises = []Expertise{
	ExpertiseNone, ExpertiseLinguist, ExpertiseLawyer, ExpertiseEngineer,
	ExpertiseDoctor, ExpertiseScientist, ExpertiseAuto,
}

// Style selects the register of the answer.
type Style string

const (
	StyleNone         Style = "NONE"
	StylePoet         Style = "POET"
	StyleComedian     Style = "COMEDIAN"
	StyleProfessional Style = "PROFESSIONAL"
	StyleAuto         Style = "AUTO"
)

// Styles lists every style value.
var Styles = []Style{StyleNone, StylePoet, StyleComedian, StyleProfessional, StyleAuto}

// ParseExpertise is case-insensitive; empty means NONE.
func ParseExpertise(s string) (Expertise, error) {
	if s == "" {
		return ExpertiseNone, nil
	}
	e := Expertise(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Expertises {
		if e == known {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown expertise %q", s)
}

// ParseStyle is case-insensitive; empty means NONE.
func ParseStyle(s string) (Style, error) {
	if s == "" {
		return StyleNone, nil
	}
	st := Style(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Styles {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown style %q", s)
}

//go:embed personas.yaml
var defaultTable []byte

// Table maps every expertise and style to its instruction block.
type Table struct {
	Expertise map[Expertise][]string `yaml:"expertise"`
	Style     map[Style][]string     `yaml:"style"`
}

// DefaultTable returns the built-in instruction table.
func DefaultTable() (*Table, error) {
	return ParseTable(defaultTable)
}

// LoadTable reads a table from path, or the built-in table when path is empty.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read persona file: %w", err)
	}
	return ParseTable(raw)
}

// ParseTable decodes a YAML table and checks it covers every value exactly.
func ParseTable(raw []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("failed to parse persona table: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Table) validate() error {
	var missing, unknown []string
	for _, e := range Expertises {
		if _, ok := t.Expertise[e]; !ok {
			missing = append(missing, "expertise."+string(e))
		}
	}
	for _, s := range Styles {
		if _, ok := t.Style[s]; !ok {
			missing = append(missing, "style."+string(s))
		}
	}
	for e := range t.Expertise {
		if _, err := ParseExpertise(string(e)); err != nil || string(e) != strings.ToUpper(string(e)) {
			unknown = append(unknown, "expertise."+string(e))
		}
	}
	for s := range t.Style {
		if _, err := ParseStyle(string(s)); err != nil || string(s) != strings.ToUpper(string(s)) {
			unknown = append(unknown, "style."+string(s))
		}
	}
	if len(missing) > 0 || len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("persona table incomplete: missing %v, unknown %v", missing, unknown)
	}
	return nil
}

// Instructions returns the system instructions for a choice, expertise first.
// The returned slice is a fresh copy.
func (t *Table) Instructions(e Expertise, s Style) []string {
	out := make([]string, 0, len(t.Expertise[e])+len(t.Style[s]))
	out = append(out, t.Expertise[e]...)
	out = append(out, t.Style[s]...)
	return out
}
