// Package floorplan reads the office layout (desks and the users who sit
// on the floor) from a YAML file and writes it to the store.
package floorplan

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/desk-reservation/internal/model"
)

// Plan is the parsed floor-plan file.
//
//	desks:
//	  - number: 7
//	    name: Mesa 7
//	    row: 2
//	    col: 3
//	    fixed: maria@corp.com   # optional
//	users:
//	  - user_name: ana@corp.com
//	    nucleo: n1
//	    coordenacao: c1
type Plan struct {
	Desks []DeskEntry `yaml:"desks"`
	Users []UserEntry `yaml:"users"`
}

// DeskEntry is one desk of the plan.  Spans default to 1 and Active to
// true.
type DeskEntry struct {
	Number  int    `yaml:"number"`
	Name    string `yaml:"name"`
	Row     int    `yaml:"row"`
	Col     int    `yaml:"col"`
	RowSpan int    `yaml:"row_span"`
	ColSpan int    `yaml:"col_span"`
	Fixed   string `yaml:"fixed"`
	Active  *bool  `yaml:"active"`
}

// UserEntry is one user of the plan.  Active defaults to true.
type UserEntry struct {
	UserName    string `yaml:"user_name"`
	Nucleo      string `yaml:"nucleo"`
	Coordenacao string `yaml:"coordenacao"`
	Admin       bool   `yaml:"admin"`
	Active      *bool  `yaml:"active"`
}

// Load reads and validates the plan at path.
func Load(path string) (Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return Plan{}, fmt.Errorf("open floor plan: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and validates a plan.  Unknown keys are rejected so
// typos do not silently drop data.
func Parse(r io.Reader) (Plan, error) {
	var p Plan
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && err != io.EOF {
		return Plan{}, fmt.Errorf("decode floor plan: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// Validate checks that desk numbers, desk names and user names are
// unique and that every desk sits on the grid.
func (p Plan) Validate() error {
	numbers := make(map[int]bool)
	names := make(map[string]bool)
	for i, d := range p.Desks {
		if d.Number <= 0 {
			return fmt.Errorf("desk %d: number must be positive", i+1)
		}
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return fmt.Errorf("desk %d: name is required", d.Number)
		}
		if d.Row <= 0 || d.Col <= 0 {
			return fmt.Errorf("desk %q: row and col must be positive", name)
		}
		if d.RowSpan < 0 || d.ColSpan < 0 {
			return fmt.Errorf("desk %q: negative span", name)
		}
		if numbers[d.Number] {
			return fmt.Errorf("duplicate desk number %d", d.Number)
		}
		key := strings.ToLower(name)
		if names[key] {
			return fmt.Errorf("duplicate desk name %q", name)
		}
		numbers[d.Number] = true
		names[key] = true
	}
	users := make(map[string]bool)
	for i, u := range p.Users {
		name := model.NormalizeUserName(u.UserName)
		if name == "" {
			return fmt.Errorf("user %d: user_name is required", i+1)
		}
		if users[name] {
			return fmt.Errorf("duplicate user %q", name)
		}
		users[name] = true
	}
	return nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func enabled(b *bool) bool { return b == nil || *b }

// ModelDesks converts the desk entries.
func (p Plan) ModelDesks() []model.Desk {
	out := make([]model.Desk, 0, len(p.Desks))
	for _, d := range p.Desks {
		var fixed *string
		if f := model.NormalizeUserName(d.Fixed); f != "" {
			fixed = &f
		}
		out = append(out, model.Desk{
			Number:        d.Number,
			Name:          strings.TrimSpace(d.Name),
			GridRow:       d.Row,
			GridCol:       d.Col,
			RowSpan:       orDefault(d.RowSpan, 1),
			ColSpan:       orDefault(d.ColSpan, 1),
			FixedAssignee: fixed,
			Active:        enabled(d.Active),
		})
	}
	return out
}

// ModelUsers converts the user entries.  User names are normalised the
// same way login does.
func (p Plan) ModelUsers() []model.UserRef {
	out := make([]model.UserRef, 0, len(p.Users))
	for _, u := range p.Users {
		out = append(out, model.UserRef{
			UserName:      model.NormalizeUserName(u.UserName),
			NucleoID:      optional(u.Nucleo),
			CoordenacaoID: optional(u.Coordenacao),
			Active:        enabled(u.Active),
			Admin:         u.Admin,
		})
	}
	return out
}

// DeskWriter and UserWriter are implemented by the repositories.
type DeskWriter interface {
	Upsert(ctx context.Context, d model.Desk) error
}

type UserWriter interface {
	Upsert(ctx context.Context, u model.UserRef) error
}

// Apply upserts every desk and user of the plan and reports how many
// rows were written.
func Apply(ctx context.Context, p Plan, desks DeskWriter, users UserWriter) (nDesks, nUsers int, err error) {
	for _, d := range p.ModelDesks() {
		if err := desks.Upsert(ctx, d); err != nil {
			return nDesks, nUsers, fmt.Errorf("upsert desk %q: %w", d.Name, err)
		}
		nDesks++
	}
	for _, u := range p.ModelUsers() {
		if err := users.Upsert(ctx, u); err != nil {
			return nDesks, nUsers, fmt.Errorf("upsert user %q: %w", u.UserName, err)
		}
		nUsers++
	}
	return nDesks, nUsers, nil
}
