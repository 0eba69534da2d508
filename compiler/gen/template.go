package gen

import (
	"strconv"
	"strings"
	"text/template"
)

// Template is a user template executed in addition to the built-in
// generators. A template with a Format is executed once per type, with the
// *Type as data. Otherwise it is executed once with the *Graph and written
// to File.
type Template struct {
	*template.Template
	// Format returns the output file of a per-type template, relative to
	// the target directory.
	Format func(*Type) string
	// Cond skips the types it returns false for.
	Cond func(*Type) bool
	// File is the output file of a graph template.
	File string
}

// Funcs are the functions available in templates.
var Funcs = template.FuncMap{
	"pascal": pascal,
	"lower":  strings.ToLower,
	"upper":  strings.ToUpper,
	"join":   strings.Join,
	"quote":  strconv.Quote,
	"const":  graphConst,
}

// NewTemplate creates an empty template with the standard Funcs.
func NewTemplate(name string) *Template {
	return &Template{Template: template.New(name).Funcs(Funcs)}
}

// Parse parses text as the template body.
func (t *Template) Parse(text string) (*Template, error) {
	if _, err := t.Template.Parse(text); err != nil {
		return nil, err
	}
	return t, nil
}

// ForEachType executes the template once per type, writing to the file
// returned by format.
func (t *Template) ForEachType(format func(*Type) string) *Template {
	t.Format = format
	return t
}

// SkipIf skips the types cond returns true for.
func (t *Template) SkipIf(cond func(*Type) bool) *Template {
	t.Cond = func(typ *Type) bool { return !cond(typ) }
	return t
}

// ToFile writes the output of a graph template to name.
func (t *Template) ToFile(name string) *Template {
	t.File = name
	return t
}

// MustParse panics if err is not nil.
func MustParse(t *Template, err error) *Template {
	if err != nil {
		panic(err)
	}
	return t
}
