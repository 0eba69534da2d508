package metamodel

import (
	"fmt"
	"strings"

	"github.com/syssam/entitygraph/schema"
)

// ValidationError is a mapping problem found by Validate.
type ValidationError struct {
	Type      string
	Attribute string
	Message   string
}

func (e *ValidationError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("%s.%s: %s", e.Type, e.Attribute, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ValidationResult holds the results of model validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func (r *ValidationResult) errorf(t *Type, a *Attribute, format string, args ...any) {
	r.Errors = append(r.Errors, newValidationError(t, a, format, args...))
}

func (r *ValidationResult) warnf(t *Type, a *Attribute, format string, args ...any) {
	r.Warnings = append(r.Warnings, newValidationError(t, a, format, args...))
}

func newValidationError(t *Type, a *Attribute, format string, args ...any) *ValidationError {
	e := &ValidationError{Type: t.Name, Message: fmt.Sprintf(format, args...)}
	if a != nil {
		e.Attribute = a.Name
	}
	return e
}

// Validate checks the mapping of a built model. Build already rejects
// declarations that cannot form a model; Validate reports relational mapping
// problems that make associations unloadable (errors) or rely on defaults
// (warnings).
//
// Example:
//
//	result := metamodel.Validate(m)
//	if result.HasErrors() {
//	    log.Fatal("invalid mapping:\n", result)
//	}
func Validate(m *Model) *ValidationResult {
	result := &ValidationResult{}
	for _, t := range m.types {
		if graphs, ok := t.Annotations[schema.NamedEntityGraphs(nil).Name()]; ok && !t.IsEntity() {
			result.errorf(t, nil, "%T declared on %s type", graphs, t.Kind)
		}
		if t.IsEntity() && t.Super != "" && t.Root() != t && t.Discriminator() == "" {
			result.warnf(t, nil, "no discriminator column declared on %q, subtype rows cannot be told apart", t.Root().Name)
		}
		for _, a := range t.attrs {
			validateAttribute(m, result, t, a)
		}
	}
	return result
}

func validateAttribute(m *Model, result *ValidationResult, t *Type, a *Attribute) {
	if a.Sensitive && a.Eager() {
		result.warnf(t, a, "sensitive attribute is fetched eagerly")
	}
	if a.IsMap() && a.KeyColumn == "" {
		result.warnf(t, a, "map attribute without key column, defaulting to %q", DefaultKeyColumn(a))
	}
	if !a.IsAssociation() {
		return
	}
	target, _ := m.Target(a)
	if a.MappedBy != "" {
		inverse, _ := target.Attribute(a.MappedBy)
		switch {
		case inverse.MappedBy != "":
			result.errorf(t, a, "mappedBy %q references the inverse side %s", a.MappedBy, inverse)
		case inverse.IsAssociation() && !m.IsSubtype(t.Name, inverse.Target) && !m.IsSubtype(inverse.Target, t.Name):
			result.errorf(t, a, "mappedBy %q references type %q, expected %q", a.MappedBy, inverse.Target, t.Name)
		case !inverse.IsAssociation():
			result.errorf(t, a, "mappedBy %q is not an association", a.MappedBy)
		}
		return
	}
	if a.IsPlural() && a.JoinTable == nil {
		result.warnf(t, a, "no mappedBy or join table, defaulting to join table %q", DefaultJoinTable(a).Name)
	}
}

// DefaultJoinTable returns the join table used for associations declared
// without one, e.g. "employee_projects" for Employee.projects.
func DefaultJoinTable(a *Attribute) *JoinTable {
	if a.JoinTable != nil {
		return a.JoinTable
	}
	return &JoinTable{
		Name:              Snake(a.Owner) + "_" + Snake(a.Name),
		JoinColumn:        Snake(a.Owner) + "_id",
		InverseJoinColumn: Snake(a.Target) + "_id",
	}
}

// DefaultKeyColumn returns the map key column of a map attribute.
func DefaultKeyColumn(a *Attribute) string {
	if a.KeyColumn != "" {
		return a.KeyColumn
	}
	return Snake(a.Name) + "_key"
}
