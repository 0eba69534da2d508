// Package sqlschema provides SQL table-mapping annotations for managed types.
//
// Import this package as:
//
//	import "github.com/syssam/entitygraph/dialect/sqlschema"
//
// # API Styles
//
// Functional style:
//
//	sqlschema.Table("employees")
//	sqlschema.Schema("hr")
//	sqlschema.Discriminator("kind")
//
// Struct literal style:
//
//	sqlschema.Annotation{
//	    Table:  "employees",
//	    Schema: "hr",
//	}
//
// # Inheritance
//
// Subtypes of an entity share the table of the root entity of their
// hierarchy. The Discriminator column tells rows of different subtypes apart
// and DiscriminatorValue sets the value stored for a given type (defaulting to
// the type name).
package sqlschema

import (
	"github.com/syssam/entitygraph/schema"
)

// AnnotationName is the name used for SQL annotations.
const AnnotationName = "sql"

// Annotation holds the SQL mapping settings of a managed type.
type Annotation struct {
	// Table overrides the database table name for an entity.
	Table string `json:"table,omitempty" yaml:"table,omitempty" toml:"table,omitempty"`

	// Schema specifies the database schema of the table.
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty" toml:"schema,omitempty"`

	// Discriminator is the column holding the concrete type of a row in
	// single-table inheritance hierarchies.
	Discriminator string `json:"discriminator,omitempty" yaml:"discriminator,omitempty" toml:"discriminator,omitempty"`

	// DiscriminatorValue is the value stored in the discriminator column
	// for rows of this type.
	DiscriminatorValue string `json:"discriminatorValue,omitempty" yaml:"discriminatorValue,omitempty" toml:"discriminatorValue,omitempty"`
}

// Name implements schema.Annotation.
func (Annotation) Name() string {
	return AnnotationName
}

// Merge implements the schema.Merger interface.
func (a Annotation) Merge(other schema.Annotation) schema.Annotation {
	switch other := other.(type) {
	case Annotation:
		return Merge(a, other)
	case *Annotation:
		if other != nil {
			return Merge(a, *other)
		}
	}
	return a
}

var (
	_ schema.Annotation = (*Annotation)(nil)
	_ schema.Merger     = (*Annotation)(nil)
)

// Table sets the database table name for an entity.
//
//	b.Entity("Employee").Annotations(sqlschema.Table("employees"))
func Table(name string) Annotation {
	return Annotation{Table: name}
}

// Schema sets the database schema of the table.
func Schema(name string) Annotation {
	return Annotation{Schema: name}
}

// Discriminator sets the discriminator column of an inheritance hierarchy.
func Discriminator(column string) Annotation {
	return Annotation{Discriminator: column}
}

// DiscriminatorValue sets the discriminator value of a type.
func DiscriminatorValue(v string) Annotation {
	return Annotation{DiscriminatorValue: v}
}

// Merge combines multiple SQL annotations into one.
// Later annotations override earlier ones.
func Merge(annotations ...Annotation) Annotation {
	result := Annotation{}
	for _, a := range annotations {
		if a.Table != "" {
			result.Table = a.Table
		}
		if a.Schema != "" {
			result.Schema = a.Schema
		}
		if a.Discriminator != "" {
			result.Discriminator = a.Discriminator
		}
		if a.DiscriminatorValue != "" {
			result.DiscriminatorValue = a.DiscriminatorValue
		}
	}
	return result
}

// From extracts the SQL annotation from an annotation map keyed by name.
// It returns nil if no SQL annotation was attached.
func From(annotations map[string]any) *Annotation {
	switch a := annotations[AnnotationName].(type) {
	case Annotation:
		return &a
	case *Annotation:
		return a
	}
	return nil
}
