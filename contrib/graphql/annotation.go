package graphql

import (
	"slices"

	"github.com/syssam/entitygraph/schema"
)

// AnnotationName is the name used for GraphQL annotations.
const AnnotationName = "graphql"

// SkipMode defines what to leave out of the GraphQL mapping.
type SkipMode uint

const (
	// SkipType leaves the type out of the schema. Selections on it are not
	// collected.
	SkipType SkipMode = 1 << iota
	// SkipQueryField leaves the type out of the Query type.
	SkipQueryField

	// SkipAll skips everything.
	SkipAll = SkipType | SkipQueryField
)

// Is checks if the mode has the given flag.
func (m SkipMode) Is(flag SkipMode) bool {
	return m&flag != 0
}

// Annotation maps a managed type or attribute to its GraphQL counterpart.
type Annotation struct {
	// --- Type-level settings ---

	// Skip defines what to skip.
	Skip SkipMode

	// QueryField includes the entity in the Query type, as a list field
	// named after the plural of the type.
	QueryField bool

	// Type sets a custom GraphQL type name. Inline fragments and fragment
	// spreads on the custom name narrow to the annotated type.
	Type string

	// --- Attribute-level settings ---

	// SkipField excludes the attribute from the schema and from collection.
	SkipField bool

	// FieldName sets a custom GraphQL field name.
	FieldName string

	// RelayConnection exposes a plural association as a Relay connection.
	// The collector reads the target selection under edges.node and nodes.
	RelayConnection bool

	// Unbind unbinds the attribute from its GraphQL field name.
	Unbind bool

	// Mapping lists additional GraphQL field names collecting the
	// attribute. Used with Unbind to rename without a schema field.
	Mapping []string

	// CollectedFor lists computed GraphQL fields needing the attribute,
	// e.g. "fullName" resolved from "firstName" and "lastName".
	CollectedFor []string
}

// Name implements schema.Annotation.
func (a Annotation) Name() string {
	return AnnotationName
}

var (
	_ schema.Annotation = (*Annotation)(nil)
	_ schema.Merger     = (*Annotation)(nil)
)

// Skip returns an annotation that skips the specified modes.
//
// Example:
//
//	graphql.Skip(graphql.SkipQueryField)
func Skip(modes ...SkipMode) Annotation {
	var skip SkipMode
	for _, m := range modes {
		skip |= m
	}
	return Annotation{Skip: skip}
}

// QueryField includes this entity in the Query type.
func QueryField() Annotation {
	return Annotation{QueryField: true}
}

// Type sets a custom GraphQL type name.
//
// Example:
//
//	graphql.Type("Staff") // Employee becomes Staff in GraphQL
func Type(name string) Annotation {
	return Annotation{Type: name}
}

// SkipField excludes the attribute from the GraphQL mapping.
//
// Example:
//
//	metamodel.Basic("salary", "decimal").Annotations(graphql.SkipField())
func SkipField() Annotation {
	return Annotation{SkipField: true}
}

// FieldName sets a custom GraphQL field name.
//
// Example:
//
//	metamodel.Basic("dept_name", "string").Annotations(graphql.FieldName("deptName"))
func FieldName(name string) Annotation {
	return Annotation{FieldName: name}
}

// RelayConnection exposes the plural association as a Relay connection.
func RelayConnection() Annotation {
	return Annotation{RelayConnection: true}
}

// Unbind unbinds the attribute from automatic GraphQL field mapping.
// Use with Mapping() to specify custom field collection mappings.
//
// Example:
//
//	metamodel.OneToMany("reports", "Employee").Annotations(
//	    graphql.Unbind(),
//	    graphql.Mapping("directReports", "team"),
//	)
func Unbind() Annotation {
	return Annotation{Unbind: true}
}

// Mapping sets custom GraphQL field name mappings for collection.
func Mapping(fields ...string) Annotation {
	return Annotation{Mapping: fields}
}

// CollectedFor specifies which GraphQL fields trigger collection of the
// attribute.
//
// Example:
//
//	metamodel.Basic("firstName", "string").Annotations(
//	    graphql.CollectedFor("fullName", "displayName"),
//	)
func CollectedFor(fields ...string) Annotation {
	return Annotation{CollectedFor: fields}
}

// IsSkipType returns true if the entire type should be skipped.
func (a Annotation) IsSkipType() bool { return a.Skip.Is(SkipType) }

// HasQueryField reports whether the type is listed in the Query type.
func (a Annotation) HasQueryField() bool { return a.QueryField && !a.Skip.Is(SkipQueryField) }

// Merge implements schema.Merger for combining annotations.
func (a Annotation) Merge(other schema.Annotation) schema.Annotation {
	var o Annotation
	switch v := other.(type) {
	case Annotation:
		o = v
	case *Annotation:
		if v == nil {
			return a
		}
		o = *v
	default:
		return a
	}
	return MergeAnnotations(a, o)
}

// MergeAnnotations combines multiple GraphQL annotations into one.
// Skip flags are OR'd together, lists are concatenated and other settings
// use the last non-zero value.
func MergeAnnotations(annotations ...Annotation) Annotation {
	var result Annotation
	for _, a := range annotations {
		result.Skip |= a.Skip
		result.QueryField = result.QueryField || a.QueryField
		if a.Type != "" {
			result.Type = a.Type
		}
		result.SkipField = result.SkipField || a.SkipField
		if a.FieldName != "" {
			result.FieldName = a.FieldName
		}
		result.RelayConnection = result.RelayConnection || a.RelayConnection
		result.Unbind = result.Unbind || a.Unbind
		result.Mapping = appendNew(result.Mapping, a.Mapping...)
		result.CollectedFor = appendNew(result.CollectedFor, a.CollectedFor...)
	}
	return result
}

func appendNew(list []string, items ...string) []string {
	for _, it := range items {
		if !slices.Contains(list, it) {
			list = append(list, it)
		}
	}
	return list
}

// From returns the GraphQL annotation in the annotations of a type or an
// attribute, or the zero Annotation.
func From(annotations map[string]any) Annotation {
	switch v := annotations[AnnotationName].(type) {
	case Annotation:
		return v
	case *Annotation:
		if v != nil {
			return *v
		}
	}
	return Annotation{}
}
