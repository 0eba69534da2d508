// Package metamodel describes the managed types known to a persistence unit:
// entities, embeddables and mapped superclasses, together with their
// attributes and inheritance relations.
//
// A Model is the registry consulted by the entity-graph builder when it
// validates attribute names and subgraph targets. It is built once, either in
// Go code with the Builder DSL or from a descriptor file (see the
// compiler/load package), and is read-only afterwards, so a Model is safe for
// concurrent use.
//
// # Declaring Types
//
//	b := metamodel.NewBuilder()
//	b.Entity("Department").Attributes(
//	    metamodel.ID("id", "int64"),
//	    metamodel.Basic("deptName", "string"),
//	    metamodel.OneToMany("employees", "Employee").MappedBy("department"),
//	)
//	b.Entity("Employee").Attributes(
//	    metamodel.ID("id", "int64"),
//	    metamodel.Basic("name", "string"),
//	    metamodel.ManyToOne("department", "Department"),
//	    metamodel.Map("phones", "PhoneType", "Phone").MappedBy("owner").KeyColumn("kind"),
//	)
//	b.Entity("Manager").Extends("Employee").Attributes(
//	    metamodel.OneToMany("reports", "Employee").MappedBy("manager"),
//	)
//	m, err := b.Build()
//
// Attribute sets shared by several types are declared once as a Mixin (see
// the contrib/mixin package) and added with TypeBuilder.Mixin.
//
// # Lookups
//
// Attribute lookups include inherited attributes:
//
//	attr, err := m.Attribute("Manager", "name") // declared on Employee
//	m.IsSubtype("Manager", "Employee")          // true
//
// # Table Mapping
//
// The SQL table of an entity defaults to the snake_case plural of its name and
// can be overridden with the dialect/sqlschema annotations.
package metamodel
