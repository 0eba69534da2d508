// Package entitygraph builds entity graphs: named trees describing which
// attributes of an entity, and of the entities and embeddables it references,
// are to be loaded eagerly.
//
// # Building Graphs
//
// Graphs are validated against a Registry of managed types, usually a
// *metamodel.Model:
//
//	g, err := entitygraph.New(model, "Employee")
//	if err != nil {
//	    return err
//	}
//	if err := g.AddAttributeNodes("name"); err != nil {
//	    return err
//	}
//	dept, err := g.AddSubgraph("department")
//	if err != nil {
//	    return err
//	}
//	err = dept.AddAttributeNodes("deptName")
//
// Every builder operation exists in a name-based form and in a form taking
// resolved *metamodel.Attribute values (AddAttributes, AddSubgraphFor,
// AddKeySubgraphFor). The name-based forms look the attribute up in the
// registry and delegate.
//
// # Subtypes
//
// Subgraphs can be narrowed to subtypes of the attribute target with
// AddSubgraphAs, and a graph can describe attributes of its own subtypes with
// AddSubclassSubgraph. One subgraph exists per distinct subtype. A subgraph
// for a subtype always includes the attribute nodes of the subgraphs for its
// supertypes in the same dimension: it starts with a copy of them and
// receives nodes added to them later.
//
// # Map Keys
//
// Map attributes have a second subgraph dimension describing the keys,
// available through AddKeySubgraph when the key type is managed. Key and
// value subgraphs are independent.
//
// # Frozen Graphs
//
// Graphs built from a schema.NamedEntityGraph declaration with Define are
// frozen. Freeze freezes a programmatically built graph. Mutating a frozen
// graph fails with a *FrozenGraphError and leaves the graph unchanged. Use
// Copy to derive a mutable graph from a frozen one.
//
// # Concurrency
//
// Graphs are not safe for concurrent mutation. Frozen graphs are safe for
// concurrent reads.
package entitygraph
