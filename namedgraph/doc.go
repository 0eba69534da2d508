// Package namedgraph keeps the named entity graphs of an application.
//
// Graphs are declared on the model with the schema.NamedEntityGraphs
// annotation, or in definition files, and registered frozen:
//
//	graphs := namedgraph.New(model)
//	if err := graphs.LoadModel(model); err != nil {
//		return err
//	}
//	if _, err := graphs.LoadDir("graphs"); err != nil {
//		return err
//	}
//	g, ok := graphs.Get("Employee.department")
//
// Registered graphs are shared and immutable; Mutable returns a copy to
// derive new graphs from. A Watcher reloads definition files on change.
package namedgraph
