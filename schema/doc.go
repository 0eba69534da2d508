// Package schema provides the declarative building blocks attached to
// managed types: annotations and named entity graph declarations.
//
// A NamedEntityGraph declares a graph statically, the way the model declares
// types. Declarations are attached to an entity type with the
// NamedEntityGraphs annotation, or kept in definition files read by the
// namedgraph package:
//
//	b.Entity("Employee").Annotations(
//	    schema.Graphs(schema.NamedEntityGraph{
//	        Name: "Employee.department",
//	        AttributeNodes: []schema.NamedAttributeNode{
//	            {Value: "name"},
//	            {Value: "department", Subgraph: "dept"},
//	        },
//	        Subgraphs: []schema.NamedSubgraph{
//	            {Name: "dept", AttributeNodes: schema.Nodes("deptName")},
//	        },
//	    }),
//	)
//
// The same declaration as a YAML definition file:
//
//	graphs:
//	  - name: Employee.department
//	    type: Employee
//	    attributeNodes:
//	      - name
//	      - value: department
//	        subgraph: dept
//	    subgraphs:
//	      - name: dept
//	        attributeNodes: [deptName]
//
// Attribute nodes accept a bare attribute name in YAML, JSON and TOML.
// entitygraph.Define turns a declaration into a frozen graph.
package schema
