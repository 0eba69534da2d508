// Package graphql bridges GraphQL and entity graphs.
//
// # Fetching what a query selects
//
// A gqlgen resolver turns the selection of the resolved field into an
// entity graph, which the fetch planner loads in one batched pass:
//
//	func (r *queryResolver) Employees(ctx context.Context) ([]*Employee, error) {
//	    g, err := graphql.FromContext(ctx, r.model, "Employee", graphql.WithMaxDepth(4))
//	    if err != nil {
//	        return nil, err
//	    }
//	    plan, err := r.planner.Plan(ctx, g.Freeze(), fetchplan.WithMode(fetchplan.ModeFetch))
//	    if err != nil {
//	        return nil, err
//	    }
//	    nodes, err := sqlgraph.Load(ctx, r.driver, plan)
//	    ...
//	}
//
// Selected fields become attribute nodes and nested selections become
// subgraphs. Inline fragments and fragment spreads on a subtype become
// subclass subgraphs:
//
//	employees {
//	    name
//	    department { deptName }
//	    ... on Manager { reports { name } }
//	}
//
// Map attributes are selected as entry lists with key and value fields, and
// attributes annotated with RelayConnection are read through edges.node and
// nodes.
//
// # Annotations
//
// Annotations on types and attributes adjust the mapping:
//
//	b.Entity("Employee").Annotations(graphql.Type("Staff"), graphql.QueryField())
//	metamodel.Basic("salary", "decimal").Annotations(graphql.SkipField())
//	metamodel.Basic("firstName", "string").Annotations(graphql.CollectedFor("fullName"))
//
// # Schema
//
// Schema and WriteSchema render the GraphQL schema matching the mapping,
// and Extension writes it during code generation:
//
//	ex, err := graphql.NewExtension(
//	    graphql.WithConfigPath("./gqlgen.yml"),
//	    graphql.WithSchemaPath("./graph/model.graphql"),
//	)
//	if err != nil {
//	    log.Fatalf("creating graphql extension: %v", err)
//	}
//	cfg, err := gen.NewConfig(gen.WithTarget("./model"), gen.WithHooks(ex.Hook()))
package graphql
