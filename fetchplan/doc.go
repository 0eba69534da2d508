// Package fetchplan compiles entity graphs into fetch plans.
//
// A plan lists, level by level, the table and columns read for each entity
// type reached by a graph and the link followed by each association step:
//
//	plan, err := fetchplan.Build(ctx, model, graph, fetchplan.WithMode(fetchplan.ModeLoad))
//
// In ModeFetch only the graph attributes and identifiers are read. ModeLoad
// also reads attributes whose declared fetch type is eager; associations
// reached that way are read with their identifiers and eager basic
// attributes only.
//
// Privacy rules attached with WithPolicy leave denied attributes out of the
// plan and record their paths in Plan.Denied.
//
// # Caching
//
// A Planner caches encoded plans in an entitygraph.Cache:
//
//	p := fetchplan.NewPlanner(model, fetchplan.WithTTL(time.Hour))
//	plan, err := p.Plan(ctx, graph)
package fetchplan
