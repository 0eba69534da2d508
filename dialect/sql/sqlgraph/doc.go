// Package sqlgraph loads entity graphs from SQL databases by executing
// compiled fetch plans.
//
// A load reads the requested roots with one query, then each step of the
// plan with batched IN queries keyed by the parent identifiers. Steps of
// the same level run concurrently, so the number of round trips grows with
// the depth of the graph and not with the number of loaded entities:
//
//	plan, err := planner.Plan(ctx, graph)
//	if err != nil {
//		return err
//	}
//	nodes, err := sqlgraph.Load(ctx, drv, plan, 1, 2, 3)
//
// Loaded rows are returned as Node trees. Identifiers and foreign keys are
// normalized with NormalizeKey, so integer keys read by different drivers
// and UUIDs stored as text or bytes compare equal.
package sqlgraph
