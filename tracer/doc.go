// Package tracer is the in-process tracing core of the agent.
//
// A Unit is either a transaction (one handled request or task) or a span
// nested inside one; Kind tells them apart. Framework adapters start a
// transaction, fill its TransactionContext, name it through the priority
// arbiter and end it:
//
//	tx := t.StartTransaction(ctx)
//	ctx, release := t.Activate(ctx, tx)
//	defer release()
//
//	tx.Context().Request().WithMethod(r.Method).WithPathname(r.URL.Path)
//	tx.WithName("GET /users/{id}", tracer.PriorityHighLevelFramework)
//	tx.Context().Response().WithStatusCode(200)
//	tx.End() // result "HTTP 2xx"
//
// # Execution paths
//
// Which unit is current is tracked per execution path. A path token travels
// in context.Context and selects a stack in the tracer's registry; Activate
// pushes, the returned release func pops, and Current reads the top.
// Activating the unit that is already on top nests instead of pushing twice.
// Deactivating a unit that is not on top removes its most recent entry and
// logs a warning; nothing is ever raised. Code that only has a context can
// reach the process-wide tracer registered with Install.
//
// # Naming
//
// AcquireName grants an owned NameBuffer when the requested Priority is at
// least the priority of the current name, or when forced. The name changes
// only on Commit, which re-checks the priority under the unit lock.
//
// # Finalization
//
// End is effective exactly once. It never panics into the caller: internal
// failures are recovered and logged, and the unit still counts as ended.
// Ended, non-ignored units are handed to every Reporter as an Event snapshot.
package tracer
