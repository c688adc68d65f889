// Package cost computes a numeric cost for a GraphQL operation under three
// evaluation regimes, feeding an admission-control layer that rejects or
// throttles operations before they consume disproportionate backend
// resources.
//
// # Regimes
//
//   - Static estimate: a pre-execution upper bound derived from the parsed
//     query and the schema's cost annotations alone (Calculator.Estimated).
//   - Plan-based estimate: derived from a federated execution plan by scoring
//     each fetch leaf against its subgraph's schema (Calculator.Planned).
//   - Actual cost: derived post-execution by walking the response value tree
//     in lock-step with the query (Calculator.Actual).
//
// # Scoring rules
//
// A field charges instance_count x type_cost + arguments_cost +
// requirements_cost. The instance count of a list field comes from an
// upstream @listSize sizedFields resolution, the field's own @listSize
// directive, or the configured default, in that order. The type cost is the
// field's @cost weight, else 1.0 for composite return types and 0.0 for
// scalars and enums, plus the recursive cost of the field's selections.
// Arguments are priced recursively against their declared input types, and a
// federated field's @requires selection is charged as if it had been queried
// (static estimation only; plans have already materialized requirements as
// fetches).
//
// Static and plan-based estimation treat any unresolvable schema reference
// as a hard error: admission control must not mistake an unscoreable query
// for a cheap one. Actual-cost computation is advisory, so it logs and skips
// instead.
//
// All scoring is synchronous and purely functional over immutable inputs;
// calculators and schemas may be shared freely across goroutines.
package cost
