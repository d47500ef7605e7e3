// Package scoring turns raw asset fields into thermal, redevelopment and
// overall scores and a rating.
//
// Every function is pure and safe for concurrent use. Missing values are
// carried by Score and propagate into every derived value that needs them,
// with one exception: a missing thermal optimization score counts as 0.
package scoring
