// Package mycel is the composition root of the connectivity engine.
//
// A content root holds four directories of JSON-LD records: concepts,
// predicates, topics and resources. Topics are the entry points of the
// knowledge graph. The engine proves which records can be reached from a
// topic, proposes relations that reconnect the ones that cannot, and later
// promotes those placeholder relations into named, human-readable ones.
//
// Features:
//
//   - **Check**: loads the corpus, builds the graph and runs a bounded
//     fixed-point propagation to list every orphan.
//   - **Fix**: scores candidate topics for each orphan and emits a batch of
//     artifacts that can be reviewed, rendered to a directory or applied.
//   - **Promote**: rewrites auto-generated relations using a verb vocabulary
//     and moves topic references to the new ids.
//   - **Default Adapter (FS + Git)**: atomic file writes, a writer lock and
//     optional conventional commits.
//
// Usage:
//
//	svc, err := mycel.New("./kb",
//		mycel.WithLogger(logger),
//	)
//
//	report, err := svc.Check(ctx)
//	if !report.Connected() {
//		fixed, err := svc.Fix(ctx, mycel.FixOptions{})
//	}
package mycel
