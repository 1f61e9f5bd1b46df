package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/mycel/pkg/core"
	"github.com/aretw0/mycel/pkg/engine"
	"github.com/aretw0/mycel/pkg/graph"
)

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// printWarnings lists every warning with --verbose and only their count otherwise.
func printWarnings(w io.Writer, lists ...[]core.Warning) {
	var all []core.Warning
	for _, l := range lists {
		all = append(all, l...)
	}
	if len(all) == 0 {
		return
	}
	if !verbose {
		fmt.Fprintf(w, "%d warning(s), run with --verbose to list them\n", len(all))
		return
	}
	for _, warn := range all {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

func printOrphans(w io.Writer, orphans []graph.Orphan) {
	if len(orphans) == 0 {
		return
	}
	fmt.Fprintf(w, "Orphans (%d):\n", len(orphans))
	for _, o := range orphans {
		fmt.Fprintf(w, "  %-9s %s  %s\n", o.Kind, o.ID, o.DisplayName)
	}
}

func printSummary(w io.Writer, s engine.Summary) {
	fmt.Fprintf(w, "total: %d  connected: %d  disconnected: %d  fixed: %d  skipped: %d\n",
		s.Total, s.Connected, s.Disconnected, s.Fixed, s.Skipped)
}
