package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mittwald/mittcheck/pkg/value"
)

func checkStatusLine(name string, snap value.Snapshot) string {
	if paths := snap.ErrorPaths(); len(paths) > 0 {
		return lipgloss.JoinHorizontal(lipgloss.Left,
			styleFailed.Render("◼︎"), " ",
			styleHighlight.Render(name), " (",
			styleFailed.Render("failing"), "; at=",
			styleHighlight.Render(strings.Join(displayPaths(paths), ",")), ")",
		)
	}
	if snap.Len() == 0 {
		return lipgloss.JoinHorizontal(lipgloss.Left,
			stylePending.Render("◼︎"), " ",
			styleHighlight.Render(name), " (",
			stylePending.Render("no data"), ")",
		)
	}
	return lipgloss.JoinHorizontal(lipgloss.Left,
		styleOK.Render("▶︎"), " ",
		styleHighlight.Render(name), " (",
		styleOK.Render("ok"), "; keys=",
		styleHighlight.Render(fmt.Sprintf("%d", snap.Len())), ")",
	)
}

// snapshotLines renders one line per key, nested maps indented below their
// parent key.
func snapshotLines(snap value.Snapshot, indent int) []string {
	keys := snap.Keys()

	var lines []string
	pad := strings.Repeat("  ", indent)
	for _, k := range keys {
		v, _ := snap.Get(k)
		key := styleSnapshotKey.Render(pad + k + ":")

		if v.Kind() == value.KindMap {
			nested, _ := value.SnapshotFromValue(v)
			lines = append(lines, key)
			lines = append(lines, snapshotLines(nested, indent+1)...)
			continue
		}

		rendered := styleHighlight.Render(v.String())
		if k == value.ErrorKey {
			rendered = styleFailed.Render(v.String())
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left, key, rendered))
	}

	if len(lines) == 0 {
		lines = append(lines, styleNotSet.Render(pad+"<empty>"))
	}
	return lines
}

func displayPaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if p == "" {
			p = "."
		}
		out[i] = p
	}
	return out
}
