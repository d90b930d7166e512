package bubbletea

import (
	rw "github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

const ellipsis = "…"

// Truncate trims s to at most width display cells, appending an
// ellipsis when anything was cut. It walks grapheme clusters so
// combining characters and wide runes are never split mid-cluster.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if uniseg.StringWidth(s) <= width {
		return s
	}
	budget := width - rw.StringWidth(ellipsis)
	if budget < 0 {
		budget = 0
	}
	var out []byte
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if used+w > budget {
			break
		}
		out = append(out, g.Bytes()...)
		used += w
	}
	return string(out) + ellipsis
}
