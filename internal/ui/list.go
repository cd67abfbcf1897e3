package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spx/internal/aggregate"
)

var _ list.Item = playlistItem{}

// playlistItem wraps a projected playlist row to implement [list.Item].
type playlistItem struct {
	row  aggregate.Row
	mine bool
}

func (i playlistItem) ID() string          { return i.row.String("id") }
func (i playlistItem) FilterValue() string { return i.row.String("name") }
func (i playlistItem) Title() string       { return i.row.String("name") }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.row.Int("total"))
	if !i.mine {
		desc = fmt.Sprintf("%s • by %s", desc, i.row.String("owner"))
	}
	return desc
}

// playlistItems converts rows to list items, skipping the playlist with id exclude.
func playlistItems(rows []aggregate.Row, owner, exclude string) []list.Item {
	items := make([]list.Item, 0, len(rows))
	for _, row := range rows {
		if exclude != "" && row.String("id") == exclude {
			continue
		}
		items = append(items, playlistItem{row: row, mine: row.String("owner") == owner})
	}
	return items
}
