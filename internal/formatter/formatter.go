// package formatter renders listings as console tables and exports them to files (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/desertthunder/spx/internal/aggregate"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/olekukonko/tablewriter"
)

// Column maps a table header to a [aggregate.Row] key.
type Column struct {
	Header string
	Key    string
}

// Headers returns the header of every column.
func Headers(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}

// Record renders row as strings in column order.
func Record(row aggregate.Row, cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = row.String(c.Key)
	}
	return out
}

// TrackColumns are the columns of a playlist track listing.
var TrackColumns = []Column{
	{Header: "Artists", Key: "artists"},
	{Header: "Album", Key: "album"},
	{Header: "Track", Key: "name"},
	{Header: "Popularity", Key: "popularity"},
	{Header: "ID", Key: "id"},
	{Header: "Added", Key: "added_at"},
	{Header: "Href", Key: "href"},
}

// PlaylistColumns are the columns of a playlist listing.
var PlaylistColumns = []Column{
	{Header: "Owner", Key: "owner"},
	{Header: "ID", Key: "id"},
	{Header: "Tracks", Key: "total"},
	{Header: "Name", Key: "name"},
}

// ArtistColumns are the columns of a ranked artist listing.
var ArtistColumns = []Column{
	{Header: "#", Key: "rank"},
	{Header: "Artist", Key: "name"},
	{Header: "Genres", Key: "genres"},
}

// RankedTrackColumns are the columns of a ranked track listing.
var RankedTrackColumns = []Column{
	{Header: "#", Key: "rank"},
	{Header: "Track", Key: "name"},
	{Header: "Artists", Key: "artists"},
	{Header: "Album", Key: "album"},
	{Header: "ID", Key: "id"},
}

// ReleaseColumns are the columns of a new releases listing.
var ReleaseColumns = []Column{
	{Header: "Released", Key: "release_date"},
	{Header: "Type", Key: "album_type"},
	{Header: "Artists", Key: "artists"},
	{Header: "Album", Key: "name"},
	{Header: "ID", Key: "id"},
}

// WriteTable renders rows as an aligned console table.
func WriteTable(w io.Writer, rows []aggregate.Row, cols []Column) {
	records := make([][]string, len(rows))
	for i, row := range rows {
		records[i] = Record(row, cols)
	}
	WriteRecords(w, Headers(cols), records)
}

// WriteRecords renders pre-formatted records under headers.
func WriteRecords(w io.Writer, headers []string, records [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(records)
	table.Render()
}

// ToCSV converts rows to CSV with a header line.
func ToCSV(rows []aggregate.Row, cols []Column) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(Headers(cols)); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		if err := writer.Write(Record(row, cols)); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToMarkdown renders a track listing as a numbered Markdown list.
func ToMarkdown(listing *models.TrackListing) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", listing.PlaylistName)
	fmt.Fprintf(&buf, "**Playlist**: `%s`\n", listing.PlaylistID)
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", listing.Count)

	buf.WriteString("## Tracks\n\n")
	for i, row := range listing.Tracks {
		album := ""
		if a := row.String("album"); a != "" {
			album = fmt.Sprintf(" (%s)", a)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, row.String("artists"), row.String("name"), album, FormatDuration(row.Int("duration_ms")))
	}

	return buf.Bytes()
}

// ToText renders a track listing as plain text.
func ToText(listing *models.TrackListing) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", listing.PlaylistName)
	fmt.Fprintf(&buf, "Tracks: %d\n\n", listing.Count)

	for i, row := range listing.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, row.String("artists"), row.String("name"))
	}

	return buf.Bytes()
}

// FormatDuration formats milliseconds as m:ss.
func FormatDuration(ms int) string {
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// Export formats accepted by [WriteExport].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// WriteExport writes listing into dir in the given format and returns the files created.
//
// File names derive from the playlist ID:
//   - json: {id}.json
//   - csv: {id}_tracks.csv
//   - markdown: {id}/README.md
//   - txt: {id}_tracks.txt
func WriteExport(listing *models.TrackListing, format, dir string) ([]string, error) {
	base := filepath.Join(dir, listing.PlaylistID)

	var (
		path string
		data []byte
		err  error
	)

	switch format {
	case FormatCSV:
		path = base + "_tracks.csv"
		data, err = ToCSV(listing.Tracks, TrackColumns)
	case FormatMarkdown:
		if err := os.MkdirAll(base, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		path = filepath.Join(base, "README.md")
		data = ToMarkdown(listing)
	case FormatText:
		path = base + "_tracks.txt"
		data = ToText(listing)
	case FormatJSON, "":
		path = base + ".json"
		data, err = shared.MarshalJSON(listing, true)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s export: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return []string{path}, nil
}

// WriteManifest writes v as pretty JSON to path.
func WriteManifest(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
