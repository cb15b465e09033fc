package app

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/km-arc/go-rapla/framework/container"
)

// ExportMenuExtension is an entry of the export menu. Plugins contribute
// implementations under their export id.
type ExportMenuExtension interface {
	ID() string
	Label() string
	Export(w io.Writer, reservations []Reservation) error
}

// ── iCalendar ────────────────────────────────────────────────────────────────

// ICalExport writes reservations as an iCalendar feed.
type ICalExport struct {
	res    Resources
	prodID string
}

// NewICalExport reads "prodid" from its configuration.
func NewICalExport(res Resources, cfg container.Configuration) *ICalExport {
	return &ICalExport{res: res, prodID: cfg.String("prodid", "-//Rapla//Rapla Calendar//EN")}
}

func (e *ICalExport) ID() string    { return "ical" }
func (e *ICalExport) Label() string { return e.res.Format("export.ical") }

const icalStamp = "20060102T150405Z"

// icalText escapes a TEXT property value (RFC 5545 3.3.11).
var icalText = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`, "\r", `\n`)

func (e *ICalExport) Export(w io.Writer, reservations []Reservation) error {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\n")
	fmt.Fprintf(&b, "PRODID:%s\r\n", e.prodID)
	fmt.Fprintf(&b, "X-WR-TIMEZONE:%s\r\n", e.res.Location())
	for _, r := range reservations {
		b.WriteString("BEGIN:VEVENT\r\n")
		fmt.Fprintf(&b, "UID:%s\r\n", icalText.Replace(r.ID))
		fmt.Fprintf(&b, "SUMMARY:%s\r\n", icalText.Replace(r.Name))
		fmt.Fprintf(&b, "LOCATION:%s\r\n", icalText.Replace(r.Resource))
		fmt.Fprintf(&b, "DTSTART:%s\r\n", r.Start.UTC().Format(icalStamp))
		fmt.Fprintf(&b, "DTEND:%s\r\n", r.End.UTC().Format(icalStamp))
		b.WriteString("END:VEVENT\r\n")
	}
	b.WriteString("END:VCALENDAR\r\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// ── CSV ──────────────────────────────────────────────────────────────────────

// CSVExport writes one row per reservation.
type CSVExport struct {
	res       Resources
	separator rune
}

// NewCSVExport reads "separator" from its configuration; comma by default.
func NewCSVExport(res Resources, cfg container.Configuration) *CSVExport {
	sep := ','
	if s := cfg.String("separator", ""); s != "" {
		sep = []rune(s)[0]
	}
	return &CSVExport{res: res, separator: sep}
}

func (e *CSVExport) ID() string    { return "csv" }
func (e *CSVExport) Label() string { return e.res.Format("export.csv") }

func (e *CSVExport) Export(w io.Writer, reservations []Reservation) error {
	cw := csv.NewWriter(w)
	cw.Comma = e.separator
	loc := e.res.Location()
	if err := cw.Write([]string{"id", "name", "resource", "start", "end"}); err != nil {
		return err
	}
	for _, r := range reservations {
		row := []string{r.ID, r.Name, r.Resource, r.Start.In(loc).Format(time.RFC3339), r.End.In(loc).Format(time.RFC3339)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ── Menu ─────────────────────────────────────────────────────────────────────

// ExportMenu lists every export extension, in registration order.
type ExportMenu struct {
	res     Resources
	entries []ExportMenuExtension
}

func NewExportMenu(res Resources, entries []ExportMenuExtension) *ExportMenu {
	return &ExportMenu{res: res, entries: entries}
}

// Title is the menu caption.
func (m *ExportMenu) Title() string { return m.res.Format("menu.export") }

// Entries returns the extensions.
func (m *ExportMenu) Entries() []ExportMenuExtension {
	return append([]ExportMenuExtension(nil), m.entries...)
}
