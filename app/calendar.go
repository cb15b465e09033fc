package app

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-rapla/framework/container"
)

// CalendarModel is the selection a view renders.
type CalendarModel interface {
	Title() string
	Reservations() ([]Reservation, error)
}

// RaplaCalendarModel selects every reservation of the service. The service is
// looked up on first use.
type RaplaCalendarModel struct {
	res      Resources
	service  container.Lazy[ReservationService]
	from, to time.Time
}

func NewCalendarModel(res Resources, service container.Lazy[ReservationService]) *RaplaCalendarModel {
	return &RaplaCalendarModel{res: res, service: service}
}

// Select restricts the model to [from, to).
func (m *RaplaCalendarModel) Select(from, to time.Time) { m.from, m.to = from, to }

func (m *RaplaCalendarModel) Title() string { return m.res.Title() }

func (m *RaplaCalendarModel) Reservations() ([]Reservation, error) {
	service, err := m.service.Get()
	if err != nil {
		return nil, err
	}
	return service.Reservations(m.from, m.to)
}

// ReservationTableView renders a calendar model as a table and offers its
// export extensions. It is not registered: callers build it with
// container.Inject.
type ReservationTableView struct {
	res     Resources
	model   CalendarModel
	exports map[string]ExportMenuExtension
	log     *zap.Logger
}

func NewReservationTableView(res Resources, model CalendarModel, exports map[string]ExportMenuExtension, log *zap.Logger) *ReservationTableView {
	return &ReservationTableView{res: res, model: model, exports: exports, log: log}
}

// Exports returns the ids of the available exports, sorted.
func (v *ReservationTableView) Exports() []string {
	ids := make([]string, 0, len(v.exports))
	for id := range v.exports {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Select narrows the model when it supports selection.
func (v *ReservationTableView) Select(from, to time.Time) {
	if m, ok := v.model.(interface{ Select(from, to time.Time) }); ok {
		m.Select(from, to)
	}
}

// Render writes the reservations as an aligned table.
func (v *ReservationTableView) Render(w io.Writer) error {
	reservations, err := v.model.Reservations()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, v.res.Format("table.header", v.model.Title(), len(reservations)))
	if len(reservations) == 0 {
		fmt.Fprintln(w, v.res.Format("table.empty"))
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	loc := v.res.Location()
	for _, r := range reservations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Resource, r.Start.In(loc).Format("Mon 02.01. 15:04"))
	}
	return tw.Flush()
}

// Export runs the export extension id over the model.
func (v *ReservationTableView) Export(w io.Writer, id string) error {
	export, ok := v.exports[id]
	if !ok {
		return fmt.Errorf("no export %q", id)
	}
	reservations, err := v.model.Reservations()
	if err != nil {
		return err
	}
	v.log.Debug("exporting reservations", zap.String("export", id), zap.Int("count", len(reservations)))
	return export.Export(w, reservations)
}
