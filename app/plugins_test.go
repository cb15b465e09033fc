package app_test

import (
	"bytes"
	"encoding/csv"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/go-rapla/app"
	"github.com/km-arc/go-rapla/framework/config"
	"github.com/km-arc/go-rapla/framework/container"
	"github.com/km-arc/go-rapla/framework/discovery"
	"github.com/km-arc/go-rapla/framework/providers"
)

func boot(t *testing.T, cfg *config.Config, contexts ...container.InjectionContext) (*container.Container, *discovery.Discoverer) {
	t.Helper()
	c := container.New(container.WithContexts(contexts...))
	return c, register(t, c, cfg)
}

func register(t *testing.T, c *container.Container, cfg *config.Config) *discovery.Discoverer {
	t.Helper()
	t.Cleanup(c.Dispose)

	d := discovery.New(app.Table(), []fs.FS{app.Manifests}, discovery.WithConfigurations(cfg.ComponentConfigs()))
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&providers.ConfigServiceProvider{Config: cfg}))
	require.NoError(t, reg.Register(d))
	require.NoError(t, reg.Boot())
	return d
}

func defaults() *config.Config {
	cfg := config.Defaults()
	return &cfg
}

func TestManifests_ListEveryTableInterface(t *testing.T) {
	modules, err := discovery.ReadModuleList(app.Manifests)
	require.NoError(t, err)

	table := app.Table()
	for _, name := range modules {
		_, ok := table.Interface(name)
		assert.True(t, ok, name)

		impls, err := discovery.ReadManifest(name, app.Manifests)
		require.NoError(t, err)
		require.NotEmpty(t, impls, name)
		for _, impl := range impls {
			_, ok := table.Implementation(impl)
			assert.True(t, ok, impl)
		}
	}
}

func TestDiscovery_ServerRegistersEverything(t *testing.T) {
	c, d := boot(t, defaults(), container.ContextServer)

	report := d.Report()
	assert.Zero(t, report.Warnings)
	assert.Empty(t, report.Skipped)

	assert.Equal(t, []string{"ical", "csv"}, c.Hints(container.RoleOf[app.ExportMenuExtension]()))
	assert.Equal(t, []string{app.ReservationsPath}, c.Hints(container.RoleOf[app.ReservationService]()))
	assert.True(t, c.IsRemote(container.RoleOf[app.ReservationService]()))

	res, err := container.Lookup[app.Resources](c)
	require.NoError(t, err)
	assert.Equal(t, "en_US", res.Locale())
	assert.Equal(t, "Europe/Berlin", res.Location().String())
	assert.Equal(t, "Export to CSV", res.Format("export.csv"))
}

func TestDiscovery_ClientHasNoReservationStore(t *testing.T) {
	c, _ := boot(t, defaults(), container.ContextClient)

	assert.False(t, c.HasRole(container.RoleOf[app.ReservationService]()))
	assert.Len(t, c.Hints(container.RoleOf[app.ExportMenuExtension]()), 2)

	model, err := container.Lookup[app.CalendarModel](c)
	require.NoError(t, err, "the service is resolved lazily")

	_, err = model.Reservations()
	assert.ErrorIs(t, err, container.ErrUnmetDependency)
}

func TestResources_GermanLocale(t *testing.T) {
	cfg := defaults()
	cfg.App.Locale = "de_DE"
	c, _ := boot(t, cfg)

	res, err := container.Lookup[app.Resources](c)
	require.NoError(t, err)
	assert.Equal(t, "Exportieren", res.Format("menu.export"))
	assert.Equal(t, "missing.key", res.Format("missing.key"))
}

func TestResources_UnknownLocaleFallsBack(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	res, err := app.NewRaplaResources(zap.New(core), "fr_FR", "UTC", "Rapla", defaults())
	require.NoError(t, err)
	assert.Equal(t, "Export", res.Format("menu.export"))
	assert.Equal(t, 1, logs.FilterMessage("no messages for locale, falling back to english").Len())
}

func TestResources_BadTimezoneFailsLookup(t *testing.T) {
	cfg := defaults()
	cfg.App.Timezone = "Mars/Olympus"
	c, _ := boot(t, cfg)

	_, err := container.Lookup[app.Resources](c)
	require.Error(t, err)
	assert.ErrorIs(t, err, container.ErrConstruction)
	assert.Contains(t, err.Error(), "Mars/Olympus")
}

func TestExportMenu_CollectsExtensionsInOrder(t *testing.T) {
	c, _ := boot(t, defaults())

	menu, err := container.Lookup[*app.ExportMenu](c)
	require.NoError(t, err)
	assert.Equal(t, "Export", menu.Title())

	var ids []string
	for _, e := range menu.Entries() {
		ids = append(ids, e.ID())
	}
	assert.Equal(t, []string{"ical", "csv"}, ids)
}

func TestTableView_RenderAndExport(t *testing.T) {
	cfg := defaults()
	cfg.App.Timezone = "UTC"
	cfg.Components = map[string]map[string]any{
		"csv": {"separator": ";"},
	}
	c, _ := boot(t, cfg, container.ContextServer)

	view, err := container.Inject[*app.ReservationTableView](c)
	require.NoError(t, err)
	assert.Equal(t, []string{"csv", "ical"}, view.Exports())

	var table bytes.Buffer
	require.NoError(t, view.Render(&table))
	assert.Contains(t, table.String(), "Rapla: 3 reservations")
	assert.Contains(t, table.String(), "Team meeting")

	var out bytes.Buffer
	require.NoError(t, view.Export(&out, "csv"))
	r := csv.NewReader(&out)
	r.Comma = ';'
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"r1", "Team meeting", "Room 101", "2024-03-04T09:00:00Z", "2024-03-04T10:00:00Z"}, rows[1])

	assert.Error(t, view.Export(&out, "pdf"))
}

func TestCalendarModel_Select(t *testing.T) {
	c, _ := boot(t, defaults(), container.ContextServer)

	model, err := container.Lookup[app.CalendarModel](c)
	require.NoError(t, err)
	rapla, ok := model.(*app.RaplaCalendarModel)
	require.True(t, ok)

	monday := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	rapla.Select(monday, monday.Add(24*time.Hour))
	got, err := model.Reservations()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)
}

func TestICalExport(t *testing.T) {
	res, err := app.NewRaplaResources(zap.NewNop(), "en_US", "UTC", "Rapla", defaults())
	require.NoError(t, err)
	export := app.NewICalExport(res, container.Configuration{"prodid": "-//Test//EN"})

	store := app.NewReservationStore(zap.NewNop())
	reservations, err := store.Reservations(time.Time{}, time.Time{})
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, export.Export(&out, reservations))
	ical := out.String()
	assert.True(t, strings.HasPrefix(ical, "BEGIN:VCALENDAR\r\n"))
	assert.Contains(t, ical, "PRODID:-//Test//EN\r\n")
	assert.Contains(t, ical, "DTSTART:20240304T090000Z\r\n")
	assert.Equal(t, 3, strings.Count(ical, "BEGIN:VEVENT"))
	assert.Equal(t, "Export to iCalendar", export.Label())
}

func TestReservationStore_DisposeLogs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	store := app.NewReservationStore(zap.New(core))
	store.Add(app.Reservation{ID: "r4"})
	require.NoError(t, store.Dispose())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(4), logs.All()[0].ContextMap()["reservations"])
}

func TestReservationStore_SharedAndDisposedByContainer(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c := container.New(container.WithLogger(zap.New(core)), container.WithContexts(container.ContextServer))
	register(t, c, defaults())

	first, err := container.Lookup[app.ReservationService](c)
	require.NoError(t, err)
	first.(*app.ReservationStore).Add(app.Reservation{ID: "r4", Name: "Review"})

	second, err := container.Lookup[app.ReservationService](c)
	require.NoError(t, err)
	assert.Same(t, first, second)
	all, err := second.Reservations(time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	c.Dispose()
	closed := logs.FilterMessage("reservation store closed")
	require.Equal(t, 1, closed.Len())
	assert.Equal(t, int64(4), closed.All()[0].ContextMap()["reservations"])
}

func TestICalExport_EscapesText(t *testing.T) {
	res, err := app.NewRaplaResources(zap.NewNop(), "en_US", "UTC", "Rapla", defaults())
	require.NoError(t, err)
	export := app.NewICalExport(res, nil)

	monday := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	var out strings.Builder
	require.NoError(t, export.Export(&out, []app.Reservation{{
		ID:       "r9",
		Name:     "Review; part 1,\nfollow-up",
		Resource: `Room\101`,
		Start:    monday,
		End:      monday.Add(time.Hour),
	}}))
	ical := out.String()
	assert.Contains(t, ical, "SUMMARY:Review\\; part 1\\,\\nfollow-up\r\n")
	assert.Contains(t, ical, "LOCATION:Room\\\\101\r\n")
	assert.Equal(t, strings.Count(ical, "\n"), strings.Count(ical, "\r\n"))
}
