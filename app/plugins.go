// Package app is the bundled plugin set: the resource bundle, a remote
// reservation service, a calendar model and its table view, and iCalendar and
// CSV exports. Its discovery manifests are embedded in Manifests.
package app

import (
	"embed"

	"github.com/km-arc/go-rapla/framework/container"
	"github.com/km-arc/go-rapla/framework/discovery"
	"github.com/km-arc/go-rapla/framework/providers"
)

// Manifests holds META-INF/rapla/modules and META-INF/services/*.
//
//go:embed META-INF
var Manifests embed.FS

// ReservationsPath is the hint the reservation service is served under.
const ReservationsPath = "reservations"

// Table returns the static registration table of the bundled plugins.
func Table() *discovery.Table {
	client := []container.InjectionContext{container.ContextClient, container.ContextSwing, container.ContextGWT}

	return discovery.NewTable().
		AddInterface(
			discovery.Interface{Name: container.RoleOf[Resources]()},
			discovery.Interface{Name: container.RoleOf[CalendarModel]()},
			discovery.Interface{Name: container.RoleOf[ExportMenu]()},
			discovery.Interface{
				Name:           container.RoleOf[ExportMenuExtension](),
				ExtensionPoint: true,
				Contexts:       append([]container.InjectionContext{container.ContextServer}, client...),
			},
			discovery.Interface{
				Name:   container.RoleOf[ReservationService](),
				Remote: &discovery.RemoteMethod{Path: ReservationsPath},
			},
		).
		AddImplementation(
			container.MustComponent(
				container.Injectable(NewRaplaResources,
					container.Named(1, providers.LocaleID),
					container.Named(2, providers.TimezoneID),
					container.Named(3, providers.TitleID)),
				container.AsSingleton(),
				container.DefaultImplementationOf(container.RoleOf[Resources]()),
			),
			container.MustComponent(
				container.Injectable(NewReservationStore),
				container.AsSingleton(),
				container.DefaultImplementationOf(container.RoleOf[ReservationService](), container.ContextServer),
			),
			container.MustComponent(
				container.Injectable(NewCalendarModel),
				container.DefaultImplementationOf(container.RoleOf[CalendarModel]()),
			),
			container.MustComponent(
				container.Injectable(NewExportMenu),
				container.AsSingleton(),
				container.DefaultImplementationOf(container.RoleOf[ExportMenu]()),
			),
			container.MustComponent(
				container.Injectable(NewICalExport),
				container.AsSingleton(),
				container.ExtensionOf(container.RoleOf[ExportMenuExtension](), "ical"),
			),
			container.MustComponent(
				container.Injectable(NewCSVExport),
				container.AsSingleton(),
				container.ExtensionOf(container.RoleOf[ExportMenuExtension](), "csv"),
			),
			container.MustComponent(container.Injectable(NewReservationTableView)),
		)
}
