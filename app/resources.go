package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-rapla/framework/config"
)

// Resources is the localisation bundle. The application refuses to start
// without it.
type Resources interface {
	Locale() string
	Location() *time.Location
	Title() string
	Version() string
	Format(key string, args ...any) string
}

var messages = map[string]map[string]string{
	"en": {
		"export.ical":   "Export to iCalendar",
		"export.csv":    "Export to CSV",
		"table.header":  "%s: %d reservations",
		"table.empty":   "no reservations",
		"menu.export":   "Export",
		"startup.ready": "%s %s ready",
	},
	"de": {
		"export.ical":   "Nach iCalendar exportieren",
		"export.csv":    "Nach CSV exportieren",
		"table.header":  "%s: %d Reservierungen",
		"table.empty":   "keine Reservierungen",
		"menu.export":   "Exportieren",
		"startup.ready": "%s %s bereit",
	},
}

// RaplaResources serves messages for the configured locale.
type RaplaResources struct {
	locale   string
	title    string
	version  string
	location *time.Location
	bundle   map[string]string
}

// NewRaplaResources loads the bundle for locale ("de_DE" uses "de") and the
// time zone. An unknown time zone fails construction.
func NewRaplaResources(log *zap.Logger, locale, timezone, title string, cfg *config.Config) (*RaplaResources, error) {
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("time zone %q: %w", timezone, err)
	}
	lang := locale
	if len(lang) > 2 {
		lang = lang[:2]
	}
	bundle, ok := messages[lang]
	if !ok {
		log.Warn("no messages for locale, falling back to english", zap.String("locale", locale))
		bundle = messages["en"]
	}
	return &RaplaResources{
		locale:   locale,
		title:    title,
		version:  cfg.App.Version,
		location: location,
		bundle:   bundle,
	}, nil
}

func (r *RaplaResources) Locale() string           { return r.locale }
func (r *RaplaResources) Location() *time.Location { return r.location }
func (r *RaplaResources) Title() string            { return r.title }
func (r *RaplaResources) Version() string          { return r.version }

// Format looks key up and applies args. Unknown keys come back unchanged.
func (r *RaplaResources) Format(key string, args ...any) string {
	msg, ok := r.bundle[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
