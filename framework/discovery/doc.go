// Package discovery populates a container from manifest files.
//
// Two manifests drive it. The module list at ModuleList names every
// discoverable interface, one role per line. For each of those roles,
// ServicesDir/<role> lists the names of its implementations. Manifests are
// read from any number of fs.FS sources (embedded files, os.DirFS) and merged.
//
// Names are resolved against a static Table instead of being loaded by name at
// run time:
//
//	table := discovery.NewTable().
//	    AddInterface(discovery.Interface{Name: container.RoleOf[app.ExportMenuExtension](), ExtensionPoint: true}).
//	    AddImplementation(icalComponent, csvComponent)
//
//	d := discovery.New(table, []fs.FS{app.Manifests}, discovery.WithLogger(log))
//	err := d.Discover(c)
package discovery
