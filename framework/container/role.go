package container

import (
	"reflect"
	"strings"
)

// AnyHint addresses the default handler of a role.
const AnyHint = "*"

// hintSeparator splits "role/hint" addresses. Role names never contain it.
const hintSeparator = "/"

// TypeKey returns the role name of a Go type: the package path with "/"
// replaced by ".", a dot, and the type name. One pointer level is stripped.
//
//	container.TypeKey(reflect.TypeOf(&app.ICalExport{}))
//	// "github.com.km-arc.go-rapla.app.ICalExport"
func TypeKey(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		return t.String()
	}
	pkg := t.PkgPath()
	if pkg == "" {
		return name
	}
	return strings.ReplaceAll(pkg, "/", ".") + "." + name
}

// RoleOf returns the role name for T.
//
//	role := container.RoleOf[app.ExportMenuExtension]()
func RoleOf[T any]() string {
	return TypeKey(reflect.TypeFor[T]())
}

// JoinHint builds a "role/hint" address.
func JoinHint(role, hint string) string {
	if hint == "" {
		return role
	}
	return role + hintSeparator + hint
}

// SplitRole splits a "role/hint" address at the first separator.
func SplitRole(address string) (role, hint string) {
	if i := strings.Index(address, hintSeparator); i > 0 {
		return address[:i], address[i+1:]
	}
	return address, ""
}
