// Package http exposes a running container over HTTP.
//
// # Response
//
// Response wraps http.ResponseWriter with JSON envelope helpers:
//
//	res := gohttp.NewResponse(w)
//	res.Success(roles)                       // 200 {"data": roles}
//	res.NotFound("role has no handler")      // 404 {"message": "..."}
//
// # Inspector
//
// Inspector mounts read-only introspection routes on a routing.Router:
//
//	inspector := gohttp.NewInspector(c, log)
//	inspector.Routes(router)
//
//	// GET /roles
//	// GET /roles/{role}
//	// GET /roles/{role}/instance?hint=ical
package http
