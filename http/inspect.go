package http

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/km-arc/go-rapla/framework/container"
	"github.com/km-arc/go-rapla/framework/http/validation"
	"github.com/km-arc/go-rapla/routing"
)

// RoleInfo describes one role.
type RoleInfo struct {
	Role   string     `json:"role"`
	Remote bool       `json:"remote"`
	Hints  []HintInfo `json:"hints"`
}

// HintInfo describes one handler of a role.
type HintInfo struct {
	Hint      string `json:"hint"`
	Component string `json:"component"`
	Default   bool   `json:"default"`
}

// InstanceInfo describes a looked-up instance. Description is set only for
// instances implementing fmt.Stringer; their fields are never read directly.
type InstanceInfo struct {
	Role        string `json:"role"`
	Hint        string `json:"hint,omitempty"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Inspector serves a read-only view of a container.
type Inspector struct {
	c   *container.Container
	log *zap.Logger
}

// NewInspector creates an Inspector over c.
func NewInspector(c *container.Container, log *zap.Logger) *Inspector {
	return &Inspector{c: c, log: log}
}

// Routes mounts the introspection API:
//
//	GET /roles                         every role with its hints
//	GET /roles/{role}                  one role
//	GET /roles/{role}/instance?hint=h  look the role up and describe the result
func (in *Inspector) Routes(r *routing.Router) {
	r.Prefix("/roles", func(roles *routing.Router) {
		roles.Get("/", in.listRoles)
		roles.Get("/{role}", in.showRole)
		roles.Get("/{role}/instance", in.lookup)
	})
}

// Describe returns the info for role, or false when it has no handler.
func (in *Inspector) Describe(role string) (RoleInfo, bool) {
	hints := in.c.Hints(role)
	if len(hints) == 0 {
		return RoleInfo{}, false
	}
	info := RoleInfo{Role: role, Remote: in.c.IsRemote(role), Hints: make([]HintInfo, 0, len(hints))}
	for i, hint := range hints {
		component, ok := in.c.Describe(role, hint)
		if !ok {
			continue
		}
		info.Hints = append(info.Hints, HintInfo{Hint: hint, Component: component, Default: i == 0})
	}
	return info, true
}

func (in *Inspector) listRoles(w http.ResponseWriter, _ *http.Request) {
	roles := in.c.Roles()
	out := make([]RoleInfo, 0, len(roles))
	for _, role := range roles {
		if info, ok := in.Describe(role); ok {
			out = append(out, info)
		}
	}
	NewResponse(w).Success(out)
}

// addressRules guard every role address the API receives.
var addressRules = validation.Rules{
	"role": "required|role|max:512",
	"hint": "sometimes|hint|max:128",
}

func (in *Inspector) showRole(w http.ResponseWriter, r *http.Request) {
	req := NewRequest(r)
	if v := validation.Make(req.Input(), addressRules); v.Fails() {
		NewResponse(w).ValidationError(v.Errors())
		return
	}
	role := req.RouteParam("role")
	info, ok := in.Describe(role)
	if !ok {
		NewResponse(w).NotFound("role " + role + " has no implementation")
		return
	}
	NewResponse(w).Success(info)
}

func (in *Inspector) lookup(w http.ResponseWriter, r *http.Request) {
	req := NewRequest(r)
	res := NewResponse(w)
	if v := validation.Make(req.Input(), addressRules); v.Fails() {
		res.ValidationError(v.Errors())
		return
	}
	role := req.RouteParam("role")
	hint := req.Query("hint")

	v, err := in.c.LookupHint(role, hint)
	switch {
	case errors.Is(err, container.ErrUnmetDependency):
		res.NotFound(err.Error())
		return
	case err != nil:
		in.log.Error("introspection lookup failed",
			zap.String("role", role),
			zap.String("hint", hint),
			zap.Error(err))
		res.ServerError(err.Error())
		return
	}

	info := InstanceInfo{Role: role, Hint: hint, Type: fmt.Sprintf("%T", v)}
	if s, ok := v.(fmt.Stringer); ok {
		info.Description = s.String()
	}
	res.Success(info)
}
