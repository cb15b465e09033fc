package container

import "go.uber.org/zap"

// RemoteServiceCaller produces client proxies for roles served by another
// process.
type RemoteServiceCaller interface {
	RemoteMethod(role string) (any, error)
}

// MarkRemote flags role as served remotely. Lookups of a remote role go to
// the configured RemoteServiceCaller and bypass the registry; without a
// caller the flag has no effect.
func (c *Container) MarkRemote(role string) {
	c.mu.Lock()
	c.remoteRoles[role] = true
	c.mu.Unlock()
	if c.remote == nil {
		c.log.Debug("remote role without a remote service caller", zap.String("role", role))
	}
}

// IsRemote reports whether role was marked remote.
func (c *Container) IsRemote(role string) bool { return c.isRemote(role) }

func (c *Container) isRemote(role string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.remoteRoles[role]
}
