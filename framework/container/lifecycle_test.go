package container_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-rapla/framework/container"
)

type resource struct {
	mu       sync.Mutex
	disposed int
	err      error
}

func (r *resource) Dispose() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disposed++
	return r.err
}

func (r *resource) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposed
}

type file struct{ closed int }

func (f *file) Close() error {
	f.closed++
	return nil
}

type exploding struct{}

func (exploding) Dispose() error { panic("disposal failed") }

func TestDispose_TwiceDisposesOnce(t *testing.T) {
	c, logs := newObserved(t)
	res := &resource{}
	c.RegisterInstance("resource", res)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Dispose()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, res.count())
	assert.True(t, c.Disposed())
	assert.Equal(t, 3, logs.FilterMessage("container already disposed").Len())
}

func TestDispose_BuiltSingletonsAndClosers(t *testing.T) {
	c := container.New()
	res := &resource{}
	f := &file{}
	c.Register("resource", container.MustComponent(container.Injectable(func() *resource { return res }), container.AsSingleton()))
	c.Register("file", container.MustComponent(container.Injectable(func() *file { return f }), container.AsSingleton()))
	c.Register("unused", container.MustComponent(container.Injectable(func() *resource {
		t.Fatal("unbuilt singleton must not be built on dispose")
		return nil
	}), container.AsSingleton(), container.WithName("unused")))

	_, err := c.Lookup("resource")
	require.NoError(t, err)
	_, err = c.Lookup("file")
	require.NoError(t, err)

	c.Dispose()

	assert.Equal(t, 1, res.count())
	assert.Equal(t, 1, f.closed)
	assert.Empty(t, c.Roles())
}

func TestDispose_SameInstanceUnderSeveralRoles(t *testing.T) {
	c := container.New()
	res := &resource{}
	c.RegisterInstance("a", res)
	c.RegisterInstance("b", res)

	c.Dispose()

	assert.Equal(t, 1, res.count())
}

func TestDispose_DependencyOnlySingleton(t *testing.T) {
	c := container.New()
	res := &resource{}
	c.Define(container.MustComponent(container.Injectable(func() *resource { return res }), container.AsSingleton()))
	comp := container.MustComponent(container.Injectable(func(r *resource) *holder { return &holder{} }))

	_, err := c.InjectComponent(comp)
	require.NoError(t, err)

	c.Dispose()
	assert.Equal(t, 1, res.count())
}

func TestDispose_FailuresAreLoggedAndSkipped(t *testing.T) {
	c, logs := newObserved(t)
	failing := &resource{err: errors.New("disk gone")}
	after := &resource{}
	c.RegisterInstance("failing", failing)
	c.RegisterInstance("exploding", exploding{})
	c.RegisterInstance("after", after)

	require.NotPanics(t, c.Dispose)

	assert.Equal(t, 1, after.count())
	assert.Equal(t, 1, logs.FilterMessage("error disposing component").Len())
	assert.Equal(t, 1, logs.FilterMessage("panic while disposing component").Len())
}

func TestDispose_ClearsRegistry(t *testing.T) {
	c := container.New()
	c.Register(greeterRole, container.MustComponent(container.Injectable(newEnglish)))

	c.Dispose()

	assert.False(t, c.HasRole(greeterRole))
	_, ok := c.Component(container.RoleOf[english]())
	assert.False(t, ok)
	_, err := c.Lookup(greeterRole)
	assert.ErrorIs(t, err, container.ErrUnmetDependency)
}
