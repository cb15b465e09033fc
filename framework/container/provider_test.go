package container_test

import (
	"errors"
	"testing"

	"github.com/km-arc/go-rapla/framework/container"
)

// ── stub providers ────────────────────────────────────────────────────────────

type eagerProvider struct {
	container.BaseProvider
	registerCalled int
	bootCalled     bool
}

func (p *eagerProvider) Register(c *container.Container) error {
	p.registerCalled++
	c.RegisterInstance("eager-svc", "eager")
	return nil
}

func (p *eagerProvider) Boot(c *container.Container) error {
	p.bootCalled = true
	return nil
}

// lookupProvider looks up in Boot what another provider registered.
type lookupProvider struct {
	container.BaseProvider
	seen any
}

func (p *lookupProvider) Register(c *container.Container) error { return nil }

func (p *lookupProvider) Boot(c *container.Container) error {
	v, err := c.Lookup("eager-svc")
	p.seen = v
	return err
}

type failingProvider struct {
	container.BaseProvider
	err error
}

func (p *failingProvider) Register(c *container.Container) error { return p.err }

// multiProvider registers multiple roles.
type multiProvider struct {
	container.BaseProvider
}

func (p *multiProvider) Register(c *container.Container) error {
	c.RegisterInstance("alpha", "α")
	c.RegisterInstance("beta", "β")
	return nil
}

// ── ProviderRegistry ──────────────────────────────────────────────────────────

func TestRegistry_EagerProvider_RegisterCalled(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())

	p := &eagerProvider{}
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if p.registerCalled != 1 {
		t.Error("Register() should be called immediately")
	}
}

func TestRegistry_EagerProvider_BootCalledAfterBoot(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())

	p := &eagerProvider{}
	_ = reg.Register(p)

	if p.bootCalled {
		t.Error("Boot() should NOT be called before registry.Boot()")
	}

	if err := reg.Boot(); err != nil {
		t.Fatalf("Boot: %v", err)
	}

	if !p.bootCalled {
		t.Error("Boot() should be called after registry.Boot()")
	}
}

func TestRegistry_BootSeesAllRegistrations(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())

	lookup := &lookupProvider{}
	_ = reg.Register(lookup) // registered first, boots after eager registered
	_ = reg.Register(&eagerProvider{})

	if err := reg.Boot(); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if lookup.seen != "eager" {
		t.Errorf("seen: got %v, want 'eager'", lookup.seen)
	}
}

func TestRegistry_Boot_IdempotentCallsAreIgnored(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())
	_ = reg.Register(&eagerProvider{})

	_ = reg.Boot()
	_ = reg.Boot() // second call should be no-op

	if !reg.Booted() {
		t.Error("Booted() should be true after Boot()")
	}
}

func TestRegistry_Booted_FalseBeforeBoot(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())
	if reg.Booted() {
		t.Error("Booted() should be false before Boot()")
	}
}

func TestRegistry_DuplicateRegister_Ignored(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())

	p := &eagerProvider{}
	_ = reg.Register(p)
	_ = reg.Register(p) // second register of same instance

	if p.registerCalled != 1 {
		t.Errorf("registerCalled: got %d, want 1", p.registerCalled)
	}
	if len(reg.Providers()) != 1 {
		t.Errorf("Providers(): got %d, want 1", len(reg.Providers()))
	}
}

func TestRegistry_RegisterError_Wrapped(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())
	cause := errors.New("manifest unreadable")

	err := reg.Register(&failingProvider{err: cause})
	if !errors.Is(err, cause) {
		t.Fatalf("Register error: got %v, want wrapping %v", err, cause)
	}
	if len(reg.Providers()) != 0 {
		t.Error("failed provider should not be listed")
	}
}

func TestRegistry_BootError_Stops(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	lookup := &lookupProvider{} // nothing registers eager-svc
	_ = reg.Register(lookup)

	err := reg.Boot()
	if !errors.Is(err, container.ErrUnmetDependency) {
		t.Fatalf("Boot error: got %v, want unmet dependency", err)
	}
}

// ── Multiple providers ────────────────────────────────────────────────────────

func TestRegistry_MultipleProviders_AllServicesResolvable(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	_ = reg.Register(&multiProvider{})
	_ = reg.Register(&eagerProvider{})
	_ = reg.Boot()

	for role, want := range map[string]string{"alpha": "α", "beta": "β", "eager-svc": "eager"} {
		got, err := c.Lookup(role)
		if err != nil {
			t.Fatalf("%s: %v", role, err)
		}
		if got != want {
			t.Errorf("%s: got %v, want %q", role, got, want)
		}
	}
}

// ── BaseProvider defaults ─────────────────────────────────────────────────────

func TestBaseProvider_Defaults(t *testing.T) {
	var p container.BaseProvider
	if err := p.Boot(container.New()); err != nil {
		t.Errorf("BaseProvider.Boot() = %v, want nil", err)
	}
}

// ── Boot after registration (late provider) ───────────────────────────────────

func TestRegistry_RegisterAfterBoot_BootsImmediately(t *testing.T) {
	reg := container.NewProviderRegistry(container.New())
	_ = reg.Boot() // boot before registering

	p := &eagerProvider{}
	_ = reg.Register(p) // register after boot

	if !p.bootCalled {
		t.Error("provider registered after Boot() should be booted immediately")
	}
}
