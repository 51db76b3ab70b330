package plugin

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// testPlugin is a minimal module that records its lifecycle calls.
type testPlugin struct {
	name    string
	initErr error
	calls   *[]string
	cfg     *viper.Viper
	routes  []Route
}

func newTestPlugin(name string, calls *[]string) *testPlugin {
	return &testPlugin{name: name, calls: calls}
}

func (p *testPlugin) Name() string    { return p.name }
func (p *testPlugin) Version() string { return "1.0.0" }

func (p *testPlugin) Init(cfg *viper.Viper, _ *zap.Logger) error {
	p.cfg = cfg
	*p.calls = append(*p.calls, "init:"+p.name)
	return p.initErr
}

func (p *testPlugin) Start(_ context.Context) error {
	*p.calls = append(*p.calls, "start:"+p.name)
	return nil
}

func (p *testPlugin) Stop() error {
	*p.calls = append(*p.calls, "stop:"+p.name)
	return nil
}

func (p *testPlugin) Routes() []Route { return p.routes }

func enabledConfig(names ...string) *viper.Viper {
	v := viper.New()
	for _, n := range names {
		v.Set("plugins."+n+".enabled", true)
	}
	return v
}

func TestRegister(t *testing.T) {
	var calls []string
	reg := NewRegistry(zap.NewNop())

	p := newTestPlugin("alpha", &calls)
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Duplicate registration should fail.
	if err := reg.Register(p); err == nil {
		t.Fatal("Register() expected error for duplicate, got nil")
	}

	if got, ok := reg.Get("alpha"); !ok || got != p {
		t.Errorf("Get(alpha) = %v, %v", got, ok)
	}
}

func TestLifecycleOrder(t *testing.T) {
	var calls []string
	reg := NewRegistry(zap.NewNop())
	_ = reg.Register(newTestPlugin("a", &calls))
	_ = reg.Register(newTestPlugin("b", &calls))

	if err := reg.InitAll(enabledConfig("a", "b")); err != nil {
		t.Fatalf("InitAll() error = %v", err)
	}
	if err := reg.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll() error = %v", err)
	}
	reg.StopAll()

	want := []string{"init:a", "init:b", "start:a", "start:b", "stop:b", "stop:a"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestDisabledPluginSkipped(t *testing.T) {
	var calls []string
	reg := NewRegistry(zap.NewNop())
	a := newTestPlugin("a", &calls)
	a.routes = []Route{{Method: http.MethodGet, Path: "/a", Handler: func(http.ResponseWriter, *http.Request) {}}}
	_ = reg.Register(a)
	_ = reg.Register(newTestPlugin("b", &calls))

	if err := reg.InitAll(enabledConfig("b")); err != nil {
		t.Fatalf("InitAll() error = %v", err)
	}
	_ = reg.StartAll(context.Background())

	for _, c := range calls {
		if c == "init:a" || c == "start:a" {
			t.Errorf("disabled plugin received %q", c)
		}
	}
	if reg.Enabled("a") {
		t.Error("Enabled(a) = true, want false")
	}
	if _, ok := reg.AllRoutes()["a"]; ok {
		t.Error("AllRoutes() includes routes of disabled plugin")
	}
}

func TestInitAllPassesSubtree(t *testing.T) {
	var calls []string
	reg := NewRegistry(zap.NewNop())
	p := newTestPlugin("managed", &calls)
	_ = reg.Register(p)

	v := enabledConfig("managed")
	v.Set("plugins.managed.base_url", "http://store:3000")
	if err := reg.InitAll(v); err != nil {
		t.Fatalf("InitAll() error = %v", err)
	}
	if got := p.cfg.GetString("base_url"); got != "http://store:3000" {
		t.Errorf("base_url = %q, want %q", got, "http://store:3000")
	}
}

func TestInitAllError(t *testing.T) {
	var calls []string
	reg := NewRegistry(zap.NewNop())
	p := newTestPlugin("bad", &calls)
	p.initErr = errors.New("boom")
	_ = reg.Register(p)

	err := reg.InitAll(enabledConfig("bad"))
	if err == nil {
		t.Fatal("InitAll() expected error, got nil")
	}
	if !errors.Is(err, p.initErr) {
		t.Errorf("InitAll() error = %v, want wrapped boom", err)
	}
}

func TestAllPreservesOrder(t *testing.T) {
	var calls []string
	reg := NewRegistry(zap.NewNop())
	for _, n := range []string{"c", "a", "b"} {
		_ = reg.Register(newTestPlugin(n, &calls))
	}
	all := reg.All()
	for i, want := range []string{"c", "a", "b"} {
		if all[i].Name() != want {
			t.Errorf("All()[%d] = %q, want %q", i, all[i].Name(), want)
		}
	}
}
