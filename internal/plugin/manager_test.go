//*****************************************************************************
// Copyright 2024-2025 The SiteForge Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//*****************************************************************************

package plugin

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/siteforge/siteforge/internal/catalog"
	"github.com/siteforge/siteforge/internal/constants"
	"github.com/siteforge/siteforge/internal/container"
	"github.com/siteforge/siteforge/internal/datastore/sqlite"
	"github.com/siteforge/siteforge/internal/event"
	"github.com/siteforge/siteforge/internal/utils/bcode"
	"github.com/siteforge/siteforge/sdk"
)

// The entry points are registered once per process; each test swaps the
// factory behind them.
var (
	makeAlpha func() sdk.SitePlugin
	makeBase  func() sdk.SitePlugin
)

func init() {
	sdk.RegisterEntryPoint("manager.test.alpha", func() sdk.SitePlugin { return makeAlpha() })
	sdk.RegisterEntryPoint("manager.test.base", func() sdk.SitePlugin { return makeBase() })
}

type hookLog struct {
	loads       int
	activates   int
	deactivates int
	uninstalls  int
}

type pingHandler struct{}

func (pingHandler) ServeRoute(context.Context, *sdk.Request) (*sdk.Response, error) {
	return &sdk.Response{Status: 200, Body: []byte("pong")}, nil
}

type managerTestPlugin struct {
	sdk.BasePlugin

	log      *hookLog
	failStep string
}

func (p *managerTestPlugin) OnLoad(*sdk.HookContext) error {
	p.log.loads++
	if p.failStep == "onLoad" {
		return errors.New("onLoad refused")
	}
	return nil
}

func (p *managerTestPlugin) OnActivate(*sdk.HookContext) error {
	p.log.activates++
	if p.failStep == "onActivate" {
		return errors.New("onActivate refused")
	}
	return nil
}

func (p *managerTestPlugin) OnDeactivate(*sdk.HookContext) error {
	p.log.deactivates++
	return nil
}

func (p *managerTestPlugin) OnUninstall(*sdk.HookContext) error {
	p.log.uninstalls++
	return nil
}

func (p *managerTestPlugin) Components() ([]sdk.ComponentInfo, error) {
	return []sdk.ComponentInfo{
		{
			Name:   "PingHandler",
			Kind:   sdk.ComponentKindHandler,
			Routes: []sdk.RouteSpec{{Method: "GET", Path: "/ping"}},
		},
		{Name: "Note", Kind: sdk.ComponentKindEntity, Table: "alpha_note"},
	}, nil
}

func (p *managerTestPlugin) ComponentFactory(name string) (sdk.Factory, bool) {
	if name != "PingHandler" {
		return nil, false
	}
	return func(sdk.Deps) (interface{}, error) { return pingHandler{}, nil }, true
}

func (p *managerTestPlugin) UIComponents() ([]sdk.UIComponentSpec, error) {
	return []sdk.UIComponentSpec{
		{Name: "widget", Label: "Widget", AssetPath: "./assets/widget.js"},
	}, nil
}

type testEnv struct {
	mgr    *Manager
	ds     *sqlite.SQLite
	beans  *container.Container
	routes *container.RouteTable
	cat    *catalog.Catalog

	pluginDir string
	dataDir   string
	srcDir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tmp := t.TempDir()

	ds, err := sqlite.New(filepath.Join(tmp, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.Init(); err != nil {
		t.Fatal(err)
	}

	env := &testEnv{
		ds:        ds,
		beans:     container.NewContainer(),
		routes:    container.NewRouteTable(),
		cat:       catalog.New(),
		pluginDir: filepath.Join(tmp, "plugins"),
		dataDir:   filepath.Join(tmp, "plugin-data"),
		srcDir:    filepath.Join(tmp, "downloads"),
	}
	if err := os.MkdirAll(env.srcDir, 0o755); err != nil {
		t.Fatal(err)
	}
	env.mgr = NewManager(ManagerConfig{PluginDir: env.pluginDir, DataDir: env.dataDir},
		ds, env.beans, env.routes, env.cat, event.NewBus(), ds.GetDB())
	return env
}

// freshManager builds a second manager over the same datastore and plugin
// directory, simulating a process restart.
func (env *testEnv) freshManager() *Manager {
	env.beans = container.NewContainer()
	env.routes = container.NewRouteTable()
	env.cat = catalog.New()
	return NewManager(ManagerConfig{PluginDir: env.pluginDir, DataDir: env.dataDir},
		env.ds, env.beans, env.routes, env.cat, event.NewBus(), env.ds.GetDB())
}

func (env *testEnv) writeArchive(t *testing.T, name, manifest string) string {
	t.Helper()
	path := filepath.Join(env.srcDir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create(sdk.ManifestName)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(manifest)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func alphaManifest(version string) string {
	return fmt.Sprintf(`id: alpha
name: Alpha
version: %s
entry_point: manager.test.alpha
scan:
  components: PingHandler
  entities: Note
`, version)
}

const baseManifest = `id: base
name: Base
version: 1.0.0
entry_point: manager.test.base
`

func appManifest(constraint string) string {
	return fmt.Sprintf(`id: app
name: App
version: 1.0.0
entry_point: manager.test.base
dependencies:
  - "base: %s"
`, constraint)
}

func TestPluginLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	log := &hookLog{}
	makeAlpha = func() sdk.SitePlugin { return &managerTestPlugin{log: log} }

	archive := env.writeArchive(t, "alpha.sfp", alphaManifest("1.0.0"))

	record, err := env.mgr.Install(ctx, archive)
	if err != nil {
		t.Fatalf("install failed: %v", err)
	}
	if record.Status != constants.PluginStatusInstalled {
		t.Errorf("status after install %q", record.Status)
	}
	managed := filepath.Join(env.pluginDir, "alpha-1.0.0.sfp")
	if record.ArchivePath != managed {
		t.Errorf("archive path %q, want %q", record.ArchivePath, managed)
	}
	if _, err := os.Stat(managed); err != nil {
		t.Errorf("managed archive missing: %v", err)
	}

	if err := env.mgr.Activate(ctx, "alpha"); err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if log.loads != 1 || log.activates != 1 {
		t.Errorf("hook counts after activate: %+v", *log)
	}

	record, err = env.mgr.GetPlugin(ctx, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != constants.PluginStatusActivated {
		t.Errorf("status after activate %q", record.Status)
	}

	entry, ok := env.routes.Lookup("GET", "/alpha/ping")
	if !ok {
		t.Fatal("plugin route not in the table")
	}
	resp, err := entry.Handler.ServeRoute(ctx, &sdk.Request{Method: "GET", Path: "/alpha/ping"})
	if err != nil || resp.Status != 200 || string(resp.Body) != "pong" {
		t.Errorf("route served %+v, %v", resp, err)
	}

	specs := env.cat.ListPlugin("alpha")
	if len(specs) != 1 || specs[0].AssetPath != "assets/widget.js" {
		t.Errorf("catalog entries %+v, want normalized asset path", specs)
	}

	// Activating an already active plugin is a logged no-op.
	if err := env.mgr.Activate(ctx, "alpha"); err != nil {
		t.Errorf("re-activate returned %v", err)
	}
	if log.loads != 1 {
		t.Error("re-activate reloaded the plugin")
	}

	if err := env.mgr.Deactivate(ctx, "alpha"); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if log.deactivates != 1 {
		t.Errorf("deactivate hook ran %d times", log.deactivates)
	}
	if _, ok := env.routes.Lookup("GET", "/alpha/ping"); ok {
		t.Error("route survived deactivation")
	}
	if env.beans.Len() != 0 {
		t.Errorf("beans survived deactivation: %v", env.beans.Names())
	}

	// Deactivating twice is a no-op.
	if err := env.mgr.Deactivate(ctx, "alpha"); err != nil {
		t.Errorf("second deactivate returned %v", err)
	}
	if log.deactivates != 1 {
		t.Error("second deactivate ran the hook again")
	}

	if err := env.mgr.Uninstall(ctx, "alpha"); err != nil {
		t.Fatalf("uninstall failed: %v", err)
	}
	if _, err := env.mgr.GetPlugin(ctx, "alpha"); !errors.Is(err, bcode.ErrPluginNotFound) {
		t.Errorf("uninstalled plugin still resolvable: %v", err)
	}
	if _, err := os.Stat(managed); !os.IsNotExist(err) {
		t.Error("archive survived uninstall")
	}
	if _, err := os.Stat(filepath.Join(env.dataDir, "alpha")); !os.IsNotExist(err) {
		t.Error("data directory survived uninstall")
	}
}

func TestInstallRejectsInvalidArchives(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.mgr.Install(ctx, "/tmp/plugin.tar.gz"); !errors.Is(err, bcode.ErrPluginArchiveInvalid) {
		t.Errorf("bad extension: %v", err)
	}
	if _, err := env.mgr.Install(ctx, filepath.Join(env.srcDir, "missing.sfp")); !errors.Is(err, bcode.ErrPluginArchiveInvalid) {
		t.Errorf("missing file: %v", err)
	}

	selfDep := env.writeArchive(t, "selfdep.sfp", `id: selfdep
name: SelfDep
version: 1.0.0
entry_point: manager.test.base
dependencies: selfdep
`)
	if _, err := env.mgr.Install(ctx, selfDep); !errors.Is(err, bcode.ErrPluginManifestInvalid) {
		t.Errorf("self dependency: %v", err)
	}

	// Installing a plugin whose dependency was never installed is refused.
	app := env.writeArchive(t, "app.sfp", appManifest(">=1.0.0"))
	if _, err := env.mgr.Install(ctx, app); !errors.Is(err, bcode.ErrPluginDependencyMissing) {
		t.Errorf("unknown dependency: %v", err)
	}
}

func TestActivateGatesOnDependencies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	makeBase = func() sdk.SitePlugin { return &managerTestPlugin{log: &hookLog{}} }

	if _, err := env.mgr.Install(ctx, env.writeArchive(t, "base.sfp", baseManifest)); err != nil {
		t.Fatal(err)
	}
	if _, err := env.mgr.Install(ctx, env.writeArchive(t, "app.sfp", appManifest(">=1.0.0"))); err != nil {
		t.Fatal(err)
	}

	// base is installed but not active: activation is refused before any side
	// effect happens.
	err := env.mgr.Activate(ctx, "app")
	if !errors.Is(err, bcode.ErrPluginDependencyInactive) {
		t.Fatalf("activate with inactive dependency: %v", err)
	}
	if env.routes.Version() != 0 || env.beans.Len() != 0 {
		t.Error("failed gating left side effects behind")
	}
	record, err := env.mgr.GetPlugin(ctx, "app")
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != constants.PluginStatusInstalled {
		t.Errorf("gating flipped status to %q", record.Status)
	}

	// The gate never auto-activates the dependency.
	dep, err := env.mgr.GetPlugin(ctx, "base")
	if err != nil {
		t.Fatal(err)
	}
	if dep.Status != constants.PluginStatusInstalled {
		t.Errorf("dependency status %q", dep.Status)
	}

	if err := env.mgr.Activate(ctx, "base"); err != nil {
		t.Fatal(err)
	}
	if err := env.mgr.Activate(ctx, "app"); err != nil {
		t.Errorf("activate with active dependency failed: %v", err)
	}
}

func TestActivateChecksDependencyVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	makeBase = func() sdk.SitePlugin { return &managerTestPlugin{log: &hookLog{}} }

	if _, err := env.mgr.Install(ctx, env.writeArchive(t, "base.sfp", baseManifest)); err != nil {
		t.Fatal(err)
	}
	if err := env.mgr.Activate(ctx, "base"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.mgr.Install(ctx, env.writeArchive(t, "app.sfp", appManifest(">=2.0.0"))); err != nil {
		t.Fatal(err)
	}

	if err := env.mgr.Activate(ctx, "app"); !errors.Is(err, bcode.ErrPluginDependencyInactive) {
		t.Errorf("version mismatch accepted: %v", err)
	}
}

func TestActivateFailureRunsCompensatingCleanup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, step := range []string{"onLoad", "onActivate"} {
		log := &hookLog{}
		makeAlpha = func() sdk.SitePlugin { return &managerTestPlugin{log: log, failStep: step} }

		archive := env.writeArchive(t, "alpha.sfp", alphaManifest("1.0.0"))
		if _, err := env.mgr.Install(ctx, archive); err != nil {
			t.Fatal(err)
		}

		if err := env.mgr.Activate(ctx, "alpha"); !errors.Is(err, bcode.ErrPluginActivateFailed) {
			t.Fatalf("%s: activate returned %v", step, err)
		}

		if env.beans.Len() != 0 {
			t.Errorf("%s: beans left behind: %v", step, env.beans.Names())
		}
		if len(env.routes.Routes()) != 0 {
			t.Errorf("%s: routes left behind", step)
		}
		if len(env.cat.ListPlugin("alpha")) != 0 {
			t.Errorf("%s: catalog entries left behind", step)
		}

		record, err := env.mgr.GetPlugin(ctx, "alpha")
		if err != nil {
			t.Fatal(err)
		}
		if record.Status != constants.PluginStatusError {
			t.Errorf("%s: status %q, want error", step, record.Status)
		}

		// A fixed build activates cleanly over the failed state.
		makeAlpha = func() sdk.SitePlugin { return &managerTestPlugin{log: log} }
		if err := env.mgr.Activate(ctx, "alpha"); err != nil {
			t.Errorf("%s: recovery activate failed: %v", step, err)
		}
		if err := env.mgr.Uninstall(ctx, "alpha"); err != nil {
			t.Fatal(err)
		}
	}
}

func TestUpgradeReplacesArchive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	log := &hookLog{}
	makeAlpha = func() sdk.SitePlugin { return &managerTestPlugin{log: log} }

	if _, err := env.mgr.Install(ctx, env.writeArchive(t, "alpha-1.sfp", alphaManifest("1.0.0"))); err != nil {
		t.Fatal(err)
	}
	if err := env.mgr.Activate(ctx, "alpha"); err != nil {
		t.Fatal(err)
	}

	record, err := env.mgr.Upgrade(ctx, env.writeArchive(t, "alpha-2.sfp", alphaManifest("1.1.0")))
	if err != nil {
		t.Fatalf("upgrade failed: %v", err)
	}
	if record.Version != "1.1.0" || record.Status != constants.PluginStatusActivated {
		t.Errorf("record after upgrade: %s %s", record.Version, record.Status)
	}

	oldArchive := filepath.Join(env.pluginDir, "alpha-1.0.0.sfp")
	if _, err := os.Stat(oldArchive); !os.IsNotExist(err) {
		t.Error("superseded archive not removed")
	}
	if _, err := os.Stat(filepath.Join(env.pluginDir, "alpha-1.1.0.sfp")); err != nil {
		t.Errorf("new archive missing: %v", err)
	}

	if _, ok := env.routes.Lookup("GET", "/alpha/ping"); !ok {
		t.Error("route missing after upgrade")
	}
	// The old instance was deactivated and the new one loaded.
	if log.loads != 2 {
		t.Errorf("loads across upgrade: %d", log.loads)
	}
}

func TestLoadActivatedRestoresState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	log := &hookLog{}
	makeAlpha = func() sdk.SitePlugin { return &managerTestPlugin{log: log} }

	if _, err := env.mgr.Install(ctx, env.writeArchive(t, "alpha.sfp", alphaManifest("1.0.0"))); err != nil {
		t.Fatal(err)
	}
	if err := env.mgr.Activate(ctx, "alpha"); err != nil {
		t.Fatal(err)
	}

	// Simulated restart: fresh in-memory state, same datastore.
	restarted := env.freshManager()
	if err := restarted.LoadActivated(ctx); err != nil {
		t.Fatalf("startup load failed: %v", err)
	}
	if _, ok := env.routes.Lookup("GET", "/alpha/ping"); !ok {
		t.Error("activated plugin not restored after restart")
	}

	// Startup failures flip the plugin to error without failing the pass.
	makeAlpha = func() sdk.SitePlugin { return &managerTestPlugin{log: log, failStep: "onLoad"} }
	broken := env.freshManager()
	if err := broken.LoadActivated(ctx); err != nil {
		t.Fatalf("startup load surfaced a per-plugin failure: %v", err)
	}
	record, err := broken.GetPlugin(ctx, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != constants.PluginStatusError {
		t.Errorf("status after failed restore %q", record.Status)
	}
}
