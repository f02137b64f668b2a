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

// Package plugin holds the lifecycle state machine that drives install,
// activate, deactivate, uninstall and upgrade across the loader, the
// registrars and the persisted plugin records.
package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/siteforge/siteforge/internal/catalog"
	"github.com/siteforge/siteforge/internal/constants"
	"github.com/siteforge/siteforge/internal/container"
	"github.com/siteforge/siteforge/internal/datastore"
	"github.com/siteforge/siteforge/internal/event"
	"github.com/siteforge/siteforge/internal/logger"
	"github.com/siteforge/siteforge/internal/plugin/loader"
	"github.com/siteforge/siteforge/internal/plugin/registrar"
	"github.com/siteforge/siteforge/internal/types"
	"github.com/siteforge/siteforge/internal/utils"
	"github.com/siteforge/siteforge/internal/utils/bcode"
	"github.com/siteforge/siteforge/sdk"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ManagerConfig locates the managed plugin directory and the root of the
// per-plugin private data trees.
type ManagerConfig struct {
	PluginDir string
	DataDir   string
}

// Manager is the plugin lifecycle orchestrator. It exclusively owns the
// maps from plugin id to loaded instance and to loader; nothing else holds
// those references.
type Manager struct {
	cfg ManagerConfig
	ds  datastore.Datastore

	container  *container.Container
	routes     *container.RouteTable
	catalog    *catalog.Catalog
	bus        *event.Bus
	components *registrar.ComponentRegistrar
	entities   *registrar.EntityRegistrar

	locks         sync.Map // pluginID -> *sync.Mutex
	instances     sync.Map // pluginID -> sdk.SitePlugin
	loaders       sync.Map // pluginID -> *loader.Loader
	registrations sync.Map // pluginID -> *registrar.Registration
}

func NewManager(cfg ManagerConfig, ds datastore.Datastore, c *container.Container, rt *container.RouteTable, cat *catalog.Catalog, bus *event.Bus, db *gorm.DB) *Manager {
	m := &Manager{
		cfg:       cfg,
		ds:        ds,
		container: c,
		routes:    rt,
		catalog:   cat,
		bus:       bus,
		entities:  registrar.NewEntityRegistrar(db),
	}
	m.components = registrar.NewComponentRegistrar(c, rt, m)
	return m
}

// Component implements sdk.HostServices for in-process plugins. Restricted
// namespaces are denied here just as they are through the loader.
func (m *Manager) Component(name string) (interface{}, bool) {
	if utils.HasAnyPrefix(name, loader.RestrictedPrefixes) {
		return nil, false
	}
	return m.container.Get(name)
}

// Publish implements sdk.HostServices.
func (m *Manager) Publish(name string, payload map[string]interface{}) {
	if m.bus != nil {
		m.bus.Publish(name, payload)
	}
}

// RouteTable exposes the dynamic route table for the HTTP dispatcher.
func (m *Manager) RouteTable() *container.RouteTable {
	return m.routes
}

// Catalog exposes the UI component catalog.
func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalog
}

// lockFor serializes lifecycle transitions per plugin id. Operations on
// different plugins proceed concurrently.
func (m *Manager) lockFor(pluginID string) *sync.Mutex {
	mu, _ := m.locks.LoadOrStore(pluginID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Install validates and copies an archive into the managed plugin directory
// and upserts the plugin record with status installed. Installing over an
// existing id first runs that id's deactivation side effects so the old
// archive can be overwritten.
func (m *Manager) Install(ctx context.Context, archivePath string) (*types.PluginRecord, error) {
	ext := strings.ToLower(filepath.Ext(archivePath))
	if ext != constants.PluginArchiveExt && ext != constants.PluginArchiveExtZip {
		return nil, bcode.WrapError(bcode.ErrPluginArchiveInvalid,
			fmt.Errorf("unsupported archive extension %q", ext))
	}
	if !utils.FileExists(archivePath) {
		return nil, bcode.WrapError(bcode.ErrPluginArchiveInvalid,
			fmt.Errorf("archive %s does not exist", archivePath))
	}

	manifest, err := sdk.ParseManifest(archivePath)
	if err != nil {
		return nil, bcode.WrapError(bcode.ErrPluginManifestInvalid, err)
	}

	mu := m.lockFor(manifest.ID)
	mu.Lock()
	defer mu.Unlock()

	log := logger.PluginLogger(manifest.ID)

	// Close the prior loader and tear down live state before touching the
	// archive. Some file systems hold an exclusive lock on an open archive.
	if err := m.teardownLocked(ctx, manifest.ID); err != nil {
		return nil, bcode.WrapError(bcode.ErrPluginInstallFailed, err)
	}

	refs, err := manifest.ParsedDependencies()
	if err != nil {
		return nil, bcode.WrapError(bcode.ErrPluginManifestInvalid, err)
	}
	for _, ref := range refs {
		if ref.ID == manifest.ID {
			return nil, bcode.WrapError(bcode.ErrPluginManifestInvalid,
				fmt.Errorf("plugin %s depends on itself", manifest.ID))
		}
		dep := &types.PluginRecord{PluginID: ref.ID}
		if err := m.ds.Get(ctx, dep); err != nil {
			return nil, bcode.WrapError(bcode.ErrPluginDependencyMissing,
				fmt.Errorf("plugin %s depends on unknown plugin %s", manifest.ID, ref.ID))
		}
	}

	dst := filepath.Join(m.cfg.PluginDir,
		fmt.Sprintf("%s-%s%s", manifest.ID, manifest.Version, constants.PluginArchiveExt))
	if err := utils.CopyFileRetry(archivePath, dst,
		constants.PluginCopyRetries, constants.PluginCopyRetryDelay*time.Millisecond); err != nil {
		return nil, bcode.WrapError(bcode.ErrPluginInstallFailed, err)
	}

	record := &types.PluginRecord{PluginID: manifest.ID}
	if err := m.ds.Get(ctx, record); err != nil && !errors.Is(err, datastore.ErrRecordNotExist) {
		return nil, bcode.WrapError(bcode.ErrPluginInstallFailed, err)
	}
	oldArchive := record.ArchivePath

	record.PluginID = manifest.ID
	record.Name = manifest.Name
	record.Version = manifest.Version
	record.Author = manifest.Author
	record.Description = manifest.Description
	record.Kind = manifest.EffectiveKind()
	record.Status = constants.PluginStatusInstalled
	record.ArchivePath = dst
	if err := m.ds.Put(ctx, record); err != nil {
		return nil, bcode.WrapError(bcode.ErrPluginInstallFailed, err)
	}

	if oldArchive != "" && oldArchive != dst && !record.Bundled {
		if err := os.Remove(oldArchive); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove superseded archive", "path", oldArchive, "error", err)
		}
	}

	log.Info("plugin installed", "version", manifest.Version, "archive", dst)
	m.Publish(event.PluginInstalled, map[string]interface{}{
		"plugin_id": manifest.ID, "version": manifest.Version,
	})
	return record, nil
}

// Activate loads, registers and starts an installed plugin. Any failure at
// any step runs full compensating cleanup, persists status error and
// surfaces the failing step.
func (m *Manager) Activate(ctx context.Context, pluginID string) error {
	mu := m.lockFor(pluginID)
	mu.Lock()
	defer mu.Unlock()
	return m.activateLocked(ctx, pluginID)
}

func (m *Manager) activateLocked(ctx context.Context, pluginID string) error {
	log := logger.PluginLogger(pluginID)

	record := &types.PluginRecord{PluginID: pluginID}
	if err := m.ds.Get(ctx, record); err != nil {
		return bcode.WrapError(bcode.ErrPluginNotFound, err)
	}

	if record.Status == constants.PluginStatusActivated {
		if _, loaded := m.instances.Load(pluginID); loaded {
			log.Warn("plugin is already activated, ignoring")
			return nil
		}
		// Status says activated but nothing is loaded (fresh process), fall
		// through and load it.
	} else if _, loaded := m.instances.Load(pluginID); loaded {
		// Already loaded from a bulk startup pass, just flip the status.
		return m.setStatus(ctx, record, constants.PluginStatusActivated)
	}

	if !utils.FileExists(record.ArchivePath) {
		return bcode.WrapError(bcode.ErrPluginArchiveInvalid,
			fmt.Errorf("archive %s of plugin %s is missing", record.ArchivePath, pluginID))
	}

	// Dependency gating happens before any side effect: no loader is opened
	// and no bean is registered when a dependency is missing or inactive.
	manifest, err := sdk.ParseManifest(record.ArchivePath)
	if err != nil {
		return bcode.WrapError(bcode.ErrPluginManifestInvalid, err)
	}
	if err := m.checkDependencies(ctx, manifest); err != nil {
		return err
	}

	ldr, err := loader.Open(record.ArchivePath, m.container)
	if err != nil {
		_ = m.setStatus(ctx, record, constants.PluginStatusError)
		return bcode.WrapError(bcode.ErrPluginActivateFailed, err)
	}

	fail := func(step string, cause error) error {
		m.components.UnregisterByID(pluginID)
		m.entities.Unregister(pluginID)
		m.catalog.UnregisterPlugin(pluginID)
		m.instances.Delete(pluginID)
		m.loaders.Delete(pluginID)
		m.registrations.Delete(pluginID)
		_ = ldr.Close()
		_ = m.setStatus(ctx, record, constants.PluginStatusError)
		m.Publish(event.PluginFailed, map[string]interface{}{
			"plugin_id": pluginID, "step": step,
		})
		return bcode.WrapError(bcode.ErrPluginActivateFailed,
			fmt.Errorf("plugin %s failed during %s: %w", pluginID, step, cause))
	}

	instance, err := ldr.Instantiate()
	if err != nil {
		return fail("instantiate", err)
	}

	hc, err := m.buildHookContext(record, manifest)
	if err != nil {
		return fail("context", err)
	}

	if err := instance.OnLoad(hc); err != nil {
		return fail("onLoad", err)
	}

	infos, err := instance.Components()
	if err != nil {
		return fail("components", err)
	}
	if err := m.entities.Register(manifest, infos); err != nil {
		return fail("entity registration", err)
	}

	reg, err := m.components.Register(manifest, instance, ldr)
	if err != nil {
		m.components.Unregister(reg)
		return fail("component registration", err)
	}

	if err := instance.OnActivate(hc); err != nil {
		m.components.Unregister(reg)
		return fail("onActivate", err)
	}

	if provider, ok := instance.(sdk.ComponentProvider); ok {
		specs, err := provider.UIComponents()
		if err != nil {
			m.components.Unregister(reg)
			return fail("ui components", err)
		}
		for i := range specs {
			specs[i].AssetPath = loader.NormalizeAssetPath(specs[i].AssetPath)
		}
		m.catalog.RegisterPlugin(pluginID, specs)
	}

	m.instances.Store(pluginID, instance)
	m.loaders.Store(pluginID, ldr)
	m.registrations.Store(pluginID, reg)

	if err := m.setStatus(ctx, record, constants.PluginStatusActivated); err != nil {
		return fail("persist", err)
	}

	log.Info("plugin activated", "version", record.Version, "routes", m.routes.Version())
	m.Publish(event.PluginActivated, map[string]interface{}{
		"plugin_id": pluginID, "version": record.Version,
	})
	return nil
}

// Deactivate unwinds an active plugin: deactivate hook, unregistration,
// loader close, status flip. A teardown failure leaves status error rather
// than silently reporting deactivated.
func (m *Manager) Deactivate(ctx context.Context, pluginID string) error {
	mu := m.lockFor(pluginID)
	mu.Lock()
	defer mu.Unlock()

	record := &types.PluginRecord{PluginID: pluginID}
	if err := m.ds.Get(ctx, record); err != nil {
		return bcode.WrapError(bcode.ErrPluginNotFound, err)
	}
	if record.Status != constants.PluginStatusActivated {
		logger.PluginLogger(pluginID).Warn("plugin is not activated, ignoring deactivate")
		return nil
	}

	var hookErr error
	if raw, ok := m.instances.Load(pluginID); ok {
		manifest := &sdk.Manifest{ID: pluginID, Version: record.Version}
		if hc, err := m.buildHookContext(record, manifest); err == nil {
			hookErr = raw.(sdk.SitePlugin).OnDeactivate(hc)
		} else {
			hookErr = err
		}
	}

	teardownErr := m.teardownLocked(ctx, pluginID)

	if hookErr != nil || teardownErr != nil {
		err := hookErr
		if err == nil {
			err = teardownErr
		}
		_ = m.setStatus(ctx, record, constants.PluginStatusError)
		return bcode.WrapError(bcode.ErrPluginDeactivateFailed, err)
	}

	if err := m.setStatus(ctx, record, constants.PluginStatusDeactivated); err != nil {
		return bcode.WrapError(bcode.ErrPluginDeactivateFailed, err)
	}
	logger.PluginLogger(pluginID).Info("plugin deactivated")
	m.Publish(event.PluginDeactivated, map[string]interface{}{"plugin_id": pluginID})
	return nil
}

// Uninstall removes a plugin entirely: hook failures are tolerated so the
// record, archive and data directory always come out.
func (m *Manager) Uninstall(ctx context.Context, pluginID string) error {
	mu := m.lockFor(pluginID)
	mu.Lock()
	defer mu.Unlock()

	log := logger.PluginLogger(pluginID)

	record := &types.PluginRecord{PluginID: pluginID}
	if err := m.ds.Get(ctx, record); err != nil {
		return bcode.WrapError(bcode.ErrPluginNotFound, err)
	}

	instance, _ := m.instances.Load(pluginID)

	if record.Status == constants.PluginStatusActivated {
		if raw, ok := m.instances.Load(pluginID); ok {
			manifest := &sdk.Manifest{ID: pluginID, Version: record.Version}
			if hc, err := m.buildHookContext(record, manifest); err == nil {
				if err := raw.(sdk.SitePlugin).OnDeactivate(hc); err != nil {
					log.Warn("deactivate hook failed during uninstall", "error", err)
				}
			}
		}
	}

	if instance != nil {
		manifest := &sdk.Manifest{ID: pluginID, Version: record.Version}
		if hc, err := m.buildHookContext(record, manifest); err == nil {
			if err := instance.(sdk.SitePlugin).OnUninstall(hc); err != nil {
				log.Warn("uninstall hook failed", "error", err)
			}
		}
	}

	if err := m.teardownLocked(ctx, pluginID); err != nil {
		log.Warn("teardown failed during uninstall", "error", err)
	}
	m.catalog.UnregisterPlugin(pluginID)

	if !record.Bundled && record.ArchivePath != "" {
		if err := os.Remove(record.ArchivePath); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove plugin archive", "path", record.ArchivePath, "error", err)
		}
	}
	if err := os.RemoveAll(filepath.Join(m.cfg.DataDir, pluginID)); err != nil {
		log.Warn("failed to remove plugin data directory", "error", err)
	}

	if err := m.ds.Delete(ctx, &types.PluginRecord{PluginID: pluginID}); err != nil {
		return bcode.WrapError(bcode.ErrPluginUninstallFailed, err)
	}
	log.Info("plugin uninstalled")
	m.Publish(event.PluginUninstalled, map[string]interface{}{"plugin_id": pluginID})
	return nil
}

// Upgrade installs a new archive for an id and immediately activates it.
// Install itself clears the prior loader state, so the old archive is
// released strictly before the new one is written.
func (m *Manager) Upgrade(ctx context.Context, archivePath string) (*types.PluginRecord, error) {
	record, err := m.Install(ctx, archivePath)
	if err != nil {
		return nil, err
	}
	if err := m.Activate(ctx, record.PluginID); err != nil {
		return record, err
	}
	if err := m.ds.Get(ctx, record); err != nil {
		return record, nil
	}
	return record, nil
}

// LoadActivated reloads every plugin whose persisted status is activated,
// used at process startup. Failures flip the individual plugin to error
// without blocking the rest.
func (m *Manager) LoadActivated(ctx context.Context) error {
	records, err := m.ds.List(ctx, &types.PluginRecord{}, &datastore.ListOptions{
		FilterOptions: datastore.FilterOptions{
			In: []datastore.InQueryOption{{Key: "status", Values: []string{constants.PluginStatusActivated}}},
		},
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, raw := range records {
		record := raw.(*types.PluginRecord)
		g.Go(func() error {
			mu := m.lockFor(record.PluginID)
			mu.Lock()
			defer mu.Unlock()
			if err := m.activateLocked(gctx, record.PluginID); err != nil {
				logger.PluginLogger(record.PluginID).Error("startup activation failed", "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ListPlugins returns all persisted plugin records.
func (m *Manager) ListPlugins(ctx context.Context) ([]*types.PluginRecord, error) {
	rows, err := m.ds.List(ctx, &types.PluginRecord{}, &datastore.ListOptions{
		SortBy: []datastore.SortOption{{Key: "plugin_id", Order: datastore.SortOrderAscending}},
	})
	if err != nil {
		return nil, err
	}
	records := make([]*types.PluginRecord, 0, len(rows))
	for _, raw := range rows {
		records = append(records, raw.(*types.PluginRecord))
	}
	return records, nil
}

// GetPlugin returns one persisted plugin record.
func (m *Manager) GetPlugin(ctx context.Context, pluginID string) (*types.PluginRecord, error) {
	record := &types.PluginRecord{PluginID: pluginID}
	if err := m.ds.Get(ctx, record); err != nil {
		return nil, bcode.WrapError(bcode.ErrPluginNotFound, err)
	}
	return record, nil
}

// checkDependencies verifies every declared dependency is known, activated
// and version-compatible. The check never auto-activates dependencies;
// activation ordering is the operator's responsibility.
func (m *Manager) checkDependencies(ctx context.Context, manifest *sdk.Manifest) error {
	refs, err := manifest.ParsedDependencies()
	if err != nil {
		return bcode.WrapError(bcode.ErrPluginManifestInvalid, err)
	}
	for _, ref := range refs {
		dep := &types.PluginRecord{PluginID: ref.ID}
		if err := m.ds.Get(ctx, dep); err != nil {
			return bcode.WrapError(bcode.ErrPluginDependencyMissing,
				fmt.Errorf("plugin %s depends on unknown plugin %s", manifest.ID, ref.ID))
		}
		if dep.Status != constants.PluginStatusActivated {
			return bcode.WrapError(bcode.ErrPluginDependencyInactive,
				fmt.Errorf("plugin %s depends on %s which is %s", manifest.ID, ref.ID, dep.Status))
		}
		if ref.Constraint != nil {
			v, err := semver.NewVersion(dep.Version)
			if err != nil || !ref.Constraint.Check(v) {
				return bcode.WrapError(bcode.ErrPluginDependencyInactive,
					fmt.Errorf("plugin %s requires %s version %s, found %s",
						manifest.ID, ref.ID, ref.Constraint.String(), dep.Version))
			}
		}
	}
	return nil
}

// buildHookContext assembles the per-plugin context with freshly ensured
// data and config directories.
func (m *Manager) buildHookContext(record *types.PluginRecord, manifest *sdk.Manifest) (*sdk.HookContext, error) {
	dataDir := filepath.Join(m.cfg.DataDir, record.PluginID, constants.PluginDataDirName)
	configDir := filepath.Join(m.cfg.DataDir, record.PluginID, constants.PluginConfigDirName)
	if err := utils.EnsureDir(dataDir); err != nil {
		return nil, err
	}
	if err := utils.EnsureDir(configDir); err != nil {
		return nil, err
	}

	config := make(map[string]string)
	if record.Config != "" {
		if err := json.Unmarshal([]byte(record.Config), &config); err != nil {
			logger.PluginLogger(record.PluginID).Warn("plugin config blob is not valid json, ignoring", "error", err)
		}
	}

	hc := &sdk.HookContext{
		PluginID:  record.PluginID,
		Version:   manifest.Version,
		DataDir:   dataDir,
		ConfigDir: configDir,
		Config:    config,
	}
	return hc.WithHost(m).WithLogger(logger.PluginLogger(record.PluginID)), nil
}

// teardownLocked unwinds all live state for a plugin id: registrations,
// entity tracking, instance, loader. Safe to call when nothing is loaded.
// Caller holds the plugin's lock.
func (m *Manager) teardownLocked(_ context.Context, pluginID string) error {
	if raw, ok := m.registrations.LoadAndDelete(pluginID); ok {
		m.components.Unregister(raw.(*registrar.Registration))
	} else {
		m.components.UnregisterByID(pluginID)
	}
	m.entities.Unregister(pluginID)
	m.instances.Delete(pluginID)

	if raw, ok := m.loaders.LoadAndDelete(pluginID); ok {
		if err := raw.(*loader.Loader).Close(); err != nil {
			return fmt.Errorf("failed to close loader of plugin %s: %w", pluginID, err)
		}
	}
	return nil
}

// setStatus persists a status transition on the record.
func (m *Manager) setStatus(ctx context.Context, record *types.PluginRecord, status string) error {
	record.Status = status
	return m.ds.Put(ctx, record)
}
