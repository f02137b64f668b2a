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

// Package registrar turns a plugin's declared components and entities into
// live container state during activation, and takes them out again during
// deactivation.
package registrar

import (
	"context"
	"fmt"
	"strings"

	"github.com/siteforge/siteforge/internal/container"
	"github.com/siteforge/siteforge/internal/logger"
	"github.com/siteforge/siteforge/internal/utils"
	"github.com/siteforge/siteforge/sdk"
)

// registrationOrder fixes the pass order so repositories exist before the
// services that need them, and services before handlers.
var registrationOrder = []string{
	sdk.ComponentKindRepository,
	sdk.ComponentKindService,
	sdk.ComponentKindHandler,
}

// componentResolver is the loader-scoped lookup the registrar resolves
// dependencies through. It enforces the plugin's restricted namespaces.
type componentResolver interface {
	LookupComponent(name string) (interface{}, error)
	RegisterLocal(name string, bean interface{})
}

// Registration is the result of a successful component registration pass,
// kept by the manager for compensating cleanup.
type Registration struct {
	PluginID  string
	BeanNames []string
	HasRoutes bool
}

// ComponentRegistrar registers plugin components into the shared container
// and the dynamic route table.
type ComponentRegistrar struct {
	container *container.Container
	routes    *container.RouteTable
	host      sdk.HostServices
}

func NewComponentRegistrar(c *container.Container, rt *container.RouteTable, host sdk.HostServices) *ComponentRegistrar {
	return &ComponentRegistrar{container: c, routes: rt, host: host}
}

// Register runs the ordered registration passes for one plugin. Components
// whose dependencies cannot be resolved are skipped with a logged error; a
// bean conflict or factory failure aborts the whole registration and the
// caller reverts what was applied.
func (r *ComponentRegistrar) Register(manifest *sdk.Manifest, instance sdk.SitePlugin, resolver componentResolver) (*Registration, error) {
	pluginID := manifest.ID
	log := logger.PluginLogger(pluginID)

	infos, err := instance.Components()
	if err != nil {
		return nil, fmt.Errorf("failed to list components of plugin %s: %w", pluginID, err)
	}

	declared := []string(manifest.Scan.Components)
	byName := make(map[string]sdk.ComponentInfo, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
	}
	for _, name := range declared {
		if _, ok := byName[name]; !ok {
			log.Error("declared component is not provided by the plugin", "component", name)
		}
	}

	native, _ := instance.(sdk.NativePlugin)

	reg := &Registration{PluginID: pluginID}
	routeEntries := make([]container.RouteEntry, 0)
	prefix := "/" + manifest.RoutePrefix()

	for _, kind := range registrationOrder {
		for _, name := range declared {
			info, ok := byName[name]
			if !ok || info.Kind != kind {
				continue
			}

			beanName := pluginID + "." + info.Name
			if existing, ok := r.container.Get(beanName); ok {
				// Re-registration after a partial pass reuses the bean.
				resolver.RegisterLocal(info.Name, existing)
				reg.BeanNames = append(reg.BeanNames, beanName)
				continue
			}

			deps, ok := r.resolveDeps(pluginID, info, resolver)
			if !ok {
				log.Error("skipping component with unresolvable dependencies",
					"component", info.Name, "kind", info.Kind)
				continue
			}

			bean, err := r.construct(native, instance, info, deps)
			if err != nil {
				return reg, fmt.Errorf("failed to construct component %s of plugin %s: %w", info.Name, pluginID, err)
			}

			r.container.Autowire(bean, r.host)
			if err := r.container.Register(beanName, bean); err != nil {
				return reg, err
			}
			resolver.RegisterLocal(info.Name, bean)
			reg.BeanNames = append(reg.BeanNames, beanName)
			log.Debug("registered component", "bean", beanName, "kind", info.Kind)

			if info.Kind == sdk.ComponentKindHandler && len(info.Routes) > 0 {
				handler, ok := bean.(sdk.HTTPHandler)
				if !ok {
					return reg, fmt.Errorf("handler component %s of plugin %s declares routes but does not serve them", info.Name, pluginID)
				}
				for _, route := range info.Routes {
					routeEntries = append(routeEntries, container.RouteEntry{
						Method:    route.Method,
						Path:      prefix + route.Path,
						Component: info.Name,
						Handler:   handler,
					})
				}
			}
		}
	}

	if len(routeEntries) > 0 {
		if err := r.routes.ApplyBatch(pluginID, routeEntries); err != nil {
			return reg, err
		}
		reg.HasRoutes = true
	}
	return reg, nil
}

// Unregister reverts a registration. It is idempotent and safe on partial
// registrations.
func (r *ComponentRegistrar) Unregister(reg *Registration) {
	if reg == nil {
		return
	}
	if reg.HasRoutes {
		removed := r.routes.RevertPlugin(reg.PluginID)
		logger.PluginLogger(reg.PluginID).Debug("reverted routes", "count", removed)
	}
	for _, name := range reg.BeanNames {
		r.container.Destroy(name)
	}
}

// UnregisterByID reverts everything registered under a plugin id without a
// Registration handle, used when cleaning up after a partial activation.
func (r *ComponentRegistrar) UnregisterByID(pluginID string) {
	r.routes.RevertPlugin(pluginID)
	prefix := pluginID + "."
	for _, name := range r.container.Names() {
		if strings.HasPrefix(name, prefix) {
			r.container.Destroy(name)
		}
	}
}

// resolveDeps resolves a component's declared dependencies through the
// plugin's resolver, which already prefers pass-local beans and enforces
// the restricted namespaces.
func (r *ComponentRegistrar) resolveDeps(pluginID string, info sdk.ComponentInfo, resolver componentResolver) (sdk.Deps, bool) {
	deps := make(sdk.Deps, len(info.DependsOn))
	for _, depName := range info.DependsOn {
		bean, err := resolver.LookupComponent(depName)
		if err != nil {
			logger.PluginLogger(pluginID).Warn("dependency lookup failed",
				"component", info.Name, "dependency", depName, "error", err)
			return nil, false
		}
		deps[depName] = bean
	}
	return deps, true
}

// construct builds the bean for one component: a real object through the
// native plugin's factory, or an RPC proxy for out-of-process plugins.
func (r *ComponentRegistrar) construct(native sdk.NativePlugin, instance sdk.SitePlugin, info sdk.ComponentInfo, deps sdk.Deps) (interface{}, error) {
	if native != nil {
		factory, ok := native.ComponentFactory(info.Name)
		if !ok {
			return nil, fmt.Errorf("no factory for component %s", info.Name)
		}
		return factory(deps)
	}
	if info.Kind != sdk.ComponentKindHandler {
		// Non-handler components of standalone plugins live entirely in the
		// plugin process; the host tracks them as opaque proxies.
		return &remoteComponent{component: info.Name, instance: instance}, nil
	}
	return &remoteHandler{component: info.Name, instance: instance}, nil
}

// remoteHandler proxies routed requests to a standalone plugin process.
type remoteHandler struct {
	component string
	instance  sdk.SitePlugin
}

func (h *remoteHandler) ServeRoute(_ context.Context, req *sdk.Request) (*sdk.Response, error) {
	resp, err := h.instance.Invoke(&sdk.InvokeRequest{Component: h.component, Request: *req})
	if err != nil {
		return nil, err
	}
	return &resp.Response, nil
}

// remoteComponent is the opaque stand-in for a standalone plugin's
// repository or service bean.
type remoteComponent struct {
	component string
	instance  sdk.SitePlugin
}

// declaredEntityTables extracts entity-kind component infos, cross-checked
// against the manifest's declared entity list.
func declaredEntityTables(manifest *sdk.Manifest, infos []sdk.ComponentInfo) []sdk.ComponentInfo {
	declared := []string(manifest.Scan.Entities)
	out := make([]sdk.ComponentInfo, 0)
	for _, info := range infos {
		if info.Kind != sdk.ComponentKindEntity {
			continue
		}
		if len(declared) > 0 && !utils.Contains(declared, info.Name) {
			logger.PluginLogger(manifest.ID).Warn("entity is not declared in the manifest, skipping", "entity", info.Name)
			continue
		}
		out = append(out, info)
	}
	return out
}
