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

// Package sdk defines the contract between the SiteForge host and its
// plugins: the lifecycle interface, the component descriptors a plugin
// publishes, and the manifest format. Plugin authors import only this
// package.
package sdk

import (
	"context"
	"log/slog"
)

// Component kinds, registered in this order during activation.
const (
	ComponentKindRepository = "repository"
	ComponentKindService    = "service"
	ComponentKindHandler    = "handler"
	ComponentKindEntity     = "entity"
)

// RouteSpec declares one HTTP route a handler component serves. Paths are
// relative to the plugin's API base.
type RouteSpec struct {
	Method string
	Path   string
}

// ComponentInfo describes one component a plugin contributes to the host
// container. DependsOn lists the bean names of components this one needs,
// either plugin-local class names or fully qualified host names.
type ComponentInfo struct {
	Name      string
	Kind      string
	DependsOn []string
	Routes    []RouteSpec
	Table     string
}

// UIComponentSpec describes one visual editor component a plugin exposes.
type UIComponentSpec struct {
	Name      string
	Label     string
	Category  string
	Icon      string
	AssetPath string
	Schema    map[string]string
}

// Request is the transport-neutral form of an HTTP request routed into a
// plugin component.
type Request struct {
	Method  string
	Path    string
	Headers map[string][]string
	Query   map[string][]string
	Body    []byte
}

// Response is the transport-neutral reply from a plugin component.
type Response struct {
	Status  int
	Headers map[string][]string
	Body    []byte
}

// InvokeRequest routes one request to a named handler component of an
// out-of-process plugin.
type InvokeRequest struct {
	Component string
	Request   Request
}

// InvokeResponse carries the component's reply back to the host dispatcher.
type InvokeResponse struct {
	Response Response
}

// HTTPHandler is implemented by handler components that serve routes. The
// host dispatcher calls ServeRoute for every request matching one of the
// component's declared routes.
type HTTPHandler interface {
	ServeRoute(ctx context.Context, req *Request) (*Response, error)
}

// HostServices is the host-side surface handed to in-process plugins through
// the hook context. Lookups are subject to the host's access policy.
type HostServices interface {
	// Component resolves a shared host bean by name.
	Component(name string) (interface{}, bool)

	// Publish emits an event on the host event bus.
	Publish(event string, payload map[string]interface{})
}

// HostAware components receive the host services handle after construction.
type HostAware interface {
	SetHost(host HostServices)
}

// Deps carries resolved dependencies into a component factory, keyed by the
// names the component declared in DependsOn.
type Deps map[string]interface{}

// Factory constructs one component instance from its resolved dependencies.
type Factory func(deps Deps) (interface{}, error)

// HookContext is passed to every lifecycle hook. Exported fields survive the
// process boundary for out-of-process plugins; the host handle and logger are
// only populated for in-process plugins.
type HookContext struct {
	PluginID  string
	Version   string
	DataDir   string
	ConfigDir string
	Config    map[string]string

	host   HostServices
	logger *slog.Logger
}

// Host returns the host services handle, nil for out-of-process plugins.
func (hc *HookContext) Host() HostServices {
	return hc.host
}

// Logger returns the plugin-scoped logger, never nil.
func (hc *HookContext) Logger() *slog.Logger {
	if hc.logger == nil {
		return slog.Default()
	}
	return hc.logger
}

// WithHost returns a copy of the context carrying the host handle.
func (hc *HookContext) WithHost(host HostServices) *HookContext {
	clone := *hc
	clone.host = host
	return &clone
}

// WithLogger returns a copy of the context carrying the logger.
func (hc *HookContext) WithLogger(logger *slog.Logger) *HookContext {
	clone := *hc
	clone.logger = logger
	return &clone
}

// SitePlugin is the lifecycle contract every plugin implements. Hooks are
// invoked by the host in a fixed order: OnLoad before any registration,
// OnActivate after all components are registered, OnDeactivate before
// teardown, OnUninstall before the plugin's data is removed.
type SitePlugin interface {
	OnLoad(hc *HookContext) error
	OnActivate(hc *HookContext) error
	OnDeactivate(hc *HookContext) error
	OnUninstall(hc *HookContext) error

	// Components returns the descriptors of everything the plugin
	// contributes to the host container.
	Components() ([]ComponentInfo, error)

	// Invoke serves one routed request. Out-of-process plugins handle all
	// their traffic through this method.
	Invoke(req *InvokeRequest) (*InvokeResponse, error)
}

// ComponentProvider is implemented by plugins that contribute visual editor
// components in addition to server-side ones.
type ComponentProvider interface {
	UIComponents() ([]UIComponentSpec, error)
}

// NativePlugin is the in-process extension of SitePlugin. Its component
// factories run inside the host, so registered beans are real objects rather
// than RPC proxies.
type NativePlugin interface {
	SitePlugin

	// ComponentFactory returns the factory for a declared component name.
	ComponentFactory(name string) (Factory, bool)
}

// BasePlugin is a no-op SitePlugin implementation for embedding. Plugins
// override only the hooks they need.
type BasePlugin struct{}

func (BasePlugin) OnLoad(*HookContext) error       { return nil }
func (BasePlugin) OnActivate(*HookContext) error   { return nil }
func (BasePlugin) OnDeactivate(*HookContext) error { return nil }
func (BasePlugin) OnUninstall(*HookContext) error  { return nil }

func (BasePlugin) Components() ([]ComponentInfo, error) { return nil, nil }

func (BasePlugin) Invoke(*InvokeRequest) (*InvokeResponse, error) {
	return &InvokeResponse{Response: Response{Status: 404}}, nil
}
