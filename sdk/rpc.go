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

package sdk

import (
	"net/rpc"

	goplugin "github.com/hashicorp/go-plugin"
)

// PluginTypeSite is the key standalone plugins register under in the plugin
// map.
const PluginTypeSite = "site"

// Handshake guards against the host executing an unrelated binary as a
// plugin. Host and plugin must agree on all three values.
var Handshake = goplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "SITEFORGE_PLUGIN",
	MagicCookieValue: "b8f6d2a4e1c94d77",
}

// SitePluginRPC adapts a SitePlugin to go-plugin's net/rpc transport. The
// host side leaves Impl nil and receives a client proxy from Dispense.
type SitePluginRPC struct {
	Impl SitePlugin
}

func (p *SitePluginRPC) Server(*goplugin.MuxBroker) (interface{}, error) {
	return &rpcServer{impl: p.Impl}, nil
}

func (p *SitePluginRPC) Client(_ *goplugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RPCClient{client: c}, nil
}

// PluginMap returns the plugin map used on both sides of the handshake.
func PluginMap(impl SitePlugin) map[string]goplugin.Plugin {
	return map[string]goplugin.Plugin{
		PluginTypeSite: &SitePluginRPC{Impl: impl},
	}
}

// Serve runs a standalone plugin process. It blocks until the host closes
// the connection. Plugin main functions call this after constructing their
// implementation.
func Serve(impl SitePlugin) {
	goplugin.Serve(&goplugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins:         PluginMap(impl),
	})
}

// RPCClient is the host-side proxy for a standalone plugin. It implements
// SitePlugin and ComponentProvider over the process boundary.
type RPCClient struct {
	client *rpc.Client
}

var (
	_ SitePlugin        = (*RPCClient)(nil)
	_ ComponentProvider = (*RPCClient)(nil)
)

func (c *RPCClient) OnLoad(hc *HookContext) error {
	return c.client.Call("Plugin.OnLoad", hc, new(Empty))
}

func (c *RPCClient) OnActivate(hc *HookContext) error {
	return c.client.Call("Plugin.OnActivate", hc, new(Empty))
}

func (c *RPCClient) OnDeactivate(hc *HookContext) error {
	return c.client.Call("Plugin.OnDeactivate", hc, new(Empty))
}

func (c *RPCClient) OnUninstall(hc *HookContext) error {
	return c.client.Call("Plugin.OnUninstall", hc, new(Empty))
}

func (c *RPCClient) Components() ([]ComponentInfo, error) {
	var reply []ComponentInfo
	if err := c.client.Call("Plugin.Components", Empty{}, &reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *RPCClient) UIComponents() ([]UIComponentSpec, error) {
	var reply []UIComponentSpec
	if err := c.client.Call("Plugin.UIComponents", Empty{}, &reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *RPCClient) Invoke(req *InvokeRequest) (*InvokeResponse, error) {
	var reply InvokeResponse
	if err := c.client.Call("Plugin.Invoke", req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Empty is the placeholder args/reply type for calls that carry no payload.
type Empty struct{}

// rpcServer is the plugin-side dispatch target. net/rpc registers it under
// the name "Plugin".
type rpcServer struct {
	impl SitePlugin
}

func (s *rpcServer) OnLoad(hc *HookContext, _ *Empty) error {
	return s.impl.OnLoad(hc)
}

func (s *rpcServer) OnActivate(hc *HookContext, _ *Empty) error {
	return s.impl.OnActivate(hc)
}

func (s *rpcServer) OnDeactivate(hc *HookContext, _ *Empty) error {
	return s.impl.OnDeactivate(hc)
}

func (s *rpcServer) OnUninstall(hc *HookContext, _ *Empty) error {
	return s.impl.OnUninstall(hc)
}

func (s *rpcServer) Components(_ Empty, reply *[]ComponentInfo) error {
	infos, err := s.impl.Components()
	if err != nil {
		return err
	}
	*reply = infos
	return nil
}

func (s *rpcServer) UIComponents(_ Empty, reply *[]UIComponentSpec) error {
	provider, ok := s.impl.(ComponentProvider)
	if !ok {
		*reply = nil
		return nil
	}
	specs, err := provider.UIComponents()
	if err != nil {
		return err
	}
	*reply = specs
	return nil
}

func (s *rpcServer) Invoke(req *InvokeRequest, reply *InvokeResponse) error {
	resp, err := s.impl.Invoke(req)
	if err != nil {
		return err
	}
	if resp != nil {
		*reply = *resp
	}
	return nil
}
