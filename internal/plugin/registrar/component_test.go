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

package registrar

import (
	"context"
	"fmt"
	"testing"

	"github.com/siteforge/siteforge/internal/container"
	"github.com/siteforge/siteforge/sdk"
)

type fakeResolver struct {
	parent *container.Container
	local  map[string]interface{}
}

func newFakeResolver(parent *container.Container) *fakeResolver {
	return &fakeResolver{parent: parent, local: make(map[string]interface{})}
}

func (r *fakeResolver) LookupComponent(name string) (interface{}, error) {
	if bean, ok := r.local[name]; ok {
		return bean, nil
	}
	if r.parent != nil {
		if bean, ok := r.parent.Get(name); ok {
			return bean, nil
		}
	}
	return nil, fmt.Errorf("component %s is not registered", name)
}

func (r *fakeResolver) RegisterLocal(name string, bean interface{}) {
	r.local[name] = bean
}

type testRepo struct{}

type testService struct {
	repo *testRepo
}

type testHandler struct {
	svc *testService
}

func (h *testHandler) ServeRoute(context.Context, *sdk.Request) (*sdk.Response, error) {
	return &sdk.Response{Status: 200}, nil
}

// brokenHandler declares routes but cannot serve them.
type brokenHandler struct{}

type fakeNativePlugin struct {
	sdk.BasePlugin

	infos     []sdk.ComponentInfo
	factories map[string]sdk.Factory
}

func (p *fakeNativePlugin) Components() ([]sdk.ComponentInfo, error) {
	return p.infos, nil
}

func (p *fakeNativePlugin) ComponentFactory(name string) (sdk.Factory, bool) {
	f, ok := p.factories[name]
	return f, ok
}

func blogManifest(components ...string) *sdk.Manifest {
	return &sdk.Manifest{
		ID:      "blog",
		Name:    "Blog",
		Version: "1.0.0",
		Kind:    sdk.PluginKindNative,
		Scan:    sdk.ScanSpec{Components: sdk.StringList(components)},
	}
}

func fullBlogPlugin() *fakeNativePlugin {
	return &fakeNativePlugin{
		infos: []sdk.ComponentInfo{
			{
				Name: "PostHandler",
				Kind: sdk.ComponentKindHandler,
				DependsOn: []string{"PostService"},
				Routes: []sdk.RouteSpec{
					{Method: "GET", Path: "/posts"},
					{Method: "POST", Path: "/posts"},
				},
			},
			{Name: "PostService", Kind: sdk.ComponentKindService, DependsOn: []string{"PostRepository"}},
			{Name: "PostRepository", Kind: sdk.ComponentKindRepository},
		},
		factories: map[string]sdk.Factory{
			"PostRepository": func(sdk.Deps) (interface{}, error) {
				return &testRepo{}, nil
			},
			"PostService": func(deps sdk.Deps) (interface{}, error) {
				repo, ok := deps["PostRepository"].(*testRepo)
				if !ok {
					return nil, fmt.Errorf("repository not constructed first")
				}
				return &testService{repo: repo}, nil
			},
			"PostHandler": func(deps sdk.Deps) (interface{}, error) {
				svc, ok := deps["PostService"].(*testService)
				if !ok {
					return nil, fmt.Errorf("service not constructed first")
				}
				return &testHandler{svc: svc}, nil
			},
		},
	}
}

func TestRegisterOrdersPasses(t *testing.T) {
	beans := container.NewContainer()
	routes := container.NewRouteTable()
	r := NewComponentRegistrar(beans, routes, nil)

	// The handler is declared first; the pass order must still construct the
	// repository before the service and the service before the handler, or
	// the factories above fail.
	manifest := blogManifest("PostHandler", "PostService", "PostRepository")
	reg, err := r.Register(manifest, fullBlogPlugin(), newFakeResolver(beans))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	for _, name := range []string{"blog.PostRepository", "blog.PostService", "blog.PostHandler"} {
		if _, ok := beans.Get(name); !ok {
			t.Errorf("bean %s not registered", name)
		}
	}
	if len(reg.BeanNames) != 3 {
		t.Errorf("registration recorded %d beans", len(reg.BeanNames))
	}
	if !reg.HasRoutes {
		t.Error("registration did not record routes")
	}
	if _, ok := routes.Lookup("GET", "/blog/posts"); !ok {
		t.Error("handler route not applied under the plugin prefix")
	}
}

func TestRegisterOnlyDeclaredComponents(t *testing.T) {
	beans := container.NewContainer()
	r := NewComponentRegistrar(beans, container.NewRouteTable(), nil)

	// Only the repository is declared; the service and handler the plugin
	// offers must not be registered.
	manifest := blogManifest("PostRepository")
	reg, err := r.Register(manifest, fullBlogPlugin(), newFakeResolver(beans))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if len(reg.BeanNames) != 1 || reg.BeanNames[0] != "blog.PostRepository" {
		t.Errorf("registered beans %v", reg.BeanNames)
	}
	if _, ok := beans.Get("blog.PostService"); ok {
		t.Error("undeclared component registered")
	}
}

func TestRegisterSkipsUnresolvableDependencies(t *testing.T) {
	beans := container.NewContainer()
	r := NewComponentRegistrar(beans, container.NewRouteTable(), nil)

	plugin := &fakeNativePlugin{
		infos: []sdk.ComponentInfo{
			{Name: "PostRepository", Kind: sdk.ComponentKindRepository},
			{Name: "BrokenService", Kind: sdk.ComponentKindService, DependsOn: []string{"missing.Dependency"}},
		},
		factories: map[string]sdk.Factory{
			"PostRepository": func(sdk.Deps) (interface{}, error) { return &testRepo{}, nil },
			"BrokenService": func(sdk.Deps) (interface{}, error) {
				return nil, fmt.Errorf("should never be constructed")
			},
		},
	}

	manifest := blogManifest("PostRepository", "BrokenService")
	reg, err := r.Register(manifest, plugin, newFakeResolver(beans))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if len(reg.BeanNames) != 1 {
		t.Errorf("registered beans %v", reg.BeanNames)
	}
	if _, ok := beans.Get("blog.BrokenService"); ok {
		t.Error("component with unresolvable dependency registered")
	}
}

func TestRegisterFactoryFailureAborts(t *testing.T) {
	beans := container.NewContainer()
	routes := container.NewRouteTable()
	r := NewComponentRegistrar(beans, routes, nil)

	plugin := fullBlogPlugin()
	plugin.factories["PostService"] = func(sdk.Deps) (interface{}, error) {
		return nil, fmt.Errorf("construction exploded")
	}

	manifest := blogManifest("PostHandler", "PostService", "PostRepository")
	reg, err := r.Register(manifest, plugin, newFakeResolver(beans))
	if err == nil {
		t.Fatal("factory failure not surfaced")
	}

	// The caller reverts the partial registration.
	r.Unregister(reg)
	if beans.Len() != 0 {
		t.Errorf("beans left after revert: %v", beans.Names())
	}
	if len(routes.Routes()) != 0 {
		t.Error("routes left after revert")
	}
}

func TestRegisterRejectsHandlerWithoutServeRoute(t *testing.T) {
	beans := container.NewContainer()
	r := NewComponentRegistrar(beans, container.NewRouteTable(), nil)

	plugin := &fakeNativePlugin{
		infos: []sdk.ComponentInfo{
			{
				Name:   "BadHandler",
				Kind:   sdk.ComponentKindHandler,
				Routes: []sdk.RouteSpec{{Method: "GET", Path: "/x"}},
			},
		},
		factories: map[string]sdk.Factory{
			"BadHandler": func(sdk.Deps) (interface{}, error) { return &brokenHandler{}, nil },
		},
	}

	if _, err := r.Register(blogManifest("BadHandler"), plugin, newFakeResolver(beans)); err == nil {
		t.Error("handler that cannot serve its routes accepted")
	}
}

func TestRegisterReusesExistingBeans(t *testing.T) {
	beans := container.NewContainer()
	routes := container.NewRouteTable()
	r := NewComponentRegistrar(beans, routes, nil)

	repo := &testRepo{}
	if err := beans.Register("blog.PostRepository", repo); err != nil {
		t.Fatal(err)
	}

	manifest := blogManifest("PostRepository")
	plugin := &fakeNativePlugin{
		infos: []sdk.ComponentInfo{{Name: "PostRepository", Kind: sdk.ComponentKindRepository}},
		factories: map[string]sdk.Factory{
			"PostRepository": func(sdk.Deps) (interface{}, error) {
				t.Error("factory ran for an already registered bean")
				return &testRepo{}, nil
			},
		},
	}
	reg, err := r.Register(manifest, plugin, newFakeResolver(beans))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if len(reg.BeanNames) != 1 {
		t.Errorf("registered beans %v", reg.BeanNames)
	}
	got, _ := beans.Get("blog.PostRepository")
	if got != repo {
		t.Error("existing bean replaced")
	}
}

func TestUnregisterByID(t *testing.T) {
	beans := container.NewContainer()
	routes := container.NewRouteTable()
	r := NewComponentRegistrar(beans, routes, nil)

	manifest := blogManifest("PostHandler", "PostService", "PostRepository")
	if _, err := r.Register(manifest, fullBlogPlugin(), newFakeResolver(beans)); err != nil {
		t.Fatal(err)
	}
	if err := beans.Register("gallery.ImageRepository", &testRepo{}); err != nil {
		t.Fatal(err)
	}

	r.UnregisterByID("blog")

	if beans.Len() != 1 {
		t.Errorf("beans after unregister: %v", beans.Names())
	}
	if _, ok := beans.Get("gallery.ImageRepository"); !ok {
		t.Error("another plugin's bean removed")
	}
	if _, ok := routes.Lookup("GET", "/blog/posts"); ok {
		t.Error("routes survived unregister")
	}
}
