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

package container

import (
	"context"
	"testing"

	"github.com/siteforge/siteforge/sdk"
)

type nopHandler struct{}

func (nopHandler) ServeRoute(context.Context, *sdk.Request) (*sdk.Response, error) {
	return &sdk.Response{Status: 200}, nil
}

func TestRouteTableApplyAndLookup(t *testing.T) {
	rt := NewRouteTable()
	h := nopHandler{}

	err := rt.ApplyBatch("blog", []RouteEntry{
		{Method: "get", Path: "/blog/posts", Component: "PostHandler", Handler: h},
		{Method: "POST", Path: "/blog/posts", Component: "PostHandler", Handler: h},
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if rt.Version() != 1 {
		t.Errorf("version %d after one batch", rt.Version())
	}

	entry, ok := rt.Lookup("GET", "/blog/posts")
	if !ok {
		t.Fatal("applied route not found")
	}
	if entry.PluginID != "blog" || entry.Method != "GET" {
		t.Errorf("lookup returned %+v", entry)
	}
	if _, ok := rt.Lookup("DELETE", "/blog/posts"); ok {
		t.Error("unregistered method resolved")
	}
}

func TestRouteTableRejectsMalformedBatch(t *testing.T) {
	rt := NewRouteTable()
	h := nopHandler{}

	cases := []struct {
		name    string
		entries []RouteEntry
	}{
		{"missing method", []RouteEntry{{Path: "/x", Handler: h}}},
		{"relative path", []RouteEntry{{Method: "GET", Path: "x", Handler: h}}},
		{"nil handler", []RouteEntry{{Method: "GET", Path: "/x"}}},
		{"duplicate in batch", []RouteEntry{
			{Method: "GET", Path: "/x", Handler: h},
			{Method: "get", Path: "/x", Handler: h},
		}},
	}
	for _, tc := range cases {
		if err := rt.ApplyBatch("blog", tc.entries); err == nil {
			t.Errorf("%s: batch accepted", tc.name)
		}
	}
	if rt.Version() != 0 {
		t.Errorf("rejected batches bumped the version to %d", rt.Version())
	}
	if len(rt.Routes()) != 0 {
		t.Error("rejected batches left routes behind")
	}
}

func TestRouteTableCollisionIsAtomic(t *testing.T) {
	rt := NewRouteTable()
	h := nopHandler{}

	if err := rt.ApplyBatch("blog", []RouteEntry{
		{Method: "GET", Path: "/shared", Handler: h},
	}); err != nil {
		t.Fatal(err)
	}

	err := rt.ApplyBatch("gallery", []RouteEntry{
		{Method: "GET", Path: "/gallery/images", Handler: h},
		{Method: "GET", Path: "/shared", Handler: h},
	})
	if err == nil {
		t.Fatal("cross-plugin collision accepted")
	}

	// Nothing from the failed batch may be visible.
	if _, ok := rt.Lookup("GET", "/gallery/images"); ok {
		t.Error("partial batch applied")
	}
	entry, _ := rt.Lookup("GET", "/shared")
	if entry.PluginID != "blog" {
		t.Errorf("colliding route now owned by %q", entry.PluginID)
	}
	if rt.Version() != 1 {
		t.Errorf("failed batch changed the version to %d", rt.Version())
	}

	// The same plugin may re-own its route across batches.
	if err := rt.ApplyBatch("blog", []RouteEntry{
		{Method: "GET", Path: "/shared", Handler: h},
	}); err != nil {
		t.Errorf("same-plugin re-apply rejected: %v", err)
	}
}

func TestRouteTableRevertPlugin(t *testing.T) {
	rt := NewRouteTable()
	h := nopHandler{}

	if err := rt.ApplyBatch("blog", []RouteEntry{
		{Method: "GET", Path: "/blog/posts", Handler: h},
		{Method: "POST", Path: "/blog/posts", Handler: h},
	}); err != nil {
		t.Fatal(err)
	}
	if err := rt.ApplyBatch("gallery", []RouteEntry{
		{Method: "GET", Path: "/gallery/images", Handler: h},
	}); err != nil {
		t.Fatal(err)
	}

	if removed := rt.RevertPlugin("blog"); removed != 2 {
		t.Errorf("reverted %d routes, want 2", removed)
	}
	if _, ok := rt.Lookup("GET", "/blog/posts"); ok {
		t.Error("reverted route still resolvable")
	}
	if _, ok := rt.Lookup("GET", "/gallery/images"); !ok {
		t.Error("revert removed another plugin's route")
	}

	// Reverting again is a no-op and does not bump the version.
	v := rt.Version()
	if removed := rt.RevertPlugin("blog"); removed != 0 {
		t.Errorf("second revert removed %d routes", removed)
	}
	if rt.Version() != v {
		t.Error("no-op revert changed the version")
	}
}
