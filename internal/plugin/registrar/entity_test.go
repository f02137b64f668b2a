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
	"testing"

	"github.com/siteforge/siteforge/sdk"
)

func TestEntityRegistrarTracksDeclaredEntities(t *testing.T) {
	r := NewEntityRegistrar(nil)

	manifest := &sdk.Manifest{
		ID:   "blog",
		Scan: sdk.ScanSpec{Entities: sdk.StringList{"BlogPost"}},
	}
	infos := []sdk.ComponentInfo{
		{Name: "BlogPost", Kind: sdk.ComponentKindEntity, Table: "blog_post"},
		{Name: "Draft", Kind: sdk.ComponentKindEntity, Table: "blog_draft"},
		{Name: "PostService", Kind: sdk.ComponentKindService},
	}

	if err := r.Register(manifest, infos); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Only the manifest-declared entity is tracked; the undeclared one and
	// the non-entity component are ignored.
	got := r.Entities("blog")
	if len(got) != 1 || got[0] != "BlogPost" {
		t.Errorf("tracked entities %v", got)
	}

	r.Unregister("blog")
	if len(r.Entities("blog")) != 0 {
		t.Error("entities survived unregister")
	}
	r.Unregister("blog")
}

func TestEntityRegistrarWithoutDeclarationsTracksAll(t *testing.T) {
	r := NewEntityRegistrar(nil)

	manifest := &sdk.Manifest{ID: "gallery"}
	infos := []sdk.ComponentInfo{
		{Name: "GalleryImage", Kind: sdk.ComponentKindEntity, Table: "gallery_image"},
		{Name: "Album", Kind: sdk.ComponentKindEntity},
	}

	if err := r.Register(manifest, infos); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if got := r.Entities("gallery"); len(got) != 2 {
		t.Errorf("tracked entities %v", got)
	}
}
