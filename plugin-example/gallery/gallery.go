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

// Package gallery is a bundled native plugin serving an image gallery. It
// doubles as the reference for plugin authors: one repository, one service,
// one handler with routes, one entity and a visual editor component.
package gallery

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/siteforge/siteforge/sdk"
)

// EntryPoint is the name the manifest references through entry_point.
const EntryPoint = "siteforge.gallery"

func init() {
	sdk.RegisterEntryPoint(EntryPoint, func() sdk.SitePlugin { return New() })
}

// Image is one gallery entry.
type Image struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// Plugin is the gallery plugin implementation.
type Plugin struct {
	sdk.BasePlugin
}

func New() *Plugin {
	return &Plugin{}
}

func (p *Plugin) OnLoad(hc *sdk.HookContext) error {
	hc.Logger().Info("gallery plugin loaded", "version", hc.Version)
	return nil
}

func (p *Plugin) OnActivate(hc *sdk.HookContext) error {
	if host := hc.Host(); host != nil {
		host.Publish("gallery.ready", map[string]interface{}{"plugin": hc.PluginID})
	}
	return nil
}

func (p *Plugin) Components() ([]sdk.ComponentInfo, error) {
	return []sdk.ComponentInfo{
		{Name: "ImageRepository", Kind: sdk.ComponentKindRepository},
		{Name: "GalleryService", Kind: sdk.ComponentKindService, DependsOn: []string{"ImageRepository"}},
		{
			Name:      "GalleryHandler",
			Kind:      sdk.ComponentKindHandler,
			DependsOn: []string{"GalleryService"},
			Routes: []sdk.RouteSpec{
				{Method: "GET", Path: "/images"},
				{Method: "POST", Path: "/images"},
			},
		},
		{Name: "GalleryImage", Kind: sdk.ComponentKindEntity, Table: "gallery_image"},
	}, nil
}

func (p *Plugin) ComponentFactory(name string) (sdk.Factory, bool) {
	switch name {
	case "ImageRepository":
		return func(sdk.Deps) (interface{}, error) {
			return newImageRepository(), nil
		}, true
	case "GalleryService":
		return func(deps sdk.Deps) (interface{}, error) {
			repo, ok := deps["ImageRepository"].(*imageRepository)
			if !ok {
				return nil, fmt.Errorf("ImageRepository has an unexpected type")
			}
			return &galleryService{repo: repo}, nil
		}, true
	case "GalleryHandler":
		return func(deps sdk.Deps) (interface{}, error) {
			svc, ok := deps["GalleryService"].(*galleryService)
			if !ok {
				return nil, fmt.Errorf("GalleryService has an unexpected type")
			}
			return &galleryHandler{svc: svc}, nil
		}, true
	default:
		return nil, false
	}
}

func (p *Plugin) UIComponents() ([]sdk.UIComponentSpec, error) {
	return []sdk.UIComponentSpec{
		{
			Name:      "image-grid",
			Label:     "Image Grid",
			Category:  "media",
			Icon:      "grid",
			AssetPath: "assets/image-grid.js",
			Schema: map[string]string{
				"columns": "number",
				"gap":     "number",
			},
		},
	}, nil
}

type imageRepository struct {
	mu     sync.RWMutex
	images map[string]Image
}

func newImageRepository() *imageRepository {
	return &imageRepository{images: make(map[string]Image)}
}

func (r *imageRepository) Save(img Image) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[img.ID] = img
}

func (r *imageRepository) All() []Image {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Image, 0, len(r.images))
	for _, img := range r.images {
		out = append(out, img)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type galleryService struct {
	repo *imageRepository
	host sdk.HostServices
}

// SetHost receives the host handle so the service can publish events.
func (s *galleryService) SetHost(host sdk.HostServices) {
	s.host = host
}

func (s *galleryService) Add(title, url string) Image {
	img := Image{
		ID:        fmt.Sprintf("img-%d", time.Now().UnixNano()),
		Title:     title,
		URL:       url,
		CreatedAt: time.Now(),
	}
	s.repo.Save(img)
	if s.host != nil {
		s.host.Publish("gallery.image.added", map[string]interface{}{"id": img.ID})
	}
	return img
}

func (s *galleryService) List() []Image {
	return s.repo.All()
}

type galleryHandler struct {
	svc *galleryService
}

func (h *galleryHandler) ServeRoute(_ context.Context, req *sdk.Request) (*sdk.Response, error) {
	switch {
	case req.Method == "GET" && strings.HasSuffix(req.Path, "/images"):
		body, err := json.Marshal(h.svc.List())
		if err != nil {
			return nil, err
		}
		return jsonResponse(200, body), nil
	case req.Method == "POST" && strings.HasSuffix(req.Path, "/images"):
		var in struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		}
		if err := json.Unmarshal(req.Body, &in); err != nil {
			return jsonResponse(400, []byte(`{"error":"invalid body"}`)), nil
		}
		img := h.svc.Add(in.Title, in.URL)
		body, err := json.Marshal(img)
		if err != nil {
			return nil, err
		}
		return jsonResponse(201, body), nil
	default:
		return jsonResponse(404, []byte(`{"error":"not found"}`)), nil
	}
}

func jsonResponse(status int, body []byte) *sdk.Response {
	return &sdk.Response{
		Status:  status,
		Headers: map[string][]string{"Content-Type": {"application/json"}},
		Body:    body,
	}
}
