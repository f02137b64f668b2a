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

// A standalone blog plugin. It runs as a child process of the host and
// serves all of its traffic through Invoke.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/siteforge/siteforge/sdk"
)

const postsFile = "posts.json"

type post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type blogPlugin struct {
	sdk.BasePlugin

	mu      sync.RWMutex
	posts   map[string]post
	dataDir string
}

func newBlogPlugin() *blogPlugin {
	return &blogPlugin{posts: make(map[string]post)}
}

func (p *blogPlugin) OnLoad(hc *sdk.HookContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dataDir = hc.DataDir
	data, err := os.ReadFile(filepath.Join(hc.DataDir, postsFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	var saved []post
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("stored posts are corrupt: %w", err)
	}
	for _, item := range saved {
		p.posts[item.ID] = item
	}
	return nil
}

func (p *blogPlugin) OnDeactivate(*sdk.HookContext) error {
	return p.persist()
}

func (p *blogPlugin) persist() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.dataDir == "" {
		return nil
	}
	data, err := json.Marshal(p.list())
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(p.dataDir, postsFile), data, 0o644)
}

func (p *blogPlugin) Components() ([]sdk.ComponentInfo, error) {
	return []sdk.ComponentInfo{
		{
			Name: "PostHandler",
			Kind: sdk.ComponentKindHandler,
			Routes: []sdk.RouteSpec{
				{Method: "GET", Path: "/posts"},
				{Method: "POST", Path: "/posts"},
			},
		},
		{Name: "BlogPost", Kind: sdk.ComponentKindEntity, Table: "blog_post"},
	}, nil
}

func (p *blogPlugin) UIComponents() ([]sdk.UIComponentSpec, error) {
	return []sdk.UIComponentSpec{
		{
			Name:      "post-list",
			Label:     "Post List",
			Category:  "content",
			Icon:      "list",
			AssetPath: "assets/post-list.js",
			Schema:    map[string]string{"limit": "number"},
		},
	}, nil
}

func (p *blogPlugin) Invoke(req *sdk.InvokeRequest) (*sdk.InvokeResponse, error) {
	if req.Component != "PostHandler" {
		return reply(404, []byte(`{"error":"unknown component"}`)), nil
	}
	r := req.Request
	switch {
	case r.Method == "GET" && strings.HasSuffix(r.Path, "/posts"):
		p.mu.RLock()
		body, err := json.Marshal(p.list())
		p.mu.RUnlock()
		if err != nil {
			return nil, err
		}
		return reply(200, body), nil
	case r.Method == "POST" && strings.HasSuffix(r.Path, "/posts"):
		var in struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(r.Body, &in); err != nil {
			return reply(400, []byte(`{"error":"invalid body"}`)), nil
		}
		item := post{
			ID:        fmt.Sprintf("post-%d", time.Now().UnixNano()),
			Title:     in.Title,
			Content:   in.Content,
			CreatedAt: time.Now(),
		}
		p.mu.Lock()
		p.posts[item.ID] = item
		p.mu.Unlock()
		body, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		return reply(201, body), nil
	default:
		return reply(404, []byte(`{"error":"not found"}`)), nil
	}
}

// list returns posts sorted by id. Callers hold the lock.
func (p *blogPlugin) list() []post {
	out := make([]post, 0, len(p.posts))
	for _, item := range p.posts {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func reply(status int, body []byte) *sdk.InvokeResponse {
	return &sdk.InvokeResponse{Response: sdk.Response{
		Status:  status,
		Headers: map[string][]string{"Content-Type": {"application/json"}},
		Body:    body,
	}}
}

func main() {
	sdk.Serve(newBlogPlugin())
}
