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

package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/siteforge/siteforge/config"
	"github.com/siteforge/siteforge/internal/api/dto"
	"github.com/siteforge/siteforge/internal/constants"
	"github.com/siteforge/siteforge/internal/logger"
	"github.com/siteforge/siteforge/internal/utils/bcode"
	"github.com/siteforge/siteforge/sdk"
	"github.com/siteforge/siteforge/version"
)

func InjectRouter(e *SiteForgeCoreServer) {
	// The editor frontend runs on its own dev origin.
	e.Router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
	}))

	e.Router.Handle(http.MethodGet, "/", rootHandler)
	e.Router.Handle(http.MethodGet, "/health", healthHandler)
	e.Router.Handle(http.MethodGet, "/version", getVersion)

	r := e.Router.Group("/" + constants.AppName + "/" + version.SpecVersion)

	r.Handle(http.MethodPost, "/plugin/install", e.PluginInstall)
	r.Handle(http.MethodPost, "/plugin/upload", e.PluginUpload)
	r.Handle(http.MethodPost, "/plugin/upgrade", e.PluginUpgrade)
	r.Handle(http.MethodPost, "/plugin/activate", e.PluginActivate)
	r.Handle(http.MethodPost, "/plugin/deactivate", e.PluginDeactivate)
	r.Handle(http.MethodDelete, "/plugin", e.PluginUninstall)
	r.Handle(http.MethodGet, "/plugin", e.PluginList)
	r.Handle(http.MethodGet, "/plugin/info", e.PluginInfo)

	r.Handle(http.MethodGet, "/catalog", e.CatalogList)
	r.Handle(http.MethodGet, "/routes", e.RouteList)
	r.Handle(http.MethodGet, "/system", e.SystemInfo)

	e.Router.Handle(http.MethodGet, "/ws/events", e.EventStream)

	// All plugin-contributed routes hang off one catch-all so they can come
	// and go without touching the router itself.
	e.Router.Any("/ext/*path", e.DispatchPluginRoute)

	logger.ApiLogger.Info("router ready", "host", config.GlobalEnvironment.ApiHost)
}

func rootHandler(c *gin.Context) {
	c.String(http.StatusOK, "SiteForge")
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]string{"status": "UP"})
}

func getVersion(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]string{"version": version.SiteForgeVersion})
}

// RouteList reports the current dynamic route table and its generation.
func (t *SiteForgeCoreServer) RouteList(c *gin.Context) {
	rt := t.Manager.RouteTable()
	entries := rt.Routes()
	data := make([]dto.Route, 0, len(entries))
	for _, e := range entries {
		data = append(data, dto.Route{
			Method:    e.Method,
			Path:      e.Path,
			PluginID:  e.PluginID,
			Component: e.Component,
		})
	}
	c.JSON(http.StatusOK, dto.GetRoutesResponse{
		Bcode:   *bcode.SuccessCode,
		Version: rt.Version(),
		Data:    data,
	})
}

// DispatchPluginRoute resolves the request against the dynamic route table
// and forwards it to the owning plugin component.
func (t *SiteForgeCoreServer) DispatchPluginRoute(c *gin.Context) {
	path := c.Param("path")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	entry, ok := t.Manager.RouteTable().Lookup(c.Request.Method, path)
	if !ok {
		bcode.ReturnError(c, bcode.ErrNotFound)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		bcode.ReturnError(c, err)
		return
	}

	req := &sdk.Request{
		Method:  c.Request.Method,
		Path:    path,
		Headers: c.Request.Header,
		Query:   c.Request.URL.Query(),
		Body:    body,
	}

	resp, err := entry.Handler.ServeRoute(c.Request.Context(), req)
	if err != nil {
		logger.ApiLogger.Error("plugin route failed",
			"plugin", entry.PluginID, "component", entry.Component, "path", path, "error", err)
		bcode.ReturnError(c, err)
		return
	}

	for key, values := range resp.Headers {
		for _, v := range values {
			c.Writer.Header().Add(key, v)
		}
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	c.Data(status, c.Writer.Header().Get("Content-Type"), resp.Body)
}
