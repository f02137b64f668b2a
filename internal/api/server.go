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
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/siteforge/siteforge/internal/event"
	"github.com/siteforge/siteforge/internal/logger"
	"github.com/siteforge/siteforge/internal/plugin"
	"github.com/siteforge/siteforge/internal/server"
)

// SiteForgeCoreServer carries the router and the service layer behind the
// admin API.
type SiteForgeCoreServer struct {
	Router  *gin.Engine
	Manager *plugin.Manager
	Bus     *event.Bus

	Plugin server.Plugin
}

func NewSiteForgeCoreServer(manager *plugin.Manager, bus *event.Bus) *SiteForgeCoreServer {
	gin.SetMode(gin.ReleaseMode)
	return &SiteForgeCoreServer{
		Router:  gin.New(),
		Manager: manager,
		Bus:     bus,
	}
}

// Register wires the service layer implementations.
func (t *SiteForgeCoreServer) Register() {
	t.Plugin = server.NewPlugin(t.Manager)
}

// Run serves the admin API until the context is cancelled.
func (t *SiteForgeCoreServer) Run(ctx context.Context, host string) error {
	srv := &http.Server{
		Addr:    host,
		Handler: t.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.ApiLogger.Error("server shutdown failed", "error", err)
			return err
		}
		return nil
	}
}
