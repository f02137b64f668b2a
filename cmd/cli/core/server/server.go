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

package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/siteforge/siteforge/config"
	"github.com/siteforge/siteforge/internal/api"
	"github.com/siteforge/siteforge/internal/catalog"
	"github.com/siteforge/siteforge/internal/constants"
	"github.com/siteforge/siteforge/internal/container"
	"github.com/siteforge/siteforge/internal/datastore"
	"github.com/siteforge/siteforge/internal/datastore/sqlite"
	"github.com/siteforge/siteforge/internal/event"
	"github.com/siteforge/siteforge/internal/logger"
	"github.com/siteforge/siteforge/internal/plugin"
	"github.com/spf13/cobra"

	// Bundled native plugins register their entry points at init time.
	_ "github.com/siteforge/siteforge/plugin-example/gallery"
)

// NewApiserverCommand creates the server management command
func NewApiserverCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Manage " + constants.AppName + " server",
		Long:  "Manage " + constants.AppName + " server (start, stop, etc.)",
	}

	cmd.AddCommand(
		NewStartApiServerCommand(),
		NewStopApiServerCommand(),
	)

	return cmd
}

// NewStartApiServerCommand creates the start server command
func NewStartApiServerCommand() *cobra.Command {
	config.GlobalEnvironment = config.NewSiteForgeEnvironment()
	logger.InitLogger(logger.LogConfig{LogLevel: config.LogLevelWarn, LogPath: config.GlobalEnvironment.LogDir})
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the " + constants.AppName + " server",
		Long:  "Start the " + constants.AppName + " server",
		RunE: func(cmd *cobra.Command, args []string) error {
			isDebug, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}

			logLevel := config.LogLevelError
			if isDebug {
				logLevel = config.LogLevelDebug
			}
			config.GlobalEnvironment.LogLevel = logLevel
			logger.InitLogger(logger.LogConfig{LogLevel: logLevel, LogPath: config.GlobalEnvironment.LogDir})
			config.GlobalEnvironment.SetSlogColor()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Run(ctx)
		},
	}

	cmd.Flags().BoolP("verbose", "v", false, "Enable debug mode")
	return cmd
}

// NewStopApiServerCommand creates the stop server command
func NewStopApiServerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop a running server.",
		Long:  "Stop a running server.",
		Args:  cobra.ExactArgs(0),
		RunE:  stopServer,
	}
}

func stopServer(cmd *cobra.Command, args []string) error {
	files, err := filepath.Glob(filepath.Join(config.GlobalEnvironment.RootDir, "*.pid"))
	if err != nil {
		return fmt.Errorf("failed to list pid files: %v", err)
	}

	if len(files) == 0 {
		fmt.Println("No running processes found")
		return nil
	}

	for _, pidFile := range files {
		pidData, err := os.ReadFile(pidFile)
		if err != nil {
			fmt.Printf("Failed to read PID file %s: %v\n", pidFile, err)
			continue
		}

		pid, err := strconv.Atoi(strings.TrimSpace(string(pidData)))
		if err != nil {
			fmt.Printf("Invalid PID in file %s: %v\n", pidFile, err)
			continue
		}

		process, err := os.FindProcess(pid)
		if err != nil {
			fmt.Printf("Failed to find process with PID %d: %v\n", pid, err)
			continue
		}

		if err := process.Kill(); err != nil {
			if strings.Contains(err.Error(), "process already finished") {
				fmt.Printf("Process with PID %d is already stopped\n", pid)
			} else {
				fmt.Printf("Failed to kill process with PID %d: %v\n", pid, err)
				continue
			}
		} else {
			fmt.Printf("Successfully stopped process with PID %d\n", pid)
		}

		if err := os.Remove(pidFile); err != nil {
			fmt.Printf("Failed to remove PID file %s: %v\n", pidFile, err)
		}
	}

	return nil
}

// Run starts the SiteForge server
func Run(ctx context.Context) error {
	// Initialize the datastore
	ds, err := sqlite.New(config.GlobalEnvironment.Datastore)
	if err != nil {
		slog.Error("[Init] Failed to load datastore", "error", err)
		return err
	}
	if err := ds.Init(); err != nil {
		slog.Error("[Init] Failed to initialize database", "error", err)
		return err
	}
	datastore.SetDefaultDatastore(ds)

	// Live runtime state shared with plugins
	beans := container.NewContainer()
	routes := container.NewRouteTable()
	cat := catalog.New()
	bus := event.NewBus()

	manager := plugin.NewManager(plugin.ManagerConfig{
		PluginDir: config.GlobalEnvironment.PluginDir,
		DataDir:   config.GlobalEnvironment.PluginDataDir,
	}, ds, beans, routes, cat, bus, ds.GetDB())

	forgeServer := api.NewSiteForgeCoreServer(manager, bus)
	forgeServer.Register()

	logger.LogicLogger.Info("start_app")

	// Inject the router
	api.InjectRouter(forgeServer)

	// Bring persisted-active plugins back up before serving traffic.
	if err := manager.LoadActivated(ctx); err != nil {
		slog.Error("[Init] Failed to reload activated plugins", "error", err)
	}

	pidFile := filepath.Join(config.GlobalEnvironment.RootDir, constants.AppName+".pid")
	err = os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0o644)
	if err != nil {
		slog.Error("[Run] Failed to write pid file", "error", err)
		return err
	}

	_, _ = color.New(color.FgHiGreen).Println("SiteForge starting on", config.GlobalEnvironment.ApiHost)

	err = forgeServer.Run(ctx, config.GlobalEnvironment.ApiHost)
	if err != nil {
		slog.Error("[Run] Failed to run server", "error", err)
		return err
	}

	return nil
}
