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

package plugin

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/siteforge/siteforge/cmd/cli/core/common"
	"github.com/siteforge/siteforge/config"
	"github.com/siteforge/siteforge/internal/api/dto"
	"github.com/spf13/cobra"
)

// NewInstallPluginCommand creates a command to install a plugin archive
func NewInstallPluginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "install <archive>",
		Short:  "Install a plugin archive",
		Long:   "Install a plugin archive (.sfp or .zip) into the managed plugin directory.",
		Args:   cobra.ExactArgs(1),
		PreRun: common.CheckSiteForgeServer,
		RunE: func(cmd *cobra.Command, args []string) error {
			return installPlugin(args[0])
		},
	}

	return cmd
}

func installPlugin(archivePath string) error {
	abs, err := filepath.Abs(archivePath)
	if err != nil {
		return err
	}

	c := config.NewSiteForgeClient()

	req := dto.InstallPluginRequest{ArchivePath: abs}
	resp := dto.InstallPluginResponse{}

	if err := c.Client.Do(context.Background(), http.MethodPost, apiPath("install"), req, &resp); err != nil {
		return fmt.Errorf("failed to install plugin: %w", err)
	}

	fmt.Printf("Successfully installed plugin: %s %s\n", resp.Data.PluginID, resp.Data.Version)
	return nil
}

// NewUpgradePluginCommand creates a command to upgrade a plugin in place
func NewUpgradePluginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "upgrade <archive>",
		Short:  "Upgrade a plugin from a new archive",
		Long:   "Install a newer archive for an existing plugin id and activate it immediately.",
		Args:   cobra.ExactArgs(1),
		PreRun: common.CheckSiteForgeServer,
		RunE: func(cmd *cobra.Command, args []string) error {
			return upgradePlugin(args[0])
		},
	}

	return cmd
}

func upgradePlugin(archivePath string) error {
	abs, err := filepath.Abs(archivePath)
	if err != nil {
		return err
	}

	c := config.NewSiteForgeClient()

	req := dto.UpgradePluginRequest{ArchivePath: abs}
	resp := dto.UpgradePluginResponse{}

	if err := c.Client.Do(context.Background(), http.MethodPost, apiPath("upgrade"), req, &resp); err != nil {
		return fmt.Errorf("failed to upgrade plugin: %w", err)
	}

	fmt.Printf("Successfully upgraded plugin: %s %s\n", resp.Data.PluginID, resp.Data.Version)
	return nil
}
