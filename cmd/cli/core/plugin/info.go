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
	"net/url"

	"github.com/siteforge/siteforge/cmd/cli/core/common"
	"github.com/siteforge/siteforge/config"
	"github.com/siteforge/siteforge/internal/api/dto"
	"github.com/spf13/cobra"
)

// NewPluginInfoCommand creates a command to show one plugin's details
func NewPluginInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "info <plugin-id>",
		Short:  "Show details of an installed plugin",
		Args:   cobra.ExactArgs(1),
		PreRun: common.CheckSiteForgeServer,
		RunE: func(cmd *cobra.Command, args []string) error {
			return pluginInfo(args[0])
		},
	}

	return cmd
}

func pluginInfo(pluginID string) error {
	c := config.NewSiteForgeClient()

	params := url.Values{}
	params.Add("plugin_id", pluginID)

	resp := dto.GetPluginInfoResponse{}
	path := apiPath("info") + "?" + params.Encode()
	if err := c.Client.Do(context.Background(), http.MethodGet, path, nil, &resp); err != nil {
		return fmt.Errorf("failed to get plugin %s: %w", pluginID, err)
	}

	p := resp.Data
	fmt.Printf("ID:          %s\n", p.PluginID)
	fmt.Printf("Name:        %s\n", p.Name)
	fmt.Printf("Version:     %s\n", p.Version)
	fmt.Printf("Author:      %s\n", p.Author)
	fmt.Printf("Kind:        %s\n", p.Kind)
	fmt.Printf("Status:      %s\n", p.Status)
	fmt.Printf("Archive:     %s\n", p.ArchivePath)
	fmt.Printf("Description: %s\n", p.Description)
	return nil
}
