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
	"os"
	"text/tabwriter"

	"github.com/siteforge/siteforge/cmd/cli/core/common"
	"github.com/siteforge/siteforge/config"
	"github.com/siteforge/siteforge/internal/api/dto"
	"github.com/spf13/cobra"
)

// NewListPluginsCommand creates a command to list all installed plugins
func NewListPluginsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "list",
		Short:  "List all installed plugins",
		Long:   "List all installed plugins with their details.",
		Args:   cobra.ExactArgs(0),
		PreRun: common.CheckSiteForgeServer,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPlugins()
		},
	}

	return cmd
}

func listPlugins() error {
	c := config.NewSiteForgeClient()

	resp := dto.GetPluginListResponse{}
	if err := c.Client.Do(context.Background(), http.MethodGet, apiPath(""), nil, &resp); err != nil {
		return fmt.Errorf("failed to list plugins: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVERSION\tKIND\tSTATUS")
	for _, p := range resp.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.PluginID, p.Name, p.Version, p.Kind, p.Status)
	}
	return w.Flush()
}
