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

package common

import (
	"fmt"
	"os"

	"github.com/siteforge/siteforge/internal/utils"
	"github.com/siteforge/siteforge/version"
	"github.com/spf13/cobra"
)

// CheckSiteForgeServer checks if the server is running before commands that
// need it.
func CheckSiteForgeServer(cmd *cobra.Command, args []string) {
	if !utils.IsServerRunning() {
		fmt.Println("SiteForge server is not running, please run 'siteforge server start' first")
		os.Exit(1)
	}
}

// NewVersionCommand prints the build version.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of SiteForge",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("SiteForge " + version.SiteForgeVersion)
		},
	}
}
