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
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/siteforge/siteforge/internal/constants"
)

var validate = validator.New()

var pluginIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// Custom error message mapping
var validationErrorMessages = map[string]string{
	"required":    "This field is required",
	"plugin_id":   "Invalid plugin id",
	"archive_ext": "Unsupported archive extension",
	"min":         "Length cannot be less than minimum value",
	"max":         "Length cannot exceed maximum value",
}

func init() {
	validate.RegisterValidation("plugin_id", validatePluginID)
	validate.RegisterValidation("archive_ext", validateArchiveExt)
}

func validatePluginID(fl validator.FieldLevel) bool {
	return pluginIDPattern.MatchString(fl.Field().String())
}

func validateArchiveExt(fl validator.FieldLevel) bool {
	ext := strings.ToLower(filepath.Ext(fl.Field().String()))
	return ext == constants.PluginArchiveExt || ext == constants.PluginArchiveExtZip
}

// FormatValidationError turns validator errors into readable messages.
func FormatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, e := range validationErrors {
			if msg, exists := validationErrorMessages[e.Tag()]; exists {
				messages = append(messages, fmt.Sprintf("%s: %s", e.Field(), msg))
			} else {
				messages = append(messages, fmt.Sprintf("%s: validation failed (%s)", e.Field(), e.Tag()))
			}
		}
		return fmt.Errorf("parameter validation failed: %s", strings.Join(messages, "; "))
	}
	return err
}
