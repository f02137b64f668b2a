package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/siteforge/siteforge/internal/api/dto"
	"github.com/siteforge/siteforge/internal/constants"
	"github.com/siteforge/siteforge/internal/utils/bcode"
)

func (t *SiteForgeCoreServer) PluginInstall(c *gin.Context) {
	request := new(dto.InstallPluginRequest)
	if err := c.Bind(request); err != nil {
		bcode.ReturnError(c, bcode.ErrPluginArchiveInvalid)
		return
	}

	if err := validate.Struct(request); err != nil {
		bcode.ReturnError(c, FormatValidationError(err))
		return
	}

	ctx := c.Request.Context()
	data, err := t.Plugin.InstallPlugin(ctx, request)
	if err != nil {
		bcode.ReturnError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// PluginUpload installs a plugin from a multipart archive upload. The upload
// is staged under a unique temp name so concurrent uploads of the same
// filename cannot clobber each other.
func (t *SiteForgeCoreServer) PluginUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		bcode.ReturnError(c, bcode.ErrPluginArchiveInvalid)
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != constants.PluginArchiveExt && ext != constants.PluginArchiveExtZip {
		bcode.ReturnError(c, bcode.ErrPluginArchiveInvalid)
		return
	}

	staged := filepath.Join(os.TempDir(), "siteforge-upload-"+uuid.NewString()+ext)
	if err := c.SaveUploadedFile(file, staged); err != nil {
		bcode.ReturnError(c, err)
		return
	}
	defer os.Remove(staged)

	ctx := c.Request.Context()
	data, err := t.Plugin.InstallPlugin(ctx, &dto.InstallPluginRequest{ArchivePath: staged})
	if err != nil {
		bcode.ReturnError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (t *SiteForgeCoreServer) PluginUpgrade(c *gin.Context) {
	request := new(dto.UpgradePluginRequest)
	if err := c.Bind(request); err != nil {
		bcode.ReturnError(c, bcode.ErrPluginArchiveInvalid)
		return
	}

	if err := validate.Struct(request); err != nil {
		bcode.ReturnError(c, FormatValidationError(err))
		return
	}

	ctx := c.Request.Context()
	data, err := t.Plugin.UpgradePlugin(ctx, request)
	if err != nil {
		bcode.ReturnError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (t *SiteForgeCoreServer) PluginActivate(c *gin.Context) {
	request := new(dto.ActivatePluginRequest)
	if err := c.Bind(request); err != nil {
		bcode.ReturnError(c, bcode.ErrPluginNotFound)
		return
	}

	if err := validate.Struct(request); err != nil {
		bcode.ReturnError(c, FormatValidationError(err))
		return
	}

	ctx := c.Request.Context()
	data, err := t.Plugin.ActivatePlugin(ctx, request)
	if err != nil {
		bcode.ReturnError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (t *SiteForgeCoreServer) PluginDeactivate(c *gin.Context) {
	request := new(dto.DeactivatePluginRequest)
	if err := c.Bind(request); err != nil {
		bcode.ReturnError(c, bcode.ErrPluginNotFound)
		return
	}

	if err := validate.Struct(request); err != nil {
		bcode.ReturnError(c, FormatValidationError(err))
		return
	}

	ctx := c.Request.Context()
	data, err := t.Plugin.DeactivatePlugin(ctx, request)
	if err != nil {
		bcode.ReturnError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (t *SiteForgeCoreServer) PluginUninstall(c *gin.Context) {
	request := new(dto.UninstallPluginRequest)
	if err := c.Bind(request); err != nil {
		bcode.ReturnError(c, bcode.ErrPluginNotFound)
		return
	}

	if err := validate.Struct(request); err != nil {
		bcode.ReturnError(c, FormatValidationError(err))
		return
	}

	ctx := c.Request.Context()
	data, err := t.Plugin.UninstallPlugin(ctx, request)
	if err != nil {
		bcode.ReturnError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (t *SiteForgeCoreServer) PluginList(c *gin.Context) {
	ctx := c.Request.Context()
	data, err := t.Plugin.GetPluginList(ctx)
	if err != nil {
		bcode.ReturnError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (t *SiteForgeCoreServer) PluginInfo(c *gin.Context) {
	request := new(dto.GetPluginInfoRequest)
	if err := c.Bind(request); err != nil {
		bcode.ReturnError(c, bcode.ErrPluginNotFound)
		return
	}

	if err := validate.Struct(request); err != nil {
		bcode.ReturnError(c, FormatValidationError(err))
		return
	}

	ctx := c.Request.Context()
	data, err := t.Plugin.GetPluginInfo(ctx, request)
	if err != nil {
		bcode.ReturnError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}
