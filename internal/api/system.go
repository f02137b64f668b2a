package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
	"github.com/siteforge/siteforge/version"
)

// SystemInfo reports host platform facts for the admin dashboard.
func (t *SiteForgeCoreServer) SystemInfo(c *gin.Context) {
	data := gin.H{
		"version": version.SiteForgeVersion,
	}

	if info, err := host.Info(); err == nil {
		data["os"] = info.OS
		data["platform"] = info.Platform
		data["platform_version"] = info.PlatformVersion
		data["uptime"] = info.Uptime
	}
	if counts, err := cpu.Counts(true); err == nil {
		data["cpu_count"] = counts
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		data["memory_total"] = vm.Total
		data["memory_used_percent"] = vm.UsedPercent
	}

	c.JSON(http.StatusOK, data)
}
