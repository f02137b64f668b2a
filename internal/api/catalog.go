package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CatalogList returns the visual editor component palette contributed by
// activated plugins.
func (t *SiteForgeCoreServer) CatalogList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"business_code": 200,
		"data":          t.Manager.Catalog().List(),
	})
}
