package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pmxy/gallery/internal/services"
)

type AssetHandler struct {
	assetService *services.AssetService
}

func NewAssetHandler(assetService *services.AssetService) *AssetHandler {
	return &AssetHandler{assetService: assetService}
}

// ServeOriginal serves an uploaded image
// GET /images/*filepath
func (h *AssetHandler) ServeOriginal(c *gin.Context) {
	h.serve(c, services.AssetOriginal)
}

// ServeThumbnail serves a generated thumbnail
// GET /thumbs/*filepath
func (h *AssetHandler) ServeThumbnail(c *gin.Context) {
	h.serve(c, services.AssetThumbnail)
}

func (h *AssetHandler) serve(c *gin.Context, kind services.AssetKind) {
	name := strings.TrimPrefix(c.Param("filepath"), "/")

	f, st, err := h.assetService.Open(kind, name)
	if errors.Is(err, fs.ErrNotExist) {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer f.Close()

	contentType, err := services.DetectContentType(f)
	if err != nil {
		abortWithError(c, err)
		return
	}

	// names carry an upload timestamp and never change content
	c.Header("Cache-Control", "public, max-age=31536000")
	c.Header("Content-Type", contentType)
	http.ServeContent(c.Writer, c.Request, name, st.ModTime(), f)
}
