package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pmxy/gallery/internal/models"
	"github.com/pmxy/gallery/internal/services"
	"k8s.io/klog/v2"
)

type GalleryHandler struct {
	galleryService *services.GalleryService
	qrService      *services.QRService
	auditService   *services.AuditService
}

func NewGalleryHandler(galleryService *services.GalleryService, qrService *services.QRService, auditService *services.AuditService) *GalleryHandler {
	return &GalleryHandler{
		galleryService: galleryService,
		qrService:      qrService,
		auditService:   auditService,
	}
}

// ListGalleries returns name and cover of every gallery
// GET /gallery
func (h *GalleryHandler) ListGalleries(c *gin.Context) {
	summaries, err := h.galleryService.ListGallerySummaries(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// GetGallery returns one gallery with all images
// GET /gallery/:name
func (h *GalleryHandler) GetGallery(c *gin.Context) {
	gallery, err := h.galleryService.GetGallery(c.Request.Context(), c.Param("name"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gallery)
}

// CreateGallery creates an empty gallery. The name is trimmed first, so
// "trip " conflicts with an existing "trip" (409) and a blank name is 400.
// Names containing "/" or "\" are rejected with 400.
// POST /gallery {"name": "..."}
func (h *GalleryHandler) CreateGallery(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	gallery, err := h.galleryService.CreateGallery(c.Request.Context(), req.Name)
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.audit(c, services.ActionCreateGallery, gallery.Name, "")
	c.JSON(http.StatusOK, gallery)
}

// DeleteGallery removes a gallery; unknown names still succeed
// DELETE /gallery/:name
func (h *GalleryHandler) DeleteGallery(c *gin.Context) {
	name := c.Param("name")
	if err := h.galleryService.DeleteGallery(c.Request.Context(), name); err != nil {
		abortWithError(c, err)
		return
	}

	h.audit(c, services.ActionDeleteGallery, name, "")
	c.Status(http.StatusOK)
}

// AddImage uploads an image into a gallery
// POST /gallery/:name
// Multipart form: image (required)
func (h *GalleryHandler) AddImage(c *gin.Context) {
	galleryName := c.Param("name")

	header, err := c.FormFile("image")
	if err != nil {
		// a missing gallery wins over a missing file
		if _, gerr := h.galleryService.GetGallery(c.Request.Context(), galleryName); gerr != nil {
			abortWithError(c, gerr)
			return
		}
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	file, err := header.Open()
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	defer file.Close()

	image, err := h.galleryService.AddImage(c.Request.Context(), galleryName, header.Filename, file)
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.audit(c, services.ActionAddImage, galleryName, image.Name)
	c.JSON(http.StatusOK, image)
}

// RemoveImage removes an image from a gallery's list
// DELETE /gallery/:name/:imageName
func (h *GalleryHandler) RemoveImage(c *gin.Context) {
	galleryName := c.Param("name")
	imageName := c.Param("imageName")

	if err := h.galleryService.RemoveImage(c.Request.Context(), galleryName, imageName); err != nil {
		abortWithError(c, err)
		return
	}

	h.audit(c, services.ActionRemoveImage, galleryName, imageName)
	c.Status(http.StatusOK)
}

// GetSharePDF renders a printable sheet with a QR code for the gallery page
// GET /gallery/:name/share.pdf
func (h *GalleryHandler) GetSharePDF(c *gin.Context) {
	gallery, err := h.galleryService.GetGallery(c.Request.Context(), c.Param("name"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	pdf, err := h.qrService.GenerateSharePDF(gallery)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="gallery-share.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *GalleryHandler) audit(c *gin.Context, action, gallery, image string) {
	h.auditService.LogAction(models.AuditLog{
		Action:    action,
		Gallery:   gallery,
		Image:     image,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrGalleryNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrGalleryExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrGalleryNameRequired),
		errors.Is(err, services.ErrGalleryNameInvalid),
		errors.Is(err, services.ErrUnsupportedImage):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrAuditDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		klog.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		klog.V(1).Infof("%s %s: %d %v", c.Request.Method, c.Request.URL.Path, status, err)
	}
	_ = c.Error(err)
	c.AbortWithStatus(status)
}
