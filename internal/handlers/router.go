package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/pmxy/gallery/internal/config"
	"github.com/pmxy/gallery/internal/middleware"
	"github.com/pmxy/gallery/internal/services"
)

// AuthRealm is sent in the Basic auth challenge.
const AuthRealm = "gallery"

// Services bundles what the router needs.
type Services struct {
	Gallery *services.GalleryService
	Assets  *services.AssetService
	Auth    *services.AuthService
	Audit   *services.AuditService
	QR      *services.QRService
}

// NewRouter builds the gin engine with all routes.
func NewRouter(cfg *config.Config, svc Services) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = cfg.UploadMaxBytes
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Security(cfg))
	router.Use(middleware.CORS(cfg))

	galleryHandler := NewGalleryHandler(svc.Gallery, svc.QR, svc.Audit)
	assetHandler := NewAssetHandler(svc.Assets)
	adminHandler := NewAdminHandler(svc.Audit)
	authorize := middleware.BasicAuth(svc.Auth, AuthRealm)

	router.GET("/", Status)

	// Static assets
	router.GET("/images/*filepath", assetHandler.ServeOriginal)
	router.GET("/thumbs/*filepath", assetHandler.ServeThumbnail)

	// Public reads
	router.GET("/gallery", galleryHandler.ListGalleries)
	router.GET("/gallery/:name", galleryHandler.GetGallery)
	router.GET("/gallery/:name/share.pdf", galleryHandler.GetSharePDF)

	// Admin
	router.GET("/auth", authorize, CheckAuth)
	router.GET("/audit", authorize, adminHandler.GetAuditLogs)
	router.POST("/gallery", authorize, galleryHandler.CreateGallery)
	router.DELETE("/gallery/:name", authorize, galleryHandler.DeleteGallery)
	router.POST("/gallery/:name", authorize, galleryHandler.AddImage)
	router.DELETE("/gallery/:name/:imageName", authorize, galleryHandler.RemoveImage)

	return router
}
