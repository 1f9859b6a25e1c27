package middleware

import (
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/pmxy/gallery/internal/config"
)

// Security sets the standard security headers. HSTS is only sent when the
// server terminates TLS itself.
func Security(cfg *config.Config) gin.HandlerFunc {
	secureConfig := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}

	if cfg.IsProduction() {
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}

	return secure.New(secureConfig)
}
