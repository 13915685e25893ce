// admin.go - token-guarded inspection of live animation streams
package main

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/content"
	"github.com/Zachkp/portfolio/session"
)

func generateAdminToken() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		panic("generate admin token: " + err.Error())
	}
	return hex.EncodeToString(bytes)
}

// Hash IP address so logs never hold a raw client address (consistent per IP)
func hashIP(ip, salt string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + salt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

// adminAuthMiddleware accepts the token as a bearer header or admin_token cookie.
func adminAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented, err := c.Cookie("admin_token")
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			presented, err = strings.TrimPrefix(auth, "Bearer "), nil
		}
		if err != nil || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func setupAdminRoutes(r *gin.Engine, s *server) {
	// Admin login exchanges the token for a cookie (24 hours)
	r.POST("/admin/login", func(c *gin.Context) {
		token := c.PostForm("token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			s.log.Warn("failed admin login", "from", hashIP(c.ClientIP(), s.hashingSalt))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.SetCookie("admin_token", s.adminToken, 3600*24, "/admin", "", false, true)
		s.log.Info("admin login", "from", hashIP(c.ClientIP(), s.hashingSalt))
		c.Status(http.StatusNoContent)
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie("admin_token", "", -1, "/admin", "", false, true)
		c.Status(http.StatusNoContent)
	})

	adminGroup := r.Group("/admin/api")
	adminGroup.Use(adminAuthMiddleware(s.adminToken))

	adminGroup.GET("/streams", func(c *gin.Context) {
		streams := s.streams.List()
		c.JSON(http.StatusOK, gin.H{
			"count":   len(streams),
			"streams": streams,
		})
	})

	// Dispose a stuck stream
	adminGroup.DELETE("/streams/:id", func(c *gin.Context) {
		id := c.Param("id")
		if err := s.streams.Close(id); errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stream not found"})
			return
		}
		s.log.Info("stream disposed by admin", "id", id, "from", hashIP(c.ClientIP(), s.hashingSalt))
		c.JSON(http.StatusOK, gin.H{"message": "Stream disposed"})
	})

	adminGroup.POST("/content/reload", func(c *gin.Context) {
		path := s.cfg.Content.Path
		if err := content.Reload(c.Request.Context(), s.store, path); err != nil {
			s.log.Error("catalog reload", "path", path, "error", err)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		s.log.Info("catalog reloaded by admin", "path", path, "from", hashIP(c.ClientIP(), s.hashingSalt))
		c.JSON(http.StatusOK, gin.H{"message": "Catalog reloaded"})
	})
}
