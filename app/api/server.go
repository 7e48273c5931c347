package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the HTTP server with all routes configured. publicDir,
// when set, is served as the static front-end with index.html as the
// fallback for unknown paths.
func NewServer(handler *Handler, publicDir string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, publicDir)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, publicDir string) {
	api := r.Group("/api")
	{
		api.GET("/feed", handler.GetFeed)
		api.GET("/categories", handler.GetCategories)
		api.GET("/details", handler.GetDetails)
		api.GET("/logs", handler.GetLogs)
	}

	r.GET("/version", handler.GetVersion)

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})

	if publicDir != "" {
		r.NoRoute(staticHandler(publicDir))
	}
}

// staticHandler serves files from the public directory. Anything that does
// not resolve to a file falls back to index.html so the front-end handles
// its own routing.
func staticHandler(publicDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Status(http.StatusNotFound)
			return
		}
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Status(http.StatusNotFound)
			return
		}

		requested := filepath.Join(publicDir, filepath.Clean("/"+c.Request.URL.Path))
		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			c.File(requested)
			return
		}

		c.File(filepath.Join(publicDir, "index.html"))
	}
}
