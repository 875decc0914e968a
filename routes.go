package main

import (
	"errors"
	"io"
	"net/http"
	"time"

	"content-hand/config"
	"content-hand/models"
	"content-hand/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// maxImportSize begrenzt die Größe eines Imports.
const maxImportSize = 50 << 20

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func newRouter(cfg *config.Config, d *services.Dashboard, log *zap.Logger) *gin.Engine {
	router := gin.Default()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "topics": d.Topics.Len()})
	})

	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupTopicRoutes(router, d, log)
	setupSyncRoutes(router, d, log)
	setupSettingsRoutes(router, d, log)
	return router
}

// errorStatus bildet die Fehlerarten auf HTTP-Status ab.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrTopicNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, models.ErrMalformedResponse), errors.Is(err, models.ErrRemoteUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		log.Warn("Request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func setupTopicRoutes(router *gin.Engine, d *services.Dashboard, log *zap.Logger) {
	rg := router.Group("/topics")

	rg.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, d.Topics.All())
	})

	rg.GET("/:id", func(c *gin.Context) {
		t, ok := d.Topics.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "topic not found"})
			return
		}
		c.JSON(http.StatusOK, t)
	})

	rg.GET("/:id/markdown", func(c *gin.Context) {
		text, err := d.Markdown(c.Param("id"))
		if err != nil {
			if errors.Is(err, models.ErrTopicNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "topic not found"})
				return
			}
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(text))
	})

	rg.POST("/generate", func(c *gin.Context) {
		var req models.GenerationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		topics, err := d.GenerateTopics(c.Request.Context(), req)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, topics)
	})

	rg.POST("/:id/content", func(c *gin.Context) {
		t, err := d.GenerateContent(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, t)
	})

	rg.PATCH("/:id/status", func(c *gin.Context) {
		var req models.ReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		t, err := d.Review(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, t)
	})

	rg.DELETE("/:id", func(c *gin.Context) {
		id := c.Param("id")
		if err := d.Delete(c.Request.Context(), id); err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": id})
	})
}

func setupSyncRoutes(router *gin.Engine, d *services.Dashboard, log *zap.Logger) {
	router.POST("/sync", func(c *gin.Context) {
		n := d.Sync(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"synced": n, "topics": d.Topics.Len()})
	})

	router.GET("/export", func(c *gin.Context) {
		data, err := d.Export()
		if err != nil {
			respondError(c, log, err)
			return
		}
		filename := "topics-" + time.Now().UTC().Format("2006-01-02") + ".json"
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "application/json", data)
	})

	router.POST("/import", func(c *gin.Context) {
		data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportSize))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		topics, err := d.Import(data)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"imported": len(topics)})
	})
}

func setupSettingsRoutes(router *gin.Engine, d *services.Dashboard, log *zap.Logger) {
	rg := router.Group("/settings")

	rg.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, d.Settings.Snapshot())
	})

	rg.PUT("/webhooks", func(c *gin.Context) {
		var w config.Webhooks
		if err := c.ShouldBindJSON(&w); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		s, err := d.SetWebhooks(w)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, s)
	})

	rg.PUT("/theme", func(c *gin.Context) {
		var req struct {
			Theme string `json:"theme" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		s, err := d.SetTheme(req.Theme)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, s)
	})

	type angleRequest struct {
		Angle string `json:"angle"`
	}
	angleFrom := func(c *gin.Context) string {
		if a := c.Query("angle"); a != "" {
			return a
		}
		var req angleRequest
		_ = c.ShouldBindJSON(&req)
		return req.Angle
	}

	rg.POST("/angles/:kind", func(c *gin.Context) {
		angle := angleFrom(c)
		if angle == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "angle is required"})
			return
		}
		s, err := d.AddAngle(services.AngleKind(c.Param("kind")), angle)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, s)
	})

	rg.DELETE("/angles/:kind", func(c *gin.Context) {
		angle := angleFrom(c)
		if angle == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "angle is required"})
			return
		}
		s, err := d.RemoveAngle(services.AngleKind(c.Param("kind")), angle)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, s)
	})
}
