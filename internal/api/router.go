package api

import (
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/coursekeep/internal/api/controllers"
	"github.com/tanq16/coursekeep/internal/app"
)

func NewRouter(a *app.Context) *echo.Echo {
	e := echo.New()
	RegisterRoutes(e, a)
	return e
}

func RegisterRoutes(e *echo.Echo, a *app.Context) {
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			log.Info().Str("op", "api/router").Msgf("%s %s | %d | %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	ctrl := &controllers.CourseController{App: a}
	e.GET("/api/course", ctrl.Course)
	e.GET("/api/sections", ctrl.Sections)
	e.GET("/api/sections/:id", ctrl.Section)
	e.POST("/api/sections/:id/download", ctrl.Download)
	e.DELETE("/api/sections/:id/downloads", ctrl.DeleteDownloads)
}
