package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/coursekeep/internal/app"
	"github.com/tanq16/coursekeep/internal/outline"
)

var errNoSection = errors.New("section not found")

type CourseController struct {
	App *app.Context
}

type CourseHeader struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Detail   string `json:"detail"`
	CoverURL string `json:"coverUrl,omitempty"`
	Sections int    `json:"sections"`
}

// Course returns the header row of the outline.
func (ctrl *CourseController) Course(c *echo.Context) error {
	var header CourseHeader
	err := ctrl.App.Loop.Call(c.Request().Context(), func() error {
		h := ctrl.App.Outline.Header
		header = CourseHeader{
			ID:       ctrl.App.Outline.Course.ID,
			Title:    h.Title(),
			Detail:   h.Detail(),
			CoverURL: h.CoverURL(),
			Sections: len(ctrl.App.Outline.Rows()),
		}
		return nil
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, header)
}

func (ctrl *CourseController) Sections(c *echo.Context) error {
	var sections []outline.Section
	err := ctrl.App.Loop.Call(c.Request().Context(), func() error {
		sections = ctrl.App.Outline.Sections()
		return nil
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, sections)
}

func (ctrl *CourseController) Section(c *echo.Context) error {
	section, err := ctrl.withRow(c, func(row *outline.SectionRow) error { return nil })
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, section)
}

// Download queues the section's remaining videos and answers right away.
func (ctrl *CourseController) Download(c *echo.Context) error {
	section, err := ctrl.withRow(c, func(row *outline.SectionRow) error {
		row.TapDownload()
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, section)
}

// DeleteDownloads is only allowed once every video of the section is on disk.
func (ctrl *CourseController) DeleteDownloads(c *echo.Context) error {
	section, err := ctrl.withRow(c, func(row *outline.SectionRow) error {
		action := row.DeleteAction(outline.Trailing)
		if action == nil {
			return outline.ErrNotDownloaded
		}
		return action.Run(c.Request().Context())
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, section)
}

// withRow runs fn on the loop against the row named by the :id parameter and
// returns the row's snapshot taken after fn.
func (ctrl *CourseController) withRow(c *echo.Context, fn func(row *outline.SectionRow) error) (outline.Section, error) {
	id := c.Param("id")
	var section outline.Section
	err := ctrl.App.Loop.Call(c.Request().Context(), func() error {
		row, ok := ctrl.App.Outline.Row(id)
		if !ok {
			return errNoSection
		}
		if err := fn(row); err != nil {
			return err
		}
		section = row.Snapshot()
		return nil
	})
	switch {
	case err == nil:
		return section, nil
	case errors.Is(err, errNoSection):
		return section, echo.NewHTTPError(http.StatusNotFound, "section not found")
	case errors.Is(err, outline.ErrNotDownloaded):
		return section, echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		log.Error().Str("op", "api/controllers").Err(err).Msgf("request for section %s failed", id)
		return section, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
