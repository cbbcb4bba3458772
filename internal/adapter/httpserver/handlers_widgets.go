package httpserver

import (
	"fmt"
	"net/http"

	"github.com/energypatrikhu/obs-ui/internal/domain"
	apperrors "github.com/energypatrikhu/obs-ui/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

type widgetRequest struct {
	Widget string `json:"widget" form:"widget"`
}

func (s *Server) registerWidgetRoutes() {
	s.echo.POST("/widgets/enable", s.handleEnableWidget)
	s.echo.POST("/widgets/disable", s.handleDisableWidget)
	s.echo.GET("/widgets/settings", s.handleGetWidgetSettings)
	s.echo.POST("/widgets/settings", s.handleSaveWidgetSettings)
}

func (s *Server) handleEnableWidget(c echo.Context) error {
	var req widgetRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if _, err := s.widgets.Enable(c.Request().Context(), req.Widget); err != nil {
		return err
	}
	return accepted(c)
}

func (s *Server) handleDisableWidget(c echo.Context) error {
	var req widgetRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if _, err := s.widgets.Disable(c.Request().Context(), req.Widget); err != nil {
		return err
	}
	return accepted(c)
}

func (s *Server) handleGetWidgetSettings(c echo.Context) error {
	settings, err := s.widgets.Settings(c.Request().Context())
	if err != nil {
		return err
	}
	if err := c.JSON(http.StatusOK, settings); err != nil {
		return fmt.Errorf("failed to write widget settings response: %w", err)
	}
	return nil
}

func (s *Server) handleSaveWidgetSettings(c echo.Context) error {
	var settings domain.WidgetSettings
	if err := c.Bind(&settings); err != nil {
		return apperrors.ValidationError("invalid widget settings")
	}
	if err := s.widgets.SaveSettings(c.Request().Context(), settings); err != nil {
		return err
	}
	return accepted(c)
}
