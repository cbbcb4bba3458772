package httpserver

import (
	"fmt"
	"net/http"

	"github.com/energypatrikhu/obs-ui/internal/domain"
	apperrors "github.com/energypatrikhu/obs-ui/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

func (s *Server) registerNowPlayingRoutes(rateLimiter echo.MiddlewareFunc) {
	s.echo.GET("/nowPlaying", s.handleGetNowPlaying)
	s.echo.POST("/nowPlaying", s.handlePostNowPlaying, rateLimiter)
}

func (s *Server) handleGetNowPlaying(c echo.Context) error {
	if err := c.JSON(http.StatusOK, s.nowPlaying.Current()); err != nil {
		return fmt.Errorf("failed to write now playing response: %w", err)
	}
	return nil
}

func (s *Server) handlePostNowPlaying(c echo.Context) error {
	var update domain.NowPlayingUpdate
	if err := c.Bind(&update); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if _, err := s.nowPlaying.Update(c.Request().Context(), update); err != nil {
		return err
	}
	return accepted(c)
}

func accepted(c echo.Context) error {
	if err := c.String(http.StatusAccepted, http.StatusText(http.StatusAccepted)); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}
