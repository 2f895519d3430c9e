package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/denismitr/cropper/internal/media"
	"github.com/denismitr/cropper/internal/pipeline"
	"github.com/denismitr/cropper/internal/registry"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultConfig(port string) Config {
	return Config{
		Port:         port,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}
}

type Server struct {
	cfg    Config
	e      *echo.Echo
	crops  *Crops
	logger logrus.FieldLogger
}

func NewServer(e *echo.Echo, cfg Config, crops *Crops, logger logrus.FieldLogger) *Server {
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))

	s := &Server{cfg: cfg, e: e, crops: crops, logger: logger}

	e.POST("/api/v1/crops", s.createCrop)
	e.GET("/api/v1/crops", s.getCrops)
	e.GET("/api/v1/crops/:id", s.getCrop)
	e.DELETE("/api/v1/crops/:id", s.removeCrop)

	return s
}

// Run the server until stopCh fires, then drain it within shutDownTime.
func (s *Server) Run(stopCh <-chan os.Signal, shutDownTime time.Duration) error {
	s.logger.Infof("Crop server : Starting on %s", s.cfg.Port)

	serverError := make(chan error, 1)
	go func() {
		if err := s.e.Start(s.cfg.Port); err != nil && err != http.ErrServerClosed {
			serverError <- errors.Wrap(err, "http server error")
		}
	}()

	select {
	case err := <-serverError:
		return err
	case <-stopCh:
		s.logger.Info("Crop server : Received stop signal")

		ctx, cancel := context.WithTimeout(context.Background(), shutDownTime)
		defer cancel()

		if stopErr := s.e.Shutdown(ctx); stopErr != nil {
			closeErr := s.e.Close()
			return errors.Wrap(closeErr, stopErr.Error())
		}

		return nil
	}
}

func (s *Server) createCrop(rCtx echo.Context) error {
	var req createCropRequest
	if err := rCtx.Bind(&req); err != nil {
		return rCtx.JSON(badRequest(err))
	}

	dto, err := req.toDTO()
	if err != nil {
		return s.fail(rCtx, err)
	}

	crop, err := s.crops.createCrop(rCtx.Request().Context(), dto)
	if err != nil {
		if crop != nil && errors.Is(err, ErrCropFailed) {
			return rCtx.JSON(http.StatusUnprocessableEntity, crop)
		}

		return s.fail(rCtx, err)
	}

	return rCtx.JSON(http.StatusCreated, crop)
}

func (s *Server) getCrop(rCtx echo.Context) error {
	crop, err := s.crops.getCrop(rCtx.Request().Context(), media.ID(rCtx.Param("id")))
	if err != nil {
		return s.fail(rCtx, err)
	}

	return rCtx.JSON(http.StatusOK, crop)
}

func (s *Server) getCrops(rCtx echo.Context) error {
	page, err := intFromQueryStringOrDefault(rCtx.QueryParam("page"), 1)
	if err != nil {
		return rCtx.JSON(badRequest(err))
	}

	perPage, err := intFromQueryStringOrDefault(rCtx.QueryParam("perPage"), media.DefaultPerPage)
	if err != nil {
		return rCtx.JSON(badRequest(err))
	}

	filter := media.CropFilter{
		Status:     media.Status(rCtx.QueryParam("status")),
		Pagination: media.Pagination{Page: uint(page), PerPage: uint(perPage)},
	}

	collection, err := s.crops.getCrops(rCtx.Request().Context(), filter)
	if err != nil {
		return s.fail(rCtx, err)
	}

	return rCtx.JSON(http.StatusOK, collection)
}

func (s *Server) removeCrop(rCtx echo.Context) error {
	if err := s.crops.removeCrop(rCtx.Request().Context(), media.ID(rCtx.Param("id"))); err != nil {
		return s.fail(rCtx, err)
	}

	return rCtx.NoContent(http.StatusNoContent)
}

func (s *Server) fail(rCtx echo.Context, err error) error {
	var vErr *pipeline.ValidationError
	switch {
	case errors.As(err, &vErr):
		return rCtx.JSON(unprocessableEntity("The given data was invalid", vErr.Errors()))
	case errors.Is(err, registry.ErrEntityNotFound):
		return rCtx.JSON(notFound(err))
	case errors.Is(err, registry.ErrInvalidID):
		return rCtx.JSON(badRequest(err))
	}

	s.logger.WithError(err).Error("request failed")
	return rCtx.JSON(internalError(err))
}
