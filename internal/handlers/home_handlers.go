package handlers

import (
	"net/http"

	"plugshop/internal/common"
	"plugshop/internal/services"
	"plugshop/internal/web"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type HomeHandlers struct {
	carousel services.CarouselService
}

func NewHomeHandlers(carousel services.CarouselService) *HomeHandlers {
	return &HomeHandlers{carousel: carousel}
}

// Home renders the storefront landing page. A carousel failure only hides the carousel.
func (h *HomeHandlers) Home(c echo.Context) error {
	data := newPage(c, "")

	slides, err := h.carousel.ListActive(c.Request().Context())
	if err != nil {
		log.Ctx(c.Request().Context()).Error().Err(err).Msg("failed to load carousel")
	}
	data.Slides = slides

	return c.Render(http.StatusOK, web.HomeTemplate, data)
}

// ActiveCarousel lists the active slides with short lived image URLs.
func (h *HomeHandlers) ActiveCarousel(c echo.Context) error {
	slides, err := h.carousel.ListActive(c.Request().Context())
	if err != nil {
		log.Ctx(c.Request().Context()).Error().Err(err).Msg("failed to load carousel")
		return common.SendServerError(c, "Failed to load carousel")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"carousel_images": slides,
	})
}
