package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"plugshop/internal/common"
	"plugshop/internal/forms"
	"plugshop/internal/models"
	"plugshop/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	msgInvalidProduct = "Select a valid choice. That choice is not one of the available choices."

	// maxURLExpiry is the longest presigned URL S3 compatible stores accept.
	maxURLExpiry = 7 * 24 * time.Hour
)

// CarouselHandlers is the staff API for managing homepage slides.
type CarouselHandlers struct {
	carousel services.CarouselService
}

func NewCarouselHandlers(carousel services.CarouselService) *CarouselHandlers {
	return &CarouselHandlers{carousel: carousel}
}

func (h *CarouselHandlers) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	images, err := h.carousel.List(c.Request().Context(), limit, offset)
	if err != nil {
		log.Ctx(c.Request().Context()).Error().Err(err).Msg("failed to list carousel images")
		return common.SendServerError(c, "Failed to list carousel images")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"carousel_images": images,
		"limit":           limit,
		"offset":          offset,
	})
}

func (h *CarouselHandlers) Get(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	image, err := h.carousel.Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, image)
}

// Create expects a multipart form with an img file and the slide fields.
func (h *CarouselHandlers) Create(c echo.Context) error {
	in, ok, err := h.bindInput(c)
	if !ok {
		return err
	}

	upload, closeUpload, err := formUpload(c)
	if err != nil {
		return common.SendClientError(c, "Invalid image upload")
	}
	defer closeUpload()

	image, err := h.carousel.Create(c.Request().Context(), in, upload)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, image)
}

// Update replaces the slide fields. The image is only replaced when a new img file is sent.
func (h *CarouselHandlers) Update(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	in, ok, err := h.bindInput(c)
	if !ok {
		return err
	}

	upload, closeUpload, err := formUpload(c)
	if err != nil {
		return common.SendClientError(c, "Invalid image upload")
	}
	defer closeUpload()

	image, err := h.carousel.Update(c.Request().Context(), id, in, upload)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, image)
}

func (h *CarouselHandlers) Delete(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.carousel.Delete(c.Request().Context(), id); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ImageURL returns a presigned download URL. expiry is in seconds.
func (h *CarouselHandlers) ImageURL(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var expiry time.Duration
	if raw := c.QueryParam("expiry"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return common.SendValidationError(c, "expiry", "Enter a positive whole number of seconds.")
		}
		// Compare in seconds so a huge value cannot overflow time.Duration.
		if seconds > int(maxURLExpiry/time.Second) {
			expiry = maxURLExpiry
		} else {
			expiry = time.Duration(seconds) * time.Second
		}
	}

	url, err := h.carousel.ImageURL(c.Request().Context(), id, expiry)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"url": url,
	})
}

// bindInput parses the slide fields. When ok is false the error response has already been chosen.
func (h *CarouselHandlers) bindInput(c echo.Context) (services.CarouselInput, bool, error) {
	values, err := c.FormParams()
	if err != nil {
		return services.CarouselInput{}, false, common.SendClientError(c, "Invalid form submission")
	}

	form, errs := forms.ParseCarouselForm(values)
	errs.Merge(form.Validate())
	if !errs.Valid() {
		return services.CarouselInput{}, false, common.SendValidationErrors(c, errs.Flatten())
	}

	return services.CarouselInput{
		Title:     form.Title,
		Caption:   form.Caption,
		Link:      form.Link,
		Active:    form.Active,
		ProductID: form.Product(),
		SortOrder: form.SortOrder,
	}, true, nil
}

func (h *CarouselHandlers) writeError(c echo.Context, err error) error {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return common.SendValidationErrors(c, verr.Fields)
	case errors.Is(err, models.ErrNotFound):
		return common.SendNotFoundError(c, "Carousel image")
	case errors.Is(err, models.ErrProductNotFound):
		return common.SendValidationError(c, "product_id", msgInvalidProduct)
	default:
		log.Ctx(c.Request().Context()).Error().Err(err).Msg("carousel request failed")
		return common.SendServerError(c, "Failed to process carousel image")
	}
}

// formUpload opens the optional img file. The returned close func is always safe to call.
func formUpload(c echo.Context) (*services.ImageUpload, func(), error) {
	noop := func() {}

	fh, err := c.FormFile("img")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	return &services.ImageUpload{Filename: fh.Filename, Size: fh.Size, Reader: f}, func() { _ = f.Close() }, nil
}
