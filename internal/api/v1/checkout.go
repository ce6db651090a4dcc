package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/subcart/subcart/internal/api/dto"
	ierr "github.com/subcart/subcart/internal/errors"
	"github.com/subcart/subcart/internal/logger"
	"github.com/subcart/subcart/internal/service"
)

type CheckoutHandler struct {
	service service.CheckoutService
	logger  *logger.Logger
}

func NewCheckoutHandler(service service.CheckoutService, logger *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger,
	}
}

// @Summary Preview a checkout
// @Description Classify and price a cart without committing to it
// @Tags Checkout
// @Accept json
// @Produce json
// @Param cart body dto.CheckoutPreviewRequest true "Cart to price"
// @Success 200 {object} dto.CheckoutPreviewResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /checkout/preview [post]
func (h *CheckoutHandler) Preview(c *gin.Context) {
	var req dto.CheckoutPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	snapshot, err := h.service.Build(c.Request.Context(), req.ToServiceRequest())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCheckoutPreviewResponse(snapshot))
}
