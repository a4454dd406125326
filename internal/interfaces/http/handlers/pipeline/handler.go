package pipeline

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	rankingusecases "vendorflow/internal/application/ranking/usecases"
	selectionusecases "vendorflow/internal/application/selection/usecases"
	"vendorflow/internal/shared/errors"
	"vendorflow/internal/shared/id"
	"vendorflow/internal/shared/logger"
	"vendorflow/internal/shared/utils"
)

// Service is the part of the pipeline the HTTP surface drives.
type Service interface {
	StartDiscovery(ctx context.Context, ticketID string) error
	StartOutreach(ctx context.Context, ticketID string) error
	RankVendors(ctx context.Context, ticketID string) (*rankingusecases.RankVendorsResult, error)
	SelectVendor(ctx context.Context, ticketID, quoteID string) (*selectionusecases.SelectVendorResult, error)
}

type Handler struct {
	service Service
	logger  logger.Interface
}

func NewHandler(service Service, log logger.Interface) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// DiscoverVendors handles POST /api/v1/tickets/:id/discover
// @Summary Start vendor discovery
// @Description Finds candidate vendors for a ticket in the background
// @Tags pipeline
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 202 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /api/v1/tickets/{id}/discover [post]
func (h *Handler) DiscoverVendors(c *gin.Context) {
	ticketID, err := parseID(c, "id", "ticket")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := h.service.StartDiscovery(c.Request.Context(), ticketID); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("vendor discovery accepted", "ticket_id", ticketID)
	utils.AcceptedResponse(c, accepted(ticketID, "discover"), "Vendor discovery started")
}

// SendOutreach handles POST /api/v1/tickets/:id/outreach
// @Summary Start vendor outreach
// @Description Emails a quote request to each discovered vendor in the background
// @Tags pipeline
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 202 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /api/v1/tickets/{id}/outreach [post]
func (h *Handler) SendOutreach(c *gin.Context) {
	ticketID, err := parseID(c, "id", "ticket")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := h.service.StartOutreach(c.Request.Context(), ticketID); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("vendor outreach accepted", "ticket_id", ticketID)
	utils.AcceptedResponse(c, accepted(ticketID, "outreach"), "Vendor outreach started")
}

// GetRankings handles GET /api/v1/tickets/:id/rankings
// @Summary Rank vendor quotes
// @Description Recomputes and returns the ranking of every live quote on a ticket
// @Tags pipeline
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /api/v1/tickets/{id}/rankings [get]
func (h *Handler) GetRankings(c *gin.Context) {
	ticketID, err := parseID(c, "id", "ticket")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.service.RankVendors(c.Request.Context(), ticketID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// SelectVendor handles POST /api/v1/tickets/:id/quotes/:quoteId/select
// @Summary Select a vendor quote
// @Description Marks the quote selected, rejects the others and notifies every vendor
// @Tags pipeline
// @Produce json
// @Param id path string true "Ticket ID"
// @Param quoteId path string true "Quote ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Router /api/v1/tickets/{id}/quotes/{quoteId}/select [post]
func (h *Handler) SelectVendor(c *gin.Context) {
	ticketID, err := parseID(c, "id", "ticket")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	quoteID, err := parseID(c, "quoteId", "quote")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.service.SelectVendor(c.Request.Context(), ticketID, quoteID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vendor selected", result)
}

func parseID(c *gin.Context, param, name string) (string, error) {
	value := c.Param(param)
	if !id.IsValid(value) {
		return "", errors.NewValidationError("invalid " + name + " ID")
	}
	return value, nil
}
