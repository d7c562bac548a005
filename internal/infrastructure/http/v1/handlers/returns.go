package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"minipos/internal/core/apperror"
	"minipos/internal/core/id"
	"minipos/internal/domain/sales/salereturn"
	"minipos/internal/infrastructure/http/v1/dto"
	"minipos/internal/infrastructure/storage/postgres"
)

// ReturnsHandler serves the return processing endpoints.
type ReturnsHandler struct {
	*BaseHandler
	service *salereturn.Service
	audit   *postgres.AuditService
}

// NewReturnsHandler creates a returns handler.
func NewReturnsHandler(base *BaseHandler, service *salereturn.Service, audit *postgres.AuditService) *ReturnsHandler {
	return &ReturnsHandler{BaseHandler: base, service: service, audit: audit}
}

// Search handles GET /returns/search?query=...
// Matches bills by bill number or customer phone and annotates each
// result with return eligibility.
func (h *ReturnsHandler) Search(c *gin.Context) {
	query := c.Query("query")
	limit := h.ParseIntQuery(c, "limit", 10)

	results, err := h.service.Search(c.Request.Context(), query, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"results": results})
}

// Process handles POST /returns.
func (h *ReturnsHandler) Process(c *gin.Context) {
	var req dto.ProcessReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	domainReq, err := req.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}

	rb, err := h.service.Process(c.Request.Context(), domainReq)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rb)
}

// List handles GET /returns with optional q and date filters.
func (h *ReturnsHandler) List(c *gin.Context) {
	filter := salereturn.ListFilter{
		Query:  c.Query("q"),
		Limit:  h.ParseIntQuery(c, "limit", 20),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if dateStr := c.Query("date"); dateStr != "" {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid date, expected YYYY-MM-DD"))
			return
		}
		filter.Date = &date
	}

	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{
		Items:  items,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// GetByID handles GET /returns/:id.
func (h *ReturnsHandler) GetByID(c *gin.Context) {
	returnID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid return bill id"))
		return
	}

	rb, err := h.service.GetByID(c.Request.Context(), returnID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rb)
}

// GetAudit handles GET /returns/:id/audit, exposing the diagnostic
// trail including non-fatal anomalies recorded during processing.
func (h *ReturnsHandler) GetAudit(c *gin.Context) {
	returnID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid return bill id"))
		return
	}
	limit := h.ParseIntQuery(c, "limit", 50)

	entries, err := h.audit.GetEntityHistory(c.Request.Context(), "return_bills", returnID.String(), limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"entries": entries})
}
