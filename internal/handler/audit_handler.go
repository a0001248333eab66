package handler

import (
	"net/http"

	"portal/internal/access"
	"portal/internal/middleware"
	"portal/internal/service"
	"portal/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	ranks        access.Ranks
}

func NewAuditHandler(auditService service.AuditService, ranks access.Ranks) *AuditHandler {
	return &AuditHandler{auditService: auditService, ranks: ranks}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/audit/:purchase_id", middleware.RequireRank(h.ranks, access.RequireAdmin, true), h.GetPurchaseTrail)
}

// GetPurchaseTrail retrieves every recorded transition of one purchase request
// @Summary      Get purchase history
// @Description  Lists create, edit, approve and reject events of a purchase request, oldest first
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        purchase_id  path      int  true  "Purchase ID"
// @Success      200          {object}  response.Response{data=[]service.AuditLogResponse}
// @Failure      404          {object}  response.Response
// @Router       /member/purchase/audit/{purchase_id} [get]
func (h *AuditHandler) GetPurchaseTrail(c *gin.Context) {
	id, ok := purchaseIDParam(c, "purchase_id")
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Purchase not found"))
		return
	}

	logs, err := h.auditService.GetPurchaseTrail(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve audit logs: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}
