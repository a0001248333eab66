package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"portal/internal/access"
	"portal/internal/middleware"
	"portal/internal/model"
	"portal/internal/repository"
	"portal/internal/service"
	"portal/internal/view"
	"portal/internal/websocket"
	"portal/pkg/response"
	"portal/pkg/sanitize"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	purchaseService service.PurchaseService
	totalsService   service.TotalsService
	ranks           access.Ranks
	hub             *websocket.Hub
	antiForgery     gin.HandlerFunc
}

// NewPurchaseHandler wires the purchase routes. antiForgery runs on the form
// pages and their posts; see middleware.CSRF.
func NewPurchaseHandler(purchaseService service.PurchaseService, totalsService service.TotalsService, ranks access.Ranks, hub *websocket.Hub, antiForgery gin.HandlerFunc) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
		totalsService:   totalsService,
		ranks:           ranks,
		hub:             hub,
		antiForgery:     antiForgery,
	}
}

// route is one entry of the purchase route table. The requirement is checked
// before the handler runs.
type route struct {
	method  string
	path    string
	require access.Requirement
	json    bool // deny with the JSON envelope instead of the error page
	csrf    bool // issue the anti-forgery token on GET, verify it on POST
	handle  gin.HandlerFunc
}

func (h *PurchaseHandler) routes() []route {
	rs := []route{
		{http.MethodGet, "/", access.RequireWhitelist, false, false, h.Index},
		{http.MethodGet, "/list_my", access.RequireWhitelist, false, false, h.listPage("My Purchase Requests", service.FilterMine)},
		{http.MethodGet, "/list/", access.RequireAdmin, false, false, h.listPage("All Purchase Requests", service.FilterAll)},
		{http.MethodGet, "/admin", access.RequireAdmin, false, false, h.listPage("Admin Queue", service.FilterAdmin)},
		{http.MethodGet, "/mentor", access.RequireMentor, false, false, h.listPage("Mentor Queue", service.FilterMentor)},
		{http.MethodGet, "/view/:purchase_id", access.RequireWhitelist, false, false, h.View},
		{http.MethodGet, "/create", access.RequireWhitelist, false, true, h.CreateForm},
		{http.MethodPost, "/create", access.RequireWhitelist, false, true, h.Create},
		{http.MethodGet, "/edit/:purchase_id", access.RequireWhitelist, false, true, h.EditForm},
		{http.MethodPost, "/edit/:purchase_id", access.RequireWhitelist, false, true, h.Edit},
		{http.MethodGet, "/list_object/", access.RequireAdmin, true, false, h.ListObjects},
		{http.MethodGet, "/list_object/:filter", access.RequireWhitelist, true, false, h.ListObjects},
		{http.MethodPost, "/admin/approve/:id", access.RequireApprover, true, false, h.Approve},
		{http.MethodPost, "/admin/reject/:id", access.RequireApprover, true, false, h.Reject},
		{http.MethodGet, "/total_plain", access.RequireWhitelist, true, false, h.TotalPlain},
	}
	if h.hub != nil {
		rs = append(rs, route{http.MethodGet, "/ws", access.RequireWhitelist, true, false, h.Live})
	}
	return rs
}

// RegisterRoutes mounts the route table on router. Authentication must already
// run on router.
func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	for _, r := range h.routes() {
		chain := []gin.HandlerFunc{middleware.RequireRank(h.ranks, r.require, r.json)}
		if r.csrf {
			chain = append(chain, h.antiForgery)
		}
		chain = append(chain, r.handle)
		router.Handle(r.method, r.path, chain...)
	}
}

func (h *PurchaseHandler) Index(c *gin.Context) {
	c.Redirect(http.StatusFound, "list_my")
}

func (h *PurchaseHandler) listPage(title, filter string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := middleware.CurrentIdentity(c)
		c.HTML(http.StatusOK, view.ListPage, view.ListData{
			Title:  title,
			Filter: filter,
			Email:  identity.Email,
		})
	}
}

func (h *PurchaseHandler) View(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	purchase, ok := h.loadPurchase(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, view.ViewPage, h.viewData(identity, purchase))
}

func (h *PurchaseHandler) CreateForm(c *gin.Context) {
	c.HTML(http.StatusOK, view.FormPage, view.FormData{
		Title:  "New Purchase Request",
		Action: "/member/purchase/create",
		CSRF:   middleware.CSRFToken(c),
	})
}

func (h *PurchaseHandler) Create(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	purchase, err := h.purchaseService.Create(c.Request.Context(), identity, bindPurchaseForm(c))
	if err != nil {
		log.Printf("create purchase failed for %s: %v", identity.Email, err)
		renderError(c, statusFor(err), err.Error())
		return
	}
	c.Redirect(http.StatusFound, "view/"+strconv.FormatInt(purchase.PurchaseID, 10))
}

// EditForm shows the edit form to the owner of an unlocked request and the
// read-only page to everyone else.
func (h *PurchaseHandler) EditForm(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	purchase, ok := h.loadPurchase(c)
	if !ok {
		return
	}
	if !h.purchaseService.CanEdit(identity, purchase) {
		c.HTML(http.StatusOK, view.ViewPage, h.viewData(identity, purchase))
		return
	}
	c.HTML(http.StatusOK, view.FormPage, view.FormData{
		Title:    "Edit Purchase Request #" + strconv.FormatInt(purchase.PurchaseID, 10),
		Action:   "/member/purchase/edit/" + strconv.FormatInt(purchase.PurchaseID, 10),
		CSRF:     middleware.CSRFToken(c),
		Purchase: purchase,
	})
}

func (h *PurchaseHandler) Edit(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	id, ok := purchaseIDParam(c, "purchase_id")
	if !ok {
		renderError(c, http.StatusNotFound, "Purchase not found")
		return
	}

	token, err := updatedAtParam(c)
	if err != nil {
		renderError(c, http.StatusBadRequest, err.Error())
		return
	}
	form := bindPurchaseForm(c)
	form.ExpectedUpdatedAt = token

	if _, err := h.purchaseService.Edit(c.Request.Context(), identity, id, form); err != nil {
		renderError(c, statusFor(err), err.Error())
		return
	}
	c.Redirect(http.StatusFound, "/member/purchase/view/"+strconv.FormatInt(id, 10))
}

// ListObjects godoc
// @Summary      List purchase requests
// @Description  Returns every purchase request in a bucket, newest first, each annotated with total_cost
// @Tags         purchase
// @Security     BearerAuth
// @Produce      json
// @Param        filter  path      string  false  "my, admin or mentor; empty lists all"
// @Success      200     {array}   service.PurchaseResponse
// @Failure      401     {object}  response.Response
// @Router       /member/purchase/list_object/{filter} [get]
func (h *PurchaseHandler) ListObjects(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	purchases, err := h.purchaseService.List(c.Request.Context(), identity, c.Param("filter"))
	if err != nil {
		status := statusFor(err)
		msg := err.Error()
		if errors.Is(err, service.ErrInsufficientRank) {
			msg = h.ranks.Reason(service.ListRequirement(c.Param("filter")))
		}
		c.JSON(status, response.Error(status, msg))
		return
	}
	c.JSON(http.StatusOK, purchases)
}

// Approve godoc
// @Summary      Approve a purchase request
// @Description  Mentors move the request to final approval; admins route it to the mentor queue
// @Tags         purchase
// @Security     BearerAuth
// @Accept       x-www-form-urlencoded
// @Param        id          path      int     true   "Purchase ID"
// @Param        comments    formData  string  false  "Reviewer comments"
// @Param        updatedAt   formData  int     false  "Last seen updated_at; updated_at is accepted too"
// @Param        mentor      formData  bool    false  "Superadmin decides as mentor"
// @Success      200
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /member/purchase/admin/approve/{id} [post]
func (h *PurchaseHandler) Approve(c *gin.Context) {
	h.decide(c, h.purchaseService.Approve)
}

// Reject godoc
// @Summary      Reject a purchase request
// @Tags         purchase
// @Security     BearerAuth
// @Accept       x-www-form-urlencoded
// @Param        id          path      int     true   "Purchase ID"
// @Param        comments    formData  string  false  "Reviewer comments"
// @Param        updatedAt   formData  int     false  "Last seen updated_at; updated_at is accepted too"
// @Param        mentor      formData  bool    false  "Superadmin decides as mentor"
// @Success      200
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /member/purchase/admin/reject/{id} [post]
func (h *PurchaseHandler) Reject(c *gin.Context) {
	h.decide(c, h.purchaseService.Reject)
}

type decisionFunc func(ctx context.Context, actor access.Identity, purchaseID int64, req service.DecisionRequest) (*model.PurchaseRequest, error)

func (h *PurchaseHandler) decide(c *gin.Context, apply decisionFunc) {
	identity, _ := middleware.CurrentIdentity(c)
	id, ok := purchaseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Purchase not found"))
		return
	}

	token, err := updatedAtParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	req := service.DecisionRequest{
		Comments:          sanitize.String(c.PostForm("comments")),
		ExpectedUpdatedAt: token,
		MentorOverride:    c.PostForm("mentor") == "true",
	}
	if _, err := apply(c.Request.Context(), identity, id, req); err != nil {
		status := statusFor(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.Status(http.StatusOK)
}

// TotalPlain godoc
// @Summary      Total of final-approved purchases
// @Description  Plain-text sum with two decimals, or NaN when the query fails
// @Tags         purchase
// @Security     BearerAuth
// @Produce      plain
// @Param        subteams      query  []string  false  "Subteams"  collectionFormat(multi)
// @Param        vendor        query  string    false  "Comma separated vendors"
// @Param        submitted_by  query  string    false  "Comma separated submitter fragments"
// @Param        from          query  string    false  "YYYY-MM-DD"
// @Param        to            query  string    false  "YYYY-MM-DD"
// @Success      200  {string}  string
// @Router       /member/purchase/total_plain [get]
func (h *PurchaseHandler) TotalPlain(c *gin.Context) {
	total := h.totalsService.ApprovedTotalPlain(c.Request.Context(), service.TotalsQuery{
		Subteams:    c.QueryArray("subteams"),
		Vendors:     c.Query("vendor"),
		SubmittedBy: c.Query("submitted_by"),
		From:        c.Query("from"),
		To:          c.Query("to"),
	})
	c.String(http.StatusOK, total)
}

func (h *PurchaseHandler) Live(c *gin.Context) {
	websocket.ServeWs(h.hub, c)
}

// --- helpers ---

func (h *PurchaseHandler) loadPurchase(c *gin.Context) (*model.PurchaseRequest, bool) {
	id, ok := purchaseIDParam(c, "purchase_id")
	if !ok {
		renderError(c, http.StatusNotFound, "Purchase not found")
		return nil, false
	}
	purchase, err := h.purchaseService.Get(c.Request.Context(), id)
	if err != nil {
		renderError(c, statusFor(err), err.Error())
		return nil, false
	}
	return purchase, true
}

func (h *PurchaseHandler) viewData(identity access.Identity, purchase *model.PurchaseRequest) view.ViewData {
	return view.ViewData{
		Purchase:      purchase,
		CanEdit:       h.purchaseService.CanEdit(identity, purchase),
		CanDecide:     !purchase.Locked() && h.ranks.Allows(identity.Rank, access.RequireApprover),
		CanOverride:   h.ranks.Allows(identity.Rank, access.RequireSuperadmin),
		ShowAuditLink: h.ranks.Allows(identity.Rank, access.RequireAdmin),
	}
}

func bindPurchaseForm(c *gin.Context) service.PurchaseForm {
	return service.PurchaseForm{
		Subteam:             c.PostForm("subteam"),
		Vendor:              c.PostForm("vendor"),
		VendorPhone:         c.PostForm("vendor_phone"),
		VendorEmail:         c.PostForm("vendor_email"),
		VendorAddress:       c.PostForm("vendor_address"),
		ReasonForPurchase:   c.PostForm("reason_for_purchase"),
		PartURL:             c.PostFormArray("part_url"),
		PartNumber:          c.PostFormArray("part_number"),
		PartName:            c.PostFormArray("part_name"),
		Subsystem:           c.PostFormArray("subsystem"),
		PricePerUnit:        c.PostFormArray("price_per_unit"),
		Quantity:            c.PostFormArray("quantity"),
		ShippingAndHandling: c.PostForm("shipping_and_handling"),
		Tax:                 c.PostForm("tax"),
	}
}

func purchaseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

var errMalformedToken = errors.New("updatedAt must be the integer last read from the purchase")

// updatedAtParam reads the optional concurrency token from updatedAt or its
// form alias updated_at. Absent means unchecked; anything unparsable is an error.
func updatedAtParam(c *gin.Context) (*int64, error) {
	raw := strings.TrimSpace(c.PostForm("updatedAt"))
	if raw == "" {
		raw = strings.TrimSpace(c.PostForm("updated_at"))
	}
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errMalformedToken
	}
	return &v, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrPurchaseNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrPurchaseLocked), errors.Is(err, repository.ErrStaleUpdate):
		return http.StatusConflict
	case errors.Is(err, service.ErrInsufficientRank):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func renderError(c *gin.Context, status int, message string) {
	c.HTML(status, view.ErrorPage, view.ErrorData{
		Title:   http.StatusText(status),
		Message: message,
	})
}
