package handler

import (
	"errors"
	"net/http"

	"loadboard/internal/model"
	"loadboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LoadHandler serves the load lists of both dashboards and the admin's
// load management.
type LoadHandler struct {
	loads    service.LoadService
	calls    service.CallService
	receipts service.ReceiptService
	log      zerolog.Logger
}

func NewLoadHandler(loads service.LoadService, calls service.CallService, receipts service.ReceiptService, log zerolog.Logger) *LoadHandler {
	return &LoadHandler{loads: loads, calls: calls, receipts: receipts, log: log}
}

func (h *LoadHandler) ListLoads(c *gin.Context) {
	loads, err := h.loads.ListLoads(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, loads)
}

func (h *LoadHandler) GetLoad(c *gin.Context) {
	load, err := h.loads.GetLoad(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, load)
}

func (h *LoadHandler) CreateLoad(c *gin.Context) {
	var req model.LoadFields
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request: " + err.Error()})
		return
	}

	load, err := h.loads.CreateLoad(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, load)
}

func (h *LoadHandler) ReplaceLoad(c *gin.Context) {
	var req model.LoadFields
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request: " + err.Error()})
		return
	}

	load, err := h.loads.ReplaceLoad(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, load)
}

func (h *LoadHandler) PatchLoad(c *gin.Context) {
	var req model.LoadPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request: " + err.Error()})
		return
	}

	load, err := h.loads.PatchLoad(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, load)
}

func (h *LoadHandler) DeleteLoad(c *gin.Context) {
	if err := h.loads.DeleteLoad(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CallContact returns the tel: URI the client should open.
func (h *LoadHandler) CallContact(c *gin.Context) {
	uri, err := h.calls.CallTarget(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uri": uri})
}

// UploadReceipt accepts one document in the "document" form field.
func (h *LoadHandler) UploadReceipt(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxFileSize+1<<20)

	file, err := c.FormFile("document")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, h.log, service.ErrFileSizeExceeded)
			return
		}
		// No document picked.
		respondError(c, h.log, service.ErrNoDocument)
		return
	}

	receipt, err := h.receipts.UploadReceipt(c.Request.Context(), c.Param("id"), file)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// RegisterLoadRoutes registers the load routes of both dashboards. writeMW
// runs on the admin write routes after authentication.
func (h *LoadHandler) RegisterLoadRoutes(rg *gin.RouterGroup, jwtAuthMW, userRoleMW, adminRoleMW gin.HandlerFunc, writeMW ...gin.HandlerFunc) {
	loads := rg.Group("/loads", jwtAuthMW)
	{
		loads.GET("", h.ListLoads)
		loads.GET("/:id", h.GetLoad)
		loads.GET("/:id/call", userRoleMW, h.CallContact)
		loads.POST("/:id/receipt", userRoleMW, h.UploadReceipt)
	}

	admin := rg.Group("/admin/loads", append([]gin.HandlerFunc{jwtAuthMW, adminRoleMW}, writeMW...)...)
	{
		admin.POST("", h.CreateLoad)
		admin.PUT("/:id", h.ReplaceLoad)
		admin.PATCH("/:id", h.PatchLoad)
		admin.DELETE("/:id", h.DeleteLoad)
	}
}
