package inventory

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cliniq/cliniq/internal/platform/auth"
	"github.com/cliniq/cliniq/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse))
	readGroup.GET("/drugs", h.ListDrugs)
	readGroup.GET("/drugs/:id", h.GetDrug)
	readGroup.GET("/drugs/:id/brands", h.ListBrands)
	readGroup.GET("/brands/:id", h.GetBrand)
	readGroup.GET("/brands/:id/batches", h.ListBatches)
	readGroup.GET("/batches/:id", h.GetBatch)
	readGroup.GET("/batches/suggestion", h.SuggestBatch)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse))
	writeGroup.POST("/drugs", h.CreateDrug)
	writeGroup.PUT("/drugs/:id", h.UpdateDrug)
	writeGroup.POST("/brands", h.CreateBrand)
	writeGroup.PUT("/brands/:id", h.UpdateBrand)
	writeGroup.POST("/batches", h.CreateBatch)
	writeGroup.PUT("/batches/:id/status", h.ChangeBatchStatus)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.DELETE("/drugs/:id", h.DeleteDrug)
	adminGroup.DELETE("/brands/:id", h.DeleteBrand)
	adminGroup.POST("/batches/retire-expired", h.RetireExpired)
}

// -- Drugs --

func (h *Handler) CreateDrug(c echo.Context) error {
	var d Drug
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDrug(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDrug(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDrug(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "drug not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDrugs(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.SearchDrugs(c.Request().Context(), c.QueryParam("name"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateDrug(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var d Drug
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.UpdateDrug(c.Request().Context(), &d); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "drug not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDrug(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteDrug(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "drug not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Brands --

func (h *Handler) CreateBrand(c echo.Context) error {
	var b DrugBrand
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateBrand(c.Request().Context(), &b); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "drug not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetBrand(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.GetBrand(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "brand not found")
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListBrands(c echo.Context) error {
	drugID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	brands, err := h.svc.ListBrands(c.Request().Context(), drugID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, brands)
}

func (h *Handler) UpdateBrand(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var b DrugBrand
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b.ID = id
	if err := h.svc.UpdateBrand(c.Request().Context(), &b); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "brand not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteBrand(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteBrand(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "brand not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Batches --

func (h *Handler) CreateBatch(c echo.Context) error {
	var b Batch
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateBatch(c.Request().Context(), &b); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "brand not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetBatch(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetBatch(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "batch not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListBatches(c echo.Context) error {
	brandID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	batches, err := h.svc.ListBatches(c.Request().Context(), brandID, c.QueryParam("status"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, batches)
}

type batchActionRequest struct {
	Action string `json:"action"`
}

type batchActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Batch   *Batch `json:"batch,omitempty"`
}

func (h *Handler) ChangeBatchStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req batchActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	b, err := h.svc.ChangeBatchStatus(c.Request().Context(), id, req.Action)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, ErrUnknownAction):
			status = http.StatusBadRequest
		case errors.Is(err, ErrInvalidTransition):
			status = http.StatusConflict
		}
		return c.JSON(status, batchActionResult{Success: false, Message: err.Error()})
	}
	return c.JSON(http.StatusOK, batchActionResult{
		Success: true,
		Message: fmt.Sprintf("batch is now %s", b.Status),
		Batch:   b,
	})
}

func (h *Handler) SuggestBatch(c echo.Context) error {
	drugID, err := uuid.Parse(c.QueryParam("drug_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid drug_id")
	}
	brandID, err := uuid.Parse(c.QueryParam("brand_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid brand_id")
	}

	b, err := h.svc.SuggestBatch(c.Request().Context(), drugID, brandID)
	if errors.Is(err, ErrNotFound) {
		// No suggestion is a normal outcome, not an error.
		return c.JSON(http.StatusOK, map[string]interface{}{"batch": nil})
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"batch": b})
}

func (h *Handler) RetireExpired(c echo.Context) error {
	n, err := h.svc.RetireExpired(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int64{"retired": n})
}
