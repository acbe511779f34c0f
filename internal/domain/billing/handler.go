package billing

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cliniq/cliniq/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse))
	readGroup.GET("/prescriptions/:id/bill", h.GetBill)
	readGroup.GET("/charges", h.ListCharges)
	readGroup.GET("/fee-rules", h.ListFeeRules)
	readGroup.POST("/charges/preview", h.PreviewTotal)

	calcGroup := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse))
	calcGroup.POST("/bills/calculate", h.CalculateBill)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.POST("/charges", h.CreateCharge)
	adminGroup.PUT("/charges/:id", h.UpdateCharge)
	adminGroup.DELETE("/charges/:id", h.DeleteCharge)
}

type calcResult struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Bill    *BillView `json:"bill,omitempty"`
}

func (h *Handler) CalculateBill(c echo.Context) error {
	var req CalculateBillRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	view, err := h.svc.CalculateBill(c.Request().Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrMissingBatchAssignment):
			status = http.StatusBadRequest
		case errors.Is(err, ErrPrescriptionNotFound),
			errors.Is(err, ErrBatchNotFound),
			errors.Is(err, ErrIssueNotFound):
			status = http.StatusNotFound
		case errors.Is(err, ErrAlreadyCompleted):
			status = http.StatusConflict
		}
		return c.JSON(status, calcResult{Success: false, Message: err.Error()})
	}
	return c.JSON(http.StatusOK, calcResult{Success: true, Message: "bill calculated", Bill: view})
}

func (h *Handler) GetBill(c echo.Context) error {
	prescriptionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	view, err := h.svc.GetBill(c.Request().Context(), prescriptionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no bill for prescription")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) ListFeeRules(c echo.Context) error {
	return c.JSON(http.StatusOK, FeeRules)
}

func (h *Handler) ListCharges(c echo.Context) error {
	charges, err := h.svc.ListCharges(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, charges)
}

type previewRequest struct {
	Base      float64     `json:"base"`
	ChargeIDs []uuid.UUID `json:"charge_ids"`
}

func (h *Handler) PreviewTotal(c echo.Context) error {
	var req previewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	total, err := h.svc.PreviewTotal(c.Request().Context(), req.Base, req.ChargeIDs)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "charge not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]float64{"total": total})
}

func (h *Handler) CreateCharge(c echo.Context) error {
	var ch Charge
	if err := c.Bind(&ch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateCharge(c.Request().Context(), &ch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, ch)
}

func (h *Handler) UpdateCharge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var ch Charge
	if err := c.Bind(&ch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ch.ID = id
	if err := h.svc.UpdateCharge(c.Request().Context(), &ch); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "charge not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, ch)
}

func (h *Handler) DeleteCharge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteCharge(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "charge not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
