package lending

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"booklending/model"
	ls "booklending/service/lending"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc ls.Service
	V   *validator.Validate
	Log *slog.Logger
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == model.RoleAdmin
}

func lendingID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// POST /v1/lendings
func (h *Controller) Request(c echo.Context) error {
	var req CreateLendingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	uid, _ := c.Get("user_id").(int64)

	id, err := h.Svc.Request(c.Request().Context(), uid, req.BookID)
	if err != nil {
		if ls.Code(err) == ls.ErrBookNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		}
		h.Log.Error("lending request", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"lending_id": id,
		"status":     model.LendingRequesting,
	})
}

// POST /v1/lendings/:id/approve  (admin)
func (h *Controller) Approve(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, ok := lendingID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Approve(c.Request().Context(), id); err != nil {
		return h.mapErr(c, "lending approve", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "approved"})
}

// POST /v1/lendings/:id/borrow  (admin)
func (h *Controller) Borrow(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, ok := lendingID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.MarkBorrowed(c.Request().Context(), id); err != nil {
		return h.mapErr(c, "lending borrow", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "borrowed"})
}

// POST /v1/lendings/:id/return  (admin)
func (h *Controller) Return(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, ok := lendingID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Return(c.Request().Context(), id); err != nil {
		return h.mapErr(c, "lending return", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "returned"})
}

// PUT /v1/lendings/:id/due-date  (admin)
func (h *Controller) EditDueDate(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, ok := lendingID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req EditDueDateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid due_date"})
	}
	if err := h.Svc.EditDueDate(c.Request().Context(), id, due); err != nil {
		return h.mapErr(c, "lending edit due date", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "due date updated"})
}

// DELETE /v1/lendings/:id  (admin)
func (h *Controller) Delete(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, ok := lendingID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return h.mapErr(c, "lending delete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

// GET /v1/lendings/my
func (h *Controller) MyHistory(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.MyHistory(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("lending history", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/lendings  (admin)
func (h *Controller) List(c echo.Context) error {
	if !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	rows, err := h.Svc.ListAll(c.Request().Context())
	if err != nil {
		h.Log.Error("lending list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

func (h *Controller) mapErr(c echo.Context, op string, err error) error {
	switch ls.Code(err) {
	case ls.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "lending not found"})
	case ls.ErrBookNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
	case ls.ErrOutOfStock:
		return c.JSON(http.StatusConflict, echo.Map{"message": "no stock available"})
	case ls.ErrWrongStatus:
		return c.JSON(http.StatusConflict, echo.Map{"message": "lending is not in a valid status for this action"})
	case ls.ErrLendingActive:
		return c.JSON(http.StatusConflict, echo.Map{"message": "lending is active"})
	case ls.ErrInvalidDates:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid date range"})
	default:
		h.Log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
