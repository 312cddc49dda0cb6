package event

import (
	"net/http"
	"time"

	"NoticeBoard/internal/content"
	"NoticeBoard/internal/validation"

	"github.com/labstack/echo/v4"
)

type EventHandler struct {
	service *Service
}

func NewEventHandler(service *Service) *EventHandler {
	return &EventHandler{service: service}
}

func dateParam(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := validation.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *EventHandler) List(c echo.Context) error {
	var f Filter
	var typ string
	b := echo.QueryParamsBinder(c).String("type", &typ)
	if err := content.BindPaging(b, &f.Paging).BindError(); err != nil {
		return content.ErrBadRequest
	}
	f.Type = Type(typ)

	var err error
	if f.StartDate, err = dateParam(c, "startDate"); err != nil {
		return content.ErrBadRequest
	}
	if f.EndDate, err = dateParam(c, "endDate"); err != nil {
		return content.ErrBadRequest
	}
	if f.EndDate != nil && len(c.QueryParam("endDate")) == len(time.DateOnly) {
		// A bare end date includes the whole day.
		end := f.EndDate.Add(24*time.Hour - time.Nanosecond)
		f.EndDate = &end
	}

	page, err := h.service.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *EventHandler) Get(c echo.Context) error {
	v, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

func (h *EventHandler) Create(c echo.Context) error {
	actor, err := content.Actor(c)
	if err != nil {
		return err
	}
	var in Input
	up, err := content.BindForm(c, &in)
	if err != nil {
		return err
	}
	v, err := h.service.Create(c.Request().Context(), actor, in, up)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *EventHandler) Update(c echo.Context) error {
	actor, err := content.Actor(c)
	if err != nil {
		return err
	}
	var in Input
	up, err := content.BindForm(c, &in)
	if err != nil {
		return err
	}
	v, err := h.service.Update(c.Request().Context(), actor, c.Param("id"), in, up)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

func (h *EventHandler) Delete(c echo.Context) error {
	actor, err := content.Actor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Event removed"})
}
