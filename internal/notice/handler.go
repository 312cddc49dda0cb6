package notice

import (
	"net/http"

	"NoticeBoard/internal/content"

	"github.com/labstack/echo/v4"
)

type NoticeHandler struct {
	service *Service
}

func NewNoticeHandler(service *Service) *NoticeHandler {
	return &NoticeHandler{service: service}
}

func (h *NoticeHandler) List(c echo.Context) error {
	var f Filter
	var typ string
	b := echo.QueryParamsBinder(c).String("type", &typ)
	if err := content.BindPaging(b, &f.Paging).BindError(); err != nil {
		return content.ErrBadRequest
	}
	f.Type = Type(typ)
	page, err := h.service.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *NoticeHandler) Get(c echo.Context) error {
	v, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

func (h *NoticeHandler) Create(c echo.Context) error {
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

func (h *NoticeHandler) Update(c echo.Context) error {
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

func (h *NoticeHandler) Delete(c echo.Context) error {
	actor, err := content.Actor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Notice removed"})
}
