package nginx

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/signalforge/forge-agent/internal/common"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c echo.Context) error {
	vhosts, err := h.service.List()
	if err != nil {
		return common.SendInternalError(c, err.Error())
	}
	return common.SendSuccess(c, vhosts)
}

func (h *Handler) Get(c echo.Context) error {
	vhost, err := h.service.Get(c.Param("id"))
	if err != nil {
		return common.SendNotFound(c, err.Error())
	}
	return common.SendSuccess(c, vhost)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateVhostRequest
	if err := c.Bind(&req); err != nil {
		return common.SendBadRequest(c, "invalid request body")
	}

	vhost, err := h.service.Create(req)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return common.SendConflict(c, err.Error())
		}
		return common.SendBadRequest(c, err.Error())
	}
	return common.SendCreated(c, vhost)
}

func (h *Handler) Update(c echo.Context) error {
	var vhost Vhost
	if err := c.Bind(&vhost); err != nil {
		return common.SendBadRequest(c, "invalid request body")
	}
	vhost.ID = c.Param("id")

	updated, err := h.service.Update(vhost)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return common.SendNotFound(c, err.Error())
		}
		return common.SendInternalError(c, err.Error())
	}
	return common.SendSuccess(c, updated)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Param("id")); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return common.SendNotFound(c, err.Error())
		}
		return common.SendInternalError(c, err.Error())
	}
	return common.SendMessage(c, "vhost deleted")
}

func (h *Handler) GetConfig(c echo.Context) error {
	content, err := h.service.ReadConfig(c.Param("id"))
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return common.SendNotFound(c, err.Error())
		}
		return common.SendInternalError(c, err.Error())
	}
	return common.SendSuccess(c, map[string]string{"content": content})
}

func (h *Handler) SaveConfig(c echo.Context) error {
	var req SaveConfigRequest
	if err := c.Bind(&req); err != nil {
		return common.SendBadRequest(c, "invalid request body")
	}

	if err := h.service.WriteConfig(c.Param("id"), req.Content); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return common.SendNotFound(c, err.Error())
		}
		return common.SendInternalError(c, err.Error())
	}
	return common.SendMessage(c, "vhost config saved")
}

func (h *Handler) TestConfig(c echo.Context) error {
	result, err := h.service.TestConfig(c.Request().Context())
	if err != nil {
		return common.SendInternalError(c, err.Error())
	}
	return common.SendSuccess(c, result)
}

func (h *Handler) Reload(c echo.Context) error {
	if err := h.service.Reload(c.Request().Context()); err != nil {
		return common.SendInternalError(c, err.Error())
	}
	return common.SendMessage(c, "nginx reloaded")
}

func (h *Handler) DefaultConfig(c echo.Context) error {
	return common.SendSuccess(c, map[string]string{"content": DefaultConfig})
}
