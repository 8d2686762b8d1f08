package dns

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

func (h *Handler) Status(c echo.Context) error {
	return common.SendSuccess(c, h.service.GetStatus(c.Request().Context()))
}

func (h *Handler) ConfigureTLD(c echo.Context) error {
	message, err := h.service.ConfigureTLD(c.Request().Context())
	if err != nil {
		return common.SendInternalError(c, err.Error())
	}
	return common.SendMessage(c, message)
}

func (h *Handler) List(c echo.Context) error {
	domains, err := h.service.List()
	if err != nil {
		return common.SendInternalError(c, err.Error())
	}
	return common.SendSuccess(c, domains)
}

func (h *Handler) Add(c echo.Context) error {
	var req AddDomainRequest
	if err := c.Bind(&req); err != nil {
		return common.SendBadRequest(c, "invalid request body")
	}

	domain, err := h.service.Add(req.Name, req.IPAddress)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return common.SendConflict(c, err.Error())
		}
		return common.SendBadRequest(c, err.Error())
	}
	return common.SendCreated(c, domain)
}

func (h *Handler) Remove(c echo.Context) error {
	if err := h.service.Remove(c.Param("name")); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return common.SendNotFound(c, err.Error())
		}
		return common.SendInternalError(c, err.Error())
	}
	return common.SendMessage(c, "domain removed")
}

func (h *Handler) HostsEntries(c echo.Context) error {
	entries, err := h.service.HostsEntries()
	if err != nil {
		return common.SendInternalError(c, err.Error())
	}
	return common.SendSuccess(c, entries)
}

func (h *Handler) TestResolution(c echo.Context) error {
	return common.SendSuccess(c, h.service.TestResolution(c.Request().Context(), c.Param("name")))
}
