package certs

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

func (h *Handler) InstallCA(c echo.Context) error {
	if err := h.service.InstallCA(c.Request().Context()); err != nil {
		return common.SendInternalError(c, err.Error())
	}
	return common.SendMessage(c, "CA installed successfully, you may need to restart your browser")
}

func (h *Handler) List(c echo.Context) error {
	certs, err := h.service.List()
	if err != nil {
		return common.SendInternalError(c, err.Error())
	}
	return common.SendSuccess(c, certs)
}

func (h *Handler) Get(c echo.Context) error {
	cert, err := h.service.Get(c.Param("domain"))
	if err != nil {
		return common.SendNotFound(c, err.Error())
	}
	return common.SendSuccess(c, cert)
}

func (h *Handler) Generate(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return common.SendBadRequest(c, "invalid request body")
	}

	cert, err := h.service.Generate(c.Request().Context(), req.Domain, req.Wildcard)
	if err != nil {
		return common.SendBadRequest(c, err.Error())
	}
	return common.SendCreated(c, cert)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Param("domain")); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return common.SendNotFound(c, err.Error())
		}
		return common.SendInternalError(c, err.Error())
	}
	return common.SendMessage(c, "certificate deleted")
}
