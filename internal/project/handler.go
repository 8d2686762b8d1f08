package project

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/signalforge/forge-agent/internal/common"
)

type Handler struct {
	service *Service
	cache   *ServiceCountCache
}

func NewHandler(service *Service, cache *ServiceCountCache) *Handler {
	return &Handler{service: service, cache: cache}
}

func (h *Handler) List(c echo.Context) error {
	projects, err := h.service.List()
	if err != nil {
		return common.SendInternalError(c, err.Error())
	}
	return common.SendSuccess(c, projects)
}

func (h *Handler) Get(c echo.Context) error {
	project, err := h.service.Get(c.Param("id"))
	if err != nil {
		return common.SendNotFound(c, err.Error())
	}
	return common.SendSuccess(c, project)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return common.SendBadRequest(c, "invalid request body")
	}

	project, err := h.service.Create(req)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return common.SendConflict(c, err.Error())
		}
		return common.SendBadRequest(c, err.Error())
	}

	h.cache.Sync()
	return common.SendCreated(c, project)
}

func (h *Handler) Update(c echo.Context) error {
	var project Project
	if err := c.Bind(&project); err != nil {
		return common.SendBadRequest(c, "invalid request body")
	}
	project.ID = c.Param("id")

	updated, err := h.service.Update(project)
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

	h.cache.Sync()
	return common.SendMessage(c, "project deleted")
}

func (h *Handler) GetCompose(c echo.Context) error {
	content, err := h.service.ReadCompose(c.Param("id"))
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return common.SendNotFound(c, err.Error())
		}
		return common.SendInternalError(c, err.Error())
	}
	return common.SendSuccess(c, map[string]string{"content": content})
}

func (h *Handler) SaveCompose(c echo.Context) error {
	var req SaveComposeRequest
	if err := c.Bind(&req); err != nil {
		return common.SendBadRequest(c, "invalid request body")
	}

	if err := h.service.WriteCompose(c.Param("id"), req.Content); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return common.SendNotFound(c, err.Error())
		}
		return common.SendBadRequest(c, err.Error())
	}
	return common.SendMessage(c, "compose file saved")
}

func (h *Handler) Up(c echo.Context) error {
	return h.composeCommand(c, h.service.Up)
}

func (h *Handler) Down(c echo.Context) error {
	return h.composeCommand(c, h.service.Down)
}

func (h *Handler) Restart(c echo.Context) error {
	return h.composeCommand(c, h.service.Restart)
}

func (h *Handler) Status(c echo.Context) error {
	return h.composeCommand(c, h.service.Status)
}

func (h *Handler) ServiceCount(c echo.Context) error {
	count, exists := h.cache.GetServiceCount(c.Param("id"))
	if !exists {
		return common.SendNotFound(c, "no service count for project")
	}
	return common.SendSuccess(c, map[string]int{"services": count})
}

func (h *Handler) composeCommand(c echo.Context, run func(ctx context.Context, id string) (string, error)) error {
	output, err := run(c.Request().Context(), c.Param("id"))
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return common.SendNotFound(c, err.Error())
		}
		return common.SendInternalError(c, err.Error())
	}
	return common.SendSuccess(c, map[string]string{"output": output})
}
