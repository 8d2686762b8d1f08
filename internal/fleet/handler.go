package fleet

import (
	"context"
	"errors"
	"strconv"

	"github.com/signalforge/forge-agent/internal/common"
	"github.com/signalforge/forge-agent/internal/engine"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	store      *Store
	fetcher    *Fetcher
	dispatcher *Dispatcher
	engine     engine.Client
	logTail    int
}

func NewHandler(store *Store, fetcher *Fetcher, dispatcher *Dispatcher, client engine.Client, logTail int) *Handler {
	return &Handler{
		store:      store,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		engine:     client,
		logTail:    logTail,
	}
}

func (h *Handler) GetFleet(c echo.Context) error {
	return common.SendSuccess(c, h.store.Current())
}

func (h *Handler) GetContainers(c echo.Context) error {
	filter := StatusFilter(c.QueryParam("status"))
	switch filter {
	case FilterAll, FilterRunning, FilterStopped, "":
	default:
		return common.SendBadRequest(c, "status must be one of: all, running, stopped")
	}

	snapshot := h.store.Current()
	return common.SendSuccess(c, snapshot.Filter(filter))
}

func (h *Handler) GetSummary(c echo.Context) error {
	return common.SendSuccess(c, h.store.Current().Summarize())
}

func (h *Handler) RefreshNow(c echo.Context) error {
	if err := h.fetcher.Refresh(c.Request().Context()); err != nil {
		return h.sendFleetError(c, err)
	}
	return common.SendSuccess(c, h.store.Current())
}

func (h *Handler) StartContainer(c echo.Context) error {
	return h.command(c, h.dispatcher.Start)
}

func (h *Handler) StopContainer(c echo.Context) error {
	return h.command(c, h.dispatcher.Stop)
}

func (h *Handler) RestartContainer(c echo.Context) error {
	return h.command(c, h.dispatcher.Restart)
}

func (h *Handler) command(c echo.Context, run func(context.Context, string) error) error {
	id := c.Param("id")
	if id == "" {
		return common.SendBadRequest(c, "container id is required")
	}

	if err := run(c.Request().Context(), id); err != nil {
		return h.sendFleetError(c, err)
	}
	return common.SendSuccess(c, h.store.Current())
}

func (h *Handler) GetContainerLogs(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return common.SendBadRequest(c, "container id is required")
	}

	tail := h.logTail
	if raw := c.QueryParam("tail"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return common.SendBadRequest(c, "tail must be a non-negative integer")
		}
		tail = parsed
	}

	lines, err := h.engine.ContainerLogs(c.Request().Context(), id, tail)
	if err != nil {
		return common.SendInternalError(c, err.Error())
	}

	return common.SendSuccess(c, map[string]any{
		"container_id": id,
		"lines":        lines,
	})
}

func (h *Handler) sendFleetError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrDisconnected):
		return common.SendServiceUnavailable(c, err.Error())
	case errors.Is(err, ErrCommandBusy):
		return common.SendConflict(c, err.Error())
	default:
		return common.SendInternalError(c, err.Error())
	}
}
