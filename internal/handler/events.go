package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"geopresence/internal/event"
	"geopresence/internal/i18n"
)

func (h *Handler) ListEvents(c *gin.Context) {
	events, err := h.events.List(c.Request.Context())
	if err != nil {
		h.internal(c, "list events", err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) CreateEvent(c *gin.Context) {
	var in event.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, http.StatusBadRequest, i18n.EventIncomplete, nil)
		return
	}
	ev, err := h.events.Create(c.Request.Context(), in)
	h.observeMutation("create", err)
	if err != nil {
		h.eventError(c, "create event", in, err)
		return
	}
	slog.InfoContext(c.Request.Context(), "event created", "event_id", ev.ID, "keyword", ev.Keyword, "date", ev.Date)
	c.JSON(http.StatusOK, gin.H{"message": h.message(c, i18n.EventCreated, nil), "id": ev.ID, "evento": ev})
}

func (h *Handler) UpdateEvent(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		h.fail(c, http.StatusBadRequest, i18n.EventIDMissing, nil)
		return
	}
	var in event.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, http.StatusBadRequest, i18n.EventIncomplete, nil)
		return
	}
	ev, err := h.events.Update(c.Request.Context(), id, in)
	h.observeMutation("update", err)
	if err != nil {
		h.eventError(c, "update event", in, err)
		return
	}
	slog.InfoContext(c.Request.Context(), "event updated", "event_id", ev.ID)
	c.JSON(http.StatusOK, gin.H{"message": h.message(c, i18n.EventUpdated, nil), "evento": ev})
}

func (h *Handler) DeleteEvent(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		h.fail(c, http.StatusBadRequest, i18n.EventIDMissing, nil)
		return
	}
	err := h.events.Delete(c.Request.Context(), id)
	h.observeMutation("delete", err)
	if err != nil {
		h.eventError(c, "delete event", event.Input{}, err)
		return
	}
	slog.InfoContext(c.Request.Context(), "event deleted", "event_id", id)
	c.JSON(http.StatusOK, gin.H{"message": h.message(c, i18n.EventDeleted, nil)})
}

func (h *Handler) eventError(c *gin.Context, op string, in event.Input, err error) {
	if fe, ok := asFieldError(err); ok {
		h.fail(c, http.StatusBadRequest, fieldMessage(fe, i18n.EventIncomplete), nil)
		return
	}
	switch {
	case errors.Is(err, event.ErrNotFound):
		h.fail(c, http.StatusNotFound, i18n.EventNotFound, nil)
	case errors.Is(err, event.ErrKeywordTaken):
		h.fail(c, http.StatusConflict, i18n.KeywordTaken, map[string]any{"Keyword": event.NormalizeKeyword(in.Keyword)})
	case errors.Is(err, event.ErrConflict):
		h.fail(c, http.StatusConflict, i18n.EventConflict, nil)
	default:
		h.internal(c, op, err)
	}
}

func (h *Handler) observeMutation(op string, err error) {
	if h.metrics != nil {
		h.metrics.ObserveEventMutation(op, err)
	}
}
