package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"geopresence/internal/admission"
	"geopresence/internal/attendance"
	"geopresence/internal/export"
	"geopresence/internal/i18n"
	"geopresence/internal/metrics"
)

// SubmitAttendance is the public check-in endpoint. Every admission failure
// gets the same response.
func (h *Handler) SubmitAttendance(c *gin.Context) {
	ctx := c.Request.Context()
	var sub attendance.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		h.observeSubmission(metrics.ResultInvalid, "")
		h.fail(c, http.StatusBadRequest, i18n.FormIncomplete, nil)
		return
	}

	rec, err := h.checkins.CheckIn(ctx, sub)
	if err != nil {
		var rej *admission.Rejection
		if fe, ok := asFieldError(err); ok {
			h.observeSubmission(metrics.ResultInvalid, fe.Code)
			h.fail(c, http.StatusBadRequest, fieldMessage(fe, i18n.FormIncomplete), nil)
			return
		}
		if errors.As(err, &rej) {
			h.observeSubmission(metrics.ResultRejected, string(rej.Reason))
			slog.InfoContext(ctx, "attendance rejected",
				"reason", rej.Reason,
				"keyword", sub.Keyword,
				"event_id", rej.EventID,
				"distance_m", rej.Distance,
			)
			h.fail(c, http.StatusBadRequest, i18n.AdmissionRejected, nil)
			return
		}
		h.observeSubmission(metrics.ResultError, "")
		h.internal(c, "record attendance", err)
		return
	}

	h.observeSubmission(metrics.ResultAccepted, "")
	slog.InfoContext(ctx, "attendance recorded", "record_id", rec.ID, "event_id", rec.EventID)
	c.JSON(http.StatusOK, gin.H{"message": h.message(c, i18n.AttendanceRecorded, nil), "id": rec.ID})
}

func (h *Handler) ListAttendance(c *gin.Context) {
	records, err := h.checkins.List(c.Request.Context(), c.Query("eventoId"))
	if err != nil {
		h.internal(c, "list attendance", err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) ExportAttendance(c *gin.Context) {
	eventID := strings.TrimSpace(c.Query("eventoId"))
	records, err := h.checkins.List(c.Request.Context(), eventID)
	if err != nil {
		h.internal(c, "list attendance", err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, records); err != nil {
		h.internal(c, "export attendance", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(eventID)+`"`)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

func (h *Handler) observeSubmission(result, reason string) {
	if h.metrics != nil {
		h.metrics.ObserveSubmission(result, reason)
	}
}
