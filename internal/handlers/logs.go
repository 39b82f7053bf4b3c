package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"gsj_gateway/internal/service"

	"github.com/gin-gonic/gin"
)

// Accepted layouts for ?from and ?to, most specific first.
var queryTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

type logsQuery struct {
	From  string `form:"from"`
	To    string `form:"to"`
	Type  string `form:"type"`
	Limit string `form:"limit"`
}

// filter turns raw query values into a service filter. A date-only "to" covers
// the whole day.
func (q logsQuery) filter() (service.LogFilter, error) {
	f := service.LogFilter{Type: q.Type}
	var err error
	if q.From != "" {
		if f.From, err = parseQueryTime("from", q.From); err != nil {
			return f, err
		}
	}
	if q.To != "" {
		if f.To, err = parseQueryTime("to", q.To); err != nil {
			return f, err
		}
		if !strings.ContainsAny(q.To, "T ") {
			f.To = f.To.Add(24*time.Hour - time.Nanosecond)
		}
	}
	if q.Limit != "" {
		if f.Limit, err = strconv.Atoi(q.Limit); err != nil {
			return f, &service.ValidationError{Field: "limit", Msg: "not an integer", Err: err}
		}
	}
	return f, nil
}

func parseQueryTime(field, s string) (time.Time, error) {
	for _, layout := range queryTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &service.ValidationError{Field: field, Msg: "use RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'"}
}

// @Summary      Audit log
// @Description  Gateway events, oldest first. A date-only 'to' is inclusive of the whole day.
// @Tags         logs
// @Produce      json
// @Param        from   query  string  false  "Start of range"  example(2026-10-01)
// @Param        to     query  string  false  "End of range"    example(2026-10-31)
// @Param        type   query  string  false  "Event type"  Enums(LOGIN,LOGIN_FAILED,SESSION_EXPIRED,SET_PARAMETER,TELEMETRY)
// @Param        limit  query  int     false  "Newest N events (default 200, max 1000)"
// @Success      200  {object}  map[string]interface{}  "count, events"
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	var q logsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := q.filter()
	if err != nil {
		h.logAndJSONError(c, "logs_bad_query", err, "query", c.Request.URL.RawQuery)
		return
	}
	events, err := h.services.EventLog.List(c.Request.Context(), f)
	if err != nil {
		h.logAndJSONError(c, "logs_list_failed", err, "from", f.From, "to", f.To, "type", f.Type)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
}
