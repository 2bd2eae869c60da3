package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shintopc/UPI-voice-alert/internal/announce"
	"github.com/shintopc/UPI-voice-alert/internal/common"
	"github.com/shintopc/UPI-voice-alert/internal/model"
	"github.com/shintopc/UPI-voice-alert/internal/report"
	"github.com/shintopc/UPI-voice-alert/internal/schedule"
	"github.com/shopspring/decimal"
)

// TransactionView is the JSON form of a recorded payment.
type TransactionView struct {
	OccurredAt time.Time `json:"occurred_at"`
	ID         string    `json:"id"`
	Amount     string    `json:"amount"`
	SourceID   string    `json:"source_id"`
	Source     string    `json:"source"`
	PayerName  string    `json:"payer_name"`
	Evidence   string    `json:"evidence"`
}

func viewOf(txn model.Transaction) TransactionView {
	return TransactionView{
		ID:         txn.ID,
		Amount:     txn.Amount.StringFixed(2),
		SourceID:   txn.SourceID,
		Source:     model.DisplayName(txn.SourceID),
		PayerName:  txn.PayerName,
		OccurredAt: txn.OccurredAt,
		Evidence:   txn.RawEvidence,
	}
}

func viewsOf(txns []model.Transaction) []TransactionView {
	views := make([]TransactionView, 0, len(txns))
	for _, txn := range txns {
		views = append(views, viewOf(txn))
	}
	return views
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func (s *Server) healthHandler(c *gin.Context) {
	status := "ok"
	if !s.announcer.Ready() {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"engine_ready": s.announcer.Ready(),
		"pending":      s.announcer.Pending(),
	})
}

// postNotification handles POST /api/v1/notifications
func (s *Server) postNotification(c *gin.Context) {
	var event model.NotificationEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "Invalid request body"})
		return
	}
	if event.SourceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "source_id is required"})
		return
	}

	outcome := s.pipeline.Handle(c.Request.Context(), event)
	s.recordLast(event, outcome.Status)

	resp := gin.H{"status": outcome.Status}
	if outcome.Recorded() {
		resp["transaction"] = viewOf(*outcome.Transaction)
	}
	c.JSON(http.StatusAccepted, resp)
}

type announcementRequest struct {
	Message  string `json:"message" binding:"required"`
	Language string `json:"language"`
}

// postAnnouncement handles POST /api/v1/announcements
func (s *Server) postAnnouncement(c *gin.Context) {
	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "message is required"})
		return
	}

	settings, err := s.settings.Settings(c.Request.Context())
	if err != nil {
		s.logger.Warn("Settings contain invalid values", "error", err)
	}
	lang := settings.Language
	if req.Language != "" {
		lang = model.ParseLanguage(req.Language)
	}

	if err := s.announcer.Enqueue(announce.MessageRequest(req.Message, lang, settings.SpeechRate)); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue_closed", "message": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "pending": s.announcer.Pending()})
}

// listTransactions handles GET /api/v1/transactions
//
// With from/to (YYYY-MM-DD) it lists that inclusive day range; otherwise it
// returns the most recent payments, newest first.
func (s *Server) listTransactions(c *gin.Context) {
	ctx := c.Request.Context()
	from, to := c.Query("from"), c.Query("to")

	if from == "" && to == "" {
		limit := report.RecentLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > 1000 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_limit", "message": "limit must be between 1 and 1000"})
				return
			}
			limit = n
		}

		txns, err := s.store.GetRecentTransactions(ctx, limit)
		if err != nil {
			s.internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transactions": viewsOf(txns), "count": len(txns)})
		return
	}

	start, end, ok := s.parseDayRange(c, from, to)
	if !ok {
		return
	}
	summary, err := s.reporter.Range(ctx, start, end)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": viewsOf(summary.Transactions),
		"count":        summary.Count,
		"total":        money(summary.Total),
	})
}

func (s *Server) parseDayRange(c *gin.Context, from, to string) (time.Time, time.Time, bool) {
	start, end, err := report.ParseDayRange(from, to, s.now().Location())
	if err != nil {
		code := "invalid_range"
		if errors.Is(err, report.ErrInvalidDate) {
			code = "invalid_date"
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": code, "message": err.Error()})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// getTransaction handles GET /api/v1/transactions/:id
func (s *Server) getTransaction(c *gin.Context) {
	txn, err := s.store.GetTransactionByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Transaction not found"})
			return
		}
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": viewOf(*txn)})
}

// deleteTransaction handles DELETE /api/v1/transactions/:id
func (s *Server) deleteTransaction(c *gin.Context) {
	if err := s.store.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "Transaction not found"})
			return
		}
		s.internalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// clearTransactions handles DELETE /api/v1/transactions?confirm=true
func (s *Server) clearTransactions(c *gin.Context) {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "confirmation_required", "message": "pass confirm=true to delete all transactions"})
		return
	}
	if err := s.store.DeleteAllTransactions(c.Request.Context()); err != nil {
		s.internalError(c, err)
		return
	}
	s.logger.Warn("All transactions deleted via API")
	c.Status(http.StatusNoContent)
}

// overview handles GET /api/v1/overview
func (s *Server) overview(c *gin.Context) {
	o, err := s.reporter.Overview(c.Request.Context(), s.now())
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"today_total": money(o.TodayTotal),
		"month_total": money(o.MonthTotal),
		"recent":      viewsOf(o.Recent),
	})
}

// periodReport handles GET /api/v1/reports/:period
func (s *Server) periodReport(c *gin.Context) {
	period, err := report.ParsePeriod(c.Param("period"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_period", "message": err.Error()})
		return
	}

	summary, err := s.reporter.Period(c.Request.Context(), period, s.now())
	if err != nil {
		s.internalError(c, err)
		return
	}

	buckets := make([]gin.H, 0, len(summary.Buckets))
	for _, b := range summary.Buckets {
		buckets = append(buckets, gin.H{"label": b.Label, "start": b.Start, "total": money(b.Total), "count": b.Count})
	}
	payers := make([]gin.H, 0, len(summary.TopPayers))
	for _, p := range summary.TopPayers {
		payers = append(payers, gin.H{"payer_name": p.PayerName, "total": money(p.Total), "count": p.Count})
	}

	c.JSON(http.StatusOK, gin.H{
		"period":     period,
		"title":      summary.Title,
		"start":      summary.Start,
		"end":        summary.End,
		"total":      money(summary.Total),
		"count":      summary.Count,
		"average":    money(summary.Average()),
		"buckets":    buckets,
		"top_payers": payers,
	})
}

// muteStatus handles GET /api/v1/mute
func (s *Server) muteStatus(c *gin.Context) {
	settings, err := s.settings.Settings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid_config", "message": err.Error()})
		return
	}

	now := s.now()
	mute := settings.Mute
	resp := gin.H{
		"enabled":       mute.Enabled,
		"start":         schedule.FormatClock(mute.StartMinute),
		"end":           schedule.FormatClock(mute.EndMinute),
		"muted_now":     schedule.IsMutedAt(mute, now),
		"voice_enabled": settings.VoiceEnabled,
	}
	if next, ok := schedule.NextChange(mute, schedule.MinuteOfDay(now)); ok {
		resp["next_change"] = schedule.FormatClock(next)
	}
	c.JSON(http.StatusOK, resp)
}

// lastNotification handles GET /api/v1/diagnostics/last
func (s *Server) lastNotification(c *gin.Context) {
	last := s.lastReceived()
	if last == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "No notification received yet"})
		return
	}
	c.JSON(http.StatusOK, last)
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.logger.Error("request failed", "error", err, "path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An unexpected error occurred"})
}
