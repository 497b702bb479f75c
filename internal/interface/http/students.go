package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/roshankumarc210506-arch/learnsphere/internal/application/query"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/notification"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/logger"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/timeutil"
)

// ErrNoSession is returned for session-bound operations without an open session.
var ErrNoSession = shared.NewDomainError("http", "Session", shared.ErrNotFound, "No open session. Please log in first.")

const notificationPageSize = 50

func username(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "username"))
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.Health.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION
// ══════════════════════════════════════════════════════════════════════════════

type openSessionRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	sess, res, err := s.deps.Registry.Open(r.Context(), username(r), req.Name)
	if sess == nil {
		writeError(w, r, err)
		return
	}
	if err != nil && !shared.IsRetryable(err) {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newResultResponse(res, sess.UnreadCount(), err == nil))
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Registry.Close(r.Context(), username(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENTS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.deps.Registry.Get(username(r))
	if !ok {
		writeError(w, r, ErrNoSession)
		return
	}

	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ev, err := req.toEvent(s.deps.Bank)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := sess.Dispatch(r.Context(), ev)
	switch {
	case err == nil:
	case shared.IsRetryable(err):
		logger.FromContext(r.Context()).Warn("event applied but not saved",
			logger.Username(sess.Username()),
			logger.EventKind(ev.Kind().String()),
			logger.Err(err),
		)
	default:
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newResultResponse(res, sess.UnreadCount(), err == nil))
}

// ══════════════════════════════════════════════════════════════════════════════
// READ MODELS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Summary.Handle(r.Context(), query.GetSummaryQuery{Username: username(r)})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleQuiz serves the quiz and starts its clock in the open session.
func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.deps.Registry.Get(username(r)); ok {
		if _, err := sess.Dispatch(r.Context(), progress.StartQuiz{}); err != nil && !shared.IsRetryable(err) {
			writeError(w, r, err)
			return
		}
	}
	result, err := s.deps.Quiz.Handle(r.Context(), query.GetSummaryQuery{Username: username(r)})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFinal(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, query.FinalExam(s.deps.Bank))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.deps.Export.Handle(r.Context(), query.GetSummaryQuery{Username: username(r)})
	if err != nil {
		writeError(w, r, err)
		return
	}
	name := doc.Name
	if strings.TrimSpace(name) == "" {
		name = username(r)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+"_progress.json"))
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := query.GetLeaderboardQuery{}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, shared.Validation("http", "Leaderboard", "limit must be a number", err))
			return
		}
		q.Limit = limit
	}

	result, err := s.deps.Leaderboard.Handle(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

// notificationItem - уведомление с относительным временем для ленты.
type notificationItem struct {
	notification.Notification
	TimeAgo string `json:"time_ago"`
}

type notificationsResponse struct {
	Notifications []notificationItem `json:"notifications"`
	Unread        int                `json:"unread"`
}

func (s *Server) notificationItems(ns []notification.Notification) []notificationItem {
	now := s.deps.Clock.Now()
	items := make([]notificationItem, 0, len(ns))
	for _, n := range ns {
		items = append(items, notificationItem{Notification: n, TimeAgo: timeutil.FormatRelative(n.Timestamp, now)})
	}
	return items
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	name := username(r)
	if sess, ok := s.deps.Registry.Get(name); ok {
		writeJSON(w, http.StatusOK, notificationsResponse{
			Notifications: s.notificationItems(sess.Notifications()),
			Unread:        sess.UnreadCount(),
		})
		return
	}
	if s.deps.Notifications == nil {
		writeError(w, r, ErrNoSession)
		return
	}

	list, err := s.deps.Notifications.List(r.Context(), name, notificationPageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	unread := 0
	for _, n := range list {
		if !n.Read {
			unread++
		}
	}
	writeJSON(w, http.StatusOK, notificationsResponse{Notifications: s.notificationItems(list), Unread: unread})
}

type markReadResponse struct {
	Marked int `json:"marked"`
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	name := username(r)
	var (
		n   int
		err error
	)
	switch sess, ok := s.deps.Registry.Get(name); {
	case ok:
		n, err = sess.MarkAllRead(r.Context())
	case s.deps.Notifications != nil:
		n, err = s.deps.Notifications.MarkAllRead(r.Context(), name)
	default:
		err = ErrNoSession
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, markReadResponse{Marked: n})
}
