// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/roshankumarc210506-arch/learnsphere/internal/application/session"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Рейтинг студентов по средней оценке квизов, затем по серии.
// Открытые сессии важнее сохранённых документов: их состояние свежее.
// ══════════════════════════════════════════════════════════════════════════════

const (
	defaultLeaderboardLimit = 20
	maxLeaderboardLimit     = 100
)

// GetLeaderboardQuery содержит параметры запроса лидерборда.
type GetLeaderboardQuery struct {
	// Limit - количество записей (по умолчанию 20, максимум 100).
	Limit int
}

// Validate проверяет корректность параметров запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = defaultLeaderboardLimit
	}
	if q.Limit > maxLeaderboardLimit {
		q.Limit = maxLeaderboardLimit
	}
	return nil
}

// GetLeaderboardResult содержит результат запроса лидерборда.
type GetLeaderboardResult struct {
	// Entries - записи лидерборда.
	Entries []progress.LeaderboardEntry `json:"entries"`

	// TotalCount - общее количество студентов.
	TotalCount int `json:"total_count"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// LiveSessions даёт доступ к открытым сессиям.
type LiveSessions interface {
	Sessions() []*session.Session
	Get(username string) (*session.Session, bool)
}

// SnapshotCache хранит готовые результаты по размеру выборки.
type SnapshotCache interface {
	Get(ctx context.Context, limit int, dest any) error
	Set(ctx context.Context, limit int, snapshot any) error
}

// GetLeaderboardHandler обрабатывает запросы на получение лидерборда.
type GetLeaderboardHandler struct {
	store session.ProgressStore
	live  LiveSessions
	clock timeutil.Clock
	cache SnapshotCache
}

// NewGetLeaderboardHandler создаёт новый обработчик запроса лидерборда.
// live может быть nil.
func NewGetLeaderboardHandler(store session.ProgressStore, live LiveSessions, clock timeutil.Clock) *GetLeaderboardHandler {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	return &GetLeaderboardHandler{store: store, live: live, clock: clock}
}

// WithCache включает кэш снимков. Ошибки кэша игнорируются.
func (h *GetLeaderboardHandler) WithCache(cache SnapshotCache) *GetLeaderboardHandler {
	h.cache = cache
	return h
}

// Handle выполняет запрос на получение лидерборда.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrValidation, err.Error(), err)
	}

	if h.cache != nil {
		var cached GetLeaderboardResult
		if err := h.cache.Get(ctx, query.Limit, &cached); err == nil {
			return &cached, nil
		}
	}

	stored, err := h.store.List(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrServiceUnavailable, "failed to list progress", err)
	}

	states := h.overlayLive(stored)

	result := &GetLeaderboardResult{
		Entries:     progress.Leaderboard(states, query.Limit),
		TotalCount:  len(states),
		GeneratedAt: h.clock.Now().UTC(),
	}
	if h.cache != nil {
		_ = h.cache.Set(ctx, query.Limit, result)
	}
	return result, nil
}

// overlayLive заменяет сохранённые документы состоянием открытых сессий.
func (h *GetLeaderboardHandler) overlayLive(stored []progress.State) []progress.State {
	if h.live == nil {
		return stored
	}

	byName := make(map[string]int, len(stored))
	out := make([]progress.State, len(stored))
	for i, s := range stored {
		byName[s.Username] = i
		out[i] = s
	}

	for _, sess := range h.live.Sessions() {
		s := sess.State()
		if i, ok := byName[s.Username]; ok {
			out[i] = s
			continue
		}
		out = append(out, s)
	}
	return out
}

// loadState возвращает состояние открытой сессии или сохранённый документ.
func loadState(ctx context.Context, store session.ProgressStore, live LiveSessions, username string) (progress.State, error) {
	if live != nil {
		if sess, ok := live.Get(username); ok {
			return sess.State(), nil
		}
	}

	state, err := store.Load(ctx, username)
	if err != nil {
		if shared.IsNotFound(err) {
			return progress.State{}, shared.ErrStateNotFound
		}
		return progress.State{}, shared.WrapError("query", "Load", shared.ErrServiceUnavailable, "failed to load progress", err)
	}
	return state, nil
}
