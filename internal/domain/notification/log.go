package notification

import (
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RETENTION
// ══════════════════════════════════════════════════════════════════════════════

const (
	// DefaultMaxEntries - сколько последних уведомлений хранится на студента.
	DefaultMaxEntries = 50

	// DefaultMaxAge - уведомления старше удаляются при очистке.
	DefaultMaxAge = 30 * 24 * time.Hour
)

// RetentionPolicy ограничивает рост журнала.
type RetentionPolicy struct {
	// MaxEntries - максимум записей (0 = без ограничения).
	MaxEntries int

	// MaxAge - максимальный возраст записи (0 = без ограничения).
	MaxAge time.Duration
}

// DefaultRetention возвращает политику по умолчанию.
func DefaultRetention() RetentionPolicy {
	return RetentionPolicy{
		MaxEntries: DefaultMaxEntries,
		MaxAge:     DefaultMaxAge,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LOG
// ══════════════════════════════════════════════════════════════════════════════

// Log - журнал уведомлений одного студента, новые сверху.
// Не потокобезопасен: владелец (сессия) сериализует доступ.
type Log struct {
	policy  RetentionPolicy
	entries []Notification
}

// NewLog создаёт журнал, используя существующие записи.
func NewLog(policy RetentionPolicy, existing ...Notification) *Log {
	l := &Log{policy: policy}
	l.entries = append(l.entries, existing...)
	sort.SliceStable(l.entries, func(i, j int) bool {
		return l.entries[i].Timestamp.After(l.entries[j].Timestamp)
	})
	l.enforceCap()
	return l
}

// Add добавляет уведомления и возвращает количество вытесненных старых записей.
func (l *Log) Add(ns ...Notification) int {
	for _, n := range ns {
		l.entries = append([]Notification{n}, l.entries...)
	}
	return l.enforceCap()
}

// Entries возвращает копию журнала (новые сверху).
func (l *Log) Entries() []Notification {
	out := make([]Notification, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len возвращает размер журнала.
func (l *Log) Len() int {
	return len(l.entries)
}

// UnreadCount считает непрочитанные.
func (l *Log) UnreadCount() int {
	count := 0
	for _, n := range l.entries {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkAllRead помечает всё прочитанным и возвращает число изменённых записей.
func (l *Log) MarkAllRead() int {
	changed := 0
	for i := range l.entries {
		if !l.entries[i].Read {
			l.entries[i].Read = true
			changed++
		}
	}
	return changed
}

// Prune удаляет записи старше MaxAge относительно now.
func (l *Log) Prune(now time.Time) int {
	if l.policy.MaxAge <= 0 {
		return 0
	}
	cutoff := now.Add(-l.policy.MaxAge)

	kept := l.entries[:0]
	removed := 0
	for _, n := range l.entries {
		if n.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	l.entries = kept
	return removed
}

func (l *Log) enforceCap() int {
	if l.policy.MaxEntries <= 0 || len(l.entries) <= l.policy.MaxEntries {
		return 0
	}
	evicted := len(l.entries) - l.policy.MaxEntries
	l.entries = l.entries[:l.policy.MaxEntries]
	return evicted
}
