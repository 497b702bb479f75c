package progress

import (
	"slices"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDY TIMER
// ══════════════════════════════════════════════════════════════════════════════

// StartSession открывает учебную сессию.
func StartSession(now time.Time) Timer {
	return Timer{StartedAt: now}
}

// StopSession закрывает сессию и добавляет время к study_time.
// Отрицательная длительность (сдвиг часов) считается нулём.
func StopSession(s State, timer Timer, now time.Time) (State, time.Duration) {
	c := s.Clone()
	elapsed := stopSession(&c, timer, now)
	return c, elapsed
}

func stopSession(s *State, timer Timer, now time.Time) time.Duration {
	elapsed := now.Sub(timer.StartedAt).Truncate(time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	s.StudyTime += int64(elapsed / time.Second)
	s.ActiveTimer = nil
	return elapsed
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTES
// ══════════════════════════════════════════════════════════════════════════════

// PureAddNote добавляет заметку. Пустые тема и текст отсекаются движком.
func PureAddNote(s State, topic, content string, at time.Time) State {
	c := s.Clone()
	addNote(&c, topic, content, at)
	return c
}

func addNote(s *State, topic, content string, at time.Time) {
	if s.Notes == nil {
		s.Notes = map[string][]NoteEntry{}
	}
	topic = strings.TrimSpace(topic)
	s.Notes[topic] = append(s.Notes[topic], NoteEntry{
		Content: strings.TrimSpace(content),
		Date:    at.UTC(),
	})
}

// PureDeleteNote удаляет заметку по индексу; пустой список удаляет ключ.
// Индекс вне диапазона - не ошибка.
func PureDeleteNote(s State, topic string, index int) (State, bool) {
	c := s.Clone()
	return c, deleteNote(&c, topic, index)
}

func deleteNote(s *State, topic string, index int) bool {
	topic = strings.TrimSpace(topic)
	entries, ok := s.Notes[topic]
	if !ok || index < 0 || index >= len(entries) {
		return false
	}
	entries = slices.Delete(entries, index, index+1)
	if len(entries) == 0 {
		delete(s.Notes, topic)
	} else {
		s.Notes[topic] = entries
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// MODULES / BOOKMARKS
// ══════════════════════════════════════════════════════════════════════════════

// PureToggleBookmark добавляет или убирает закладку. Возвращает true, если закладка добавлена.
func PureToggleBookmark(s State, topic string) (State, bool) {
	c := s.Clone()
	return c, toggleBookmark(&c, topic)
}

func toggleBookmark(s *State, topic string) bool {
	topic = strings.TrimSpace(topic)
	if idx := slices.Index(s.Bookmarks, topic); idx >= 0 {
		s.Bookmarks = slices.Delete(s.Bookmarks, idx, idx+1)
		return false
	}
	s.Bookmarks = append(s.Bookmarks, topic)
	return true
}

// PureMarkModuleComplete отмечает модуль пройденным один раз.
func PureMarkModuleComplete(s State, topic string) (State, bool) {
	c := s.Clone()
	return c, markModuleComplete(&c, topic)
}

func markModuleComplete(s *State, topic string) bool {
	topic = strings.TrimSpace(topic)
	if slices.Contains(s.CompletedModules, topic) {
		return false
	}
	s.CompletedModules = append(s.CompletedModules, topic)
	return true
}
