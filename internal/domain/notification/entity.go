// Package notification содержит доменную модель уведомлений LearnSphere.
// Уведомления появляются при разблокировке достижений и срабатывании напоминаний
// учебного плана; студент только помечает их прочитанными.
package notification

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ID представляет уникальный идентификатор уведомления.
type ID string

// NewID генерирует новый идентификатор.
func NewID() ID {
	return ID(uuid.NewString())
}

// IsValid проверяет, что ID не пустой.
func (id ID) IsValid() bool {
	return len(id) > 0
}

// String возвращает строковое представление ID.
func (id ID) String() string {
	return string(id)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION TYPE
// ══════════════════════════════════════════════════════════════════════════════

// Type определяет тип уведомления.
type Type string

const (
	// TypeAchievement - разблокировано достижение.
	// "You earned the "Quiz Whiz" badge!"
	TypeAchievement Type = "achievement"

	// TypeReminder - напоминание о занятии из учебного плана.
	TypeReminder Type = "reminder"

	// TypeSystem - системное сообщение.
	TypeSystem Type = "system"
)

// IsValid проверяет, что тип уведомления известен.
func (t Type) IsValid() bool {
	switch t {
	case TypeAchievement, TypeReminder, TypeSystem:
		return true
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Notification - запись журнала уведомлений.
type Notification struct {
	ID        ID        `json:"id"`
	Type      Type      `json:"type"`
	Recipient string    `json:"username"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// NewParams содержит параметры для создания уведомления.
type NewParams struct {
	ID        ID
	Type      Type
	Recipient string
	Title     string
	Message   string
	At        time.Time
}

// New создаёт уведомление; пустой ID генерируется.
func New(params NewParams) (Notification, error) {
	if !params.ID.IsValid() {
		params.ID = NewID()
	}

	if !params.Type.IsValid() {
		return Notification{}, fmt.Errorf("%w: %q", ErrInvalidType, params.Type)
	}

	if strings.TrimSpace(params.Message) == "" {
		return Notification{}, ErrEmptyMessage
	}

	at := params.At
	if at.IsZero() {
		at = time.Now()
	}

	return Notification{
		ID:        params.ID,
		Type:      params.Type,
		Recipient: params.Recipient,
		Title:     params.Title,
		Message:   params.Message,
		Timestamp: at.UTC(),
		Read:      false,
	}, nil
}

// String возвращает строковое представление для логов.
func (n Notification) String() string {
	return fmt.Sprintf("Notification{ID: %s, Type: %s, To: %s, Title: %q}",
		n.ID, n.Type, n.Recipient, n.Title)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidType - неизвестный тип уведомления.
	ErrInvalidType = errors.New("invalid notification type")

	// ErrEmptyMessage - пустой текст уведомления.
	ErrEmptyMessage = errors.New("notification message cannot be empty")
)
