package http

import (
	"strings"

	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/notification"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/quiz"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT REQUEST
// Плоское тело {type, ...payload}; поля, не относящиеся к типу, игнорируются.
// ══════════════════════════════════════════════════════════════════════════════

type answerDTO struct {
	Topic  string `json:"topic"`
	Index  int    `json:"index"`
	Answer string `json:"answer"`
}

type eventRequest struct {
	Type string `json:"type"`

	// quiz_submit, final_submit
	Answers []answerDTO `json:"answers"`

	// add_note, delete_note, toggle_bookmark, mark_module_complete
	Topic   string `json:"topic"`
	Content string `json:"content"`
	Index   int    `json:"index"`

	// add_event, delete_event
	ID       string `json:"id"`
	Title    string `json:"title"`
	Time     string `json:"time"`
	Date     string `json:"date"`
	Reminder bool   `json:"reminder"`
}

func (req eventRequest) answers() progress.Answers {
	out := make(progress.Answers, len(req.Answers))
	for _, a := range req.Answers {
		out[progress.AnswerKey{Topic: a.Topic, Index: a.Index}] = a.Answer
	}
	return out
}

// toEvent builds the engine event. Final submissions are scored against the
// bank's current final exam.
func (req eventRequest) toEvent(bank quiz.Bank) (progress.Event, error) {
	switch progress.EventKind(strings.TrimSpace(req.Type)) {
	case progress.KindLoginTick:
		return progress.LoginTick{}, nil
	case progress.KindStartQuiz:
		return progress.StartQuiz{}, nil
	case progress.KindQuizSubmit:
		return progress.QuizSubmit{Answers: req.answers()}, nil
	case progress.KindFinalSubmit:
		return progress.FinalSubmit{Refs: bank.FinalExam(), Answers: req.answers()}, nil
	case progress.KindStartTimer:
		return progress.StartTimer{}, nil
	case progress.KindStopTimer:
		return progress.StopTimer{}, nil
	case progress.KindAddNote:
		return progress.AddNote{Topic: req.Topic, Content: req.Content}, nil
	case progress.KindDeleteNote:
		return progress.DeleteNote{Topic: req.Topic, Index: req.Index}, nil
	case progress.KindAddEvent:
		return progress.AddEvent{Title: req.Title, Time: req.Time, Date: req.Date, Reminder: req.Reminder}, nil
	case progress.KindDeleteEvent:
		return progress.DeleteEvent{ID: progress.EventID(req.ID)}, nil
	case progress.KindReminderTick:
		return progress.ReminderTick{}, nil
	case progress.KindToggleBookmark:
		return progress.ToggleBookmark{Topic: req.Topic}, nil
	case progress.KindMarkModuleComplete:
		return progress.MarkModuleComplete{Topic: req.Topic}, nil
	default:
		return nil, shared.ErrUnknownEvent
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RESULT RESPONSE
// ══════════════════════════════════════════════════════════════════════════════

type resultResponse struct {
	Progress      progress.State              `json:"progress"`
	Stats         progress.Stats              `json:"stats"`
	TimerRunning  bool                        `json:"timer_running"`
	Notifications []notification.Notification `json:"notifications"`
	Unread        int                         `json:"unread"`
	Hints         progress.Hints              `json:"hints"`
	Messages      []string                    `json:"messages"`
	Unlocked      []progress.AchievementID    `json:"unlocked"`
	Quiz          *progress.QuizSummary       `json:"quiz,omitempty"`
	Final         *progress.FinalResult       `json:"final,omitempty"`
	Event         *progress.StudyEvent        `json:"event,omitempty"`

	// Saved is false when the store rejected the write; the session keeps the
	// state and retries in the background.
	Saved bool `json:"saved"`
}

func newResultResponse(res progress.Result, unread int, saved bool) resultResponse {
	out := resultResponse{
		Progress:      res.State,
		Stats:         progress.ComputeStats(res.State),
		TimerRunning:  res.State.ActiveTimer != nil,
		Notifications: res.Notifications,
		Unread:        unread,
		Hints:         res.Hints,
		Messages:      res.Messages,
		Unlocked:      res.Unlocked,
		Quiz:          res.Quiz,
		Final:         res.Final,
		Event:         res.Event,
		Saved:         saved,
	}
	if out.Notifications == nil {
		out.Notifications = []notification.Notification{}
	}
	if out.Hints == nil {
		out.Hints = progress.Hints{}
	}
	if out.Messages == nil {
		out.Messages = []string{}
	}
	if out.Unlocked == nil {
		out.Unlocked = []progress.AchievementID{}
	}
	return out
}
