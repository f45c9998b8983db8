package model

// Question is a single trivia prompt supplied by a host at session time.
// Questions are append-only within a Session and never mutated after Add.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"-"` // server-private; never serialized in a public view
	TimeLimitSec  int      `json:"timeLimit"`
	Category      string   `json:"category,omitempty"`
}

const defaultTimeLimitSec = 30

// NewQuestion validates and builds a Question from host-supplied fields,
// applying the default time limit when none is given.
func NewQuestion(id, text string, options []string, correctAnswer, timeLimitSec int, category string) (*Question, error) {
	if text == "" {
		return nil, ErrBadRequest
	}
	if len(options) < 2 {
		return nil, ErrBadRequest
	}
	if correctAnswer < 0 || correctAnswer >= len(options) {
		return nil, ErrBadRequest
	}
	if timeLimitSec <= 0 {
		timeLimitSec = defaultTimeLimitSec
	}
	return &Question{
		ID:            id,
		Text:          text,
		Options:       options,
		CorrectAnswer: correctAnswer,
		TimeLimitSec:  timeLimitSec,
		Category:      category,
	}, nil
}

// View is the player-facing projection of a Question: the correct-answer
// index is omitted, and a 1-based position within the session's question
// list is carried instead.
type View struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	TimeLimit      int      `json:"timeLimit"`
	Category       string   `json:"category,omitempty"`
	QuestionNumber int      `json:"questionNumber"`
	TotalQuestions int      `json:"totalQuestions"`
}

// PublicView strips the correct-answer index and attaches the question's
// position among the session's total question count.
func (q *Question) PublicView(questionNumber, totalQuestions int) *View {
	return &View{
		ID:             q.ID,
		Text:           q.Text,
		Options:        q.Options,
		TimeLimit:      q.TimeLimitSec,
		Category:       q.Category,
		QuestionNumber: questionNumber,
		TotalQuestions: totalQuestions,
	}
}
