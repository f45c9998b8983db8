// Package game implements the server-side trivia engine: the per-session
// state machine, membership, and scoring described by the session registry
// and session component design. Each Session serializes its own mutable
// state behind a single mutex; the Registry guards PIN allocation and
// lookup behind its own. No lock here is ever held across a call into the
// transport/broadcast layer — callers acquire the lock, mutate, copy out
// whatever they need to broadcast, release, then send.
package game

import (
	"sort"
	"sync"
	"time"

	"trivianight/internal/model"
)

// State is one of the four legal session states.
type State string

const (
	StateLobby        State = "lobby"
	StateQuestion     State = "question"
	StateAnswerReveal State = "answer-reveal"
	StateEnded        State = "ended"
)

// Session is one trivia game: its host, teams, questions, cursor, and
// state. cursor == -1 iff state == lobby; state transitions only follow
// the diagram in the session component design.
type Session struct {
	mu sync.Mutex

	ID         string
	PIN        string
	HostName   string
	HostConnID string

	questions []*model.Question
	cursor    int
	state     State
	teams     map[string]*model.Team
	teamOrder []string // join order, for stable leaderboard tie-breaking

	activatedAt time.Time
}

// NewSession constructs a Session in the initial lobby state.
func NewSession(id, pin, hostName, hostConnID string) *Session {
	return &Session{
		ID:         id,
		PIN:        pin,
		HostName:   hostName,
		HostConnID: hostConnID,
		cursor:     -1,
		state:      StateLobby,
		teams:      make(map[string]*model.Team),
	}
}

// State returns the session's current state under lock.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TeamCount returns the number of live teams under lock.
func (s *Session) TeamCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.teams)
}

// QuestionCount returns the number of questions added so far.
func (s *Session) QuestionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions)
}

// AddTeam admits a new team. Allowed only in lobby.
func (s *Session) AddTeam(teamID, name, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLobby {
		return model.ErrGameAlreadyStarted
	}
	s.teams[teamID] = &model.Team{ID: teamID, Name: name, ConnID: connID}
	s.teamOrder = append(s.teamOrder, teamID)
	return nil
}

// RemoveTeam is idempotent: removing an absent team is a no-op. Returns
// whether the session is now an empty lobby, so the caller can decide
// whether to evict it from the registry.
func (s *Session) RemoveTeam(teamID string) (wasPresent bool, emptyLobby bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[teamID]; !ok {
		return false, false
	}
	delete(s.teams, teamID)
	return true, s.state == StateLobby && len(s.teams) == 0
}

// SetHostConn updates the session's host connection id, accepting
// reconnects from a new connection. The server does not authenticate that
// a host:* event actually originates from the original host connection.
func (s *Session) SetHostConn(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.HostConnID = connID
}

// IsHostConn reports whether connID is the session's current host
// connection.
func (s *Session) IsHostConn(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.HostConnID == connID
}

// TeamByConn finds the team currently owned by a connection, if any.
func (s *Session) TeamByConn(connID string) (teamID, teamName string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.teams {
		if t.ConnID == connID {
			return id, t.Name, true
		}
	}
	return "", "", false
}

// AddQuestion appends a question. Permitted in any state; has no effect on
// an in-flight question. Practical hosts call this only during lobby.
func (s *Session) AddQuestion(q *model.Question) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions = append(s.questions, q)
	return len(s.questions)
}

// StartGame transitions lobby -> question. Requires a non-empty question
// list; returns the public view of question 0.
func (s *Session) StartGame() (*model.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLobby {
		return nil, model.ErrWrongState
	}
	if len(s.questions) == 0 {
		return nil, model.ErrNoQuestions
	}

	s.cursor = 0
	s.state = StateQuestion
	s.activatedAt = time.Now()
	return s.questions[0].PublicView(1, len(s.questions)), nil
}

// NextQuestionResult is the outcome of NextQuestion: either a fresh
// question view or the game's end with its final leaderboard.
type NextQuestionResult struct {
	Ended       bool
	View        *model.View
	Leaderboard []model.Snapshot
}

// NextQuestion advances the cursor. If the cursor runs past the last
// question, the session ends and the final leaderboard is returned.
// Calling this from state == question is permitted — it skips reveal.
func (s *Session) NextQuestion() (*NextQuestionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateQuestion && s.state != StateAnswerReveal {
		return nil, model.ErrWrongState
	}

	s.cursor++
	if s.cursor >= len(s.questions) {
		return &NextQuestionResult{Ended: true, Leaderboard: s.endGameLocked()}, nil
	}

	s.state = StateQuestion
	s.activatedAt = time.Now()
	return &NextQuestionResult{View: s.questions[s.cursor].PublicView(s.cursor+1, len(s.questions))}, nil
}

// SubmitResult is the outcome of a single answer submission.
type SubmitResult struct {
	Correct bool
	Points  int
}

// SubmitAnswer records a team's answer to the active question. First
// submission wins: a repeat call for the same (team, question) returns the
// prior result without mutating score.
func (s *Session) SubmitAnswer(teamID string, optionIndex int) (*SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateQuestion {
		return nil, model.ErrGameNotAcceptingAnswers
	}
	team, ok := s.teams[teamID]
	if !ok {
		return nil, model.ErrUnknownTeam
	}
	if s.cursor < 0 || s.cursor >= len(s.questions) {
		return nil, model.ErrUnknownQuestion
	}
	q := s.questions[s.cursor]

	if prior := team.AnswerFor(q.ID); prior != nil {
		return &SubmitResult{Correct: prior.Correct, Points: prior.Points}, nil
	}

	elapsed := time.Since(s.activatedAt).Milliseconds()
	correct := optionIndex == q.CorrectAnswer
	points := scorePoints(correct, elapsed, q.TimeLimitSec)

	team.Answers = append(team.Answers, &model.Answer{
		QuestionID:  q.ID,
		OptionIndex: optionIndex,
		Correct:     correct,
		Points:      points,
		ElapsedMS:   elapsed,
	})
	team.Score += points

	return &SubmitResult{Correct: correct, Points: points}, nil
}

// RevealResult is the outcome of RevealAnswer.
type RevealResult struct {
	CorrectAnswer int
	Leaderboard   []model.Snapshot
}

// RevealAnswer transitions question -> answer-reveal. Re-entry while
// already in answer-reveal is idempotent and returns the same values.
func (s *Session) RevealAnswer() (*RevealResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateQuestion && s.state != StateAnswerReveal {
		return nil, model.ErrWrongState
	}
	if s.cursor < 0 || s.cursor >= len(s.questions) {
		return nil, model.ErrWrongState
	}

	s.state = StateAnswerReveal
	return &RevealResult{
		CorrectAnswer: s.questions[s.cursor].CorrectAnswer,
		Leaderboard:   s.leaderboardLocked(),
	}, nil
}

// Leaderboard is a snapshot of team scores, sorted by score descending.
// Ties preserve insertion/iteration order via a stable sort over a
// deterministic team ordering.
func (s *Session) Leaderboard() []model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaderboardLocked()
}

func (s *Session) leaderboardLocked() []model.Snapshot {
	teams := make([]*model.Team, 0, len(s.teams))
	for _, id := range s.teamOrder {
		if t, ok := s.teams[id]; ok {
			teams = append(teams, t)
		}
	}
	sort.SliceStable(teams, func(i, j int) bool {
		return teams[i].Score > teams[j].Score
	})
	out := make([]model.Snapshot, len(teams))
	for i, t := range teams {
		out[i] = t.Snapshot()
	}
	return out
}

// Summary is a point-in-time introspection snapshot, used by both the REST
// introspection endpoint and the game:get-state event.
type Summary struct {
	PIN            string `json:"pin"`
	State          State  `json:"state"`
	Teams          int    `json:"teams"`
	Questions      int    `json:"questions"`
	QuestionNumber int    `json:"questionNumber,omitempty"`
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{
		PIN:       s.PIN,
		State:     s.state,
		Teams:     len(s.teams),
		Questions: len(s.questions),
	}
	if s.cursor >= 0 {
		sum.QuestionNumber = s.cursor + 1
	}
	return sum
}

// EndGame transitions to ended and returns the final leaderboard. Called
// implicitly when NextQuestion runs past the last question, but may also
// be invoked directly.
func (s *Session) EndGame() []model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endGameLocked()
}

func (s *Session) endGameLocked() []model.Snapshot {
	s.state = StateEnded
	return s.leaderboardLocked()
}
