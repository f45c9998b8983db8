package model

// Team is a group of players sharing one connection — the unit of scoring.
// Session exclusively owns its Teams; a Team never points back to its
// Session, and ConnID is a lookup key, not a lifetime-extending reference.
type Team struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	ConnID  string    `json:"-"`
	Score   int       `json:"score"`
	Answers []*Answer `json:"-"`
}

// Snapshot is the leaderboard-facing projection of a Team.
type Snapshot struct {
	Name         string `json:"name"`
	Score        int    `json:"score"`
	AnswersCount int    `json:"answersCount"`
}

func (t *Team) Snapshot() Snapshot {
	return Snapshot{
		Name:         t.Name,
		Score:        t.Score,
		AnswersCount: len(t.Answers),
	}
}

// AnswerFor returns the first recorded Answer for the given question ID,
// or nil if the team has not yet answered that question.
func (t *Team) AnswerFor(questionID string) *Answer {
	for _, a := range t.Answers {
		if a.QuestionID == questionID {
			return a
		}
	}
	return nil
}
