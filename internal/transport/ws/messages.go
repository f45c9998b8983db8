package ws

// Inbound payload shapes, one per event name in the dispatch table.

type createGameRequest struct {
	HostName string `json:"hostName"`
}

type teamJoinRequest struct {
	PIN      string `json:"pin"`
	TeamName string `json:"teamName"`
}

type questionPayload struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	TimeLimit     int      `json:"timeLimit,omitempty"`
	Category      string   `json:"category,omitempty"`
}

type addQuestionRequest struct {
	PIN      string          `json:"pin"`
	Question questionPayload `json:"question"`
}

type pinOnlyRequest struct {
	PIN string `json:"pin"`
}

type submitAnswerRequest struct {
	PIN    string `json:"pin"`
	TeamID string `json:"teamId"`
	Answer int    `json:"answer"`
}

// Outbound reply/broadcast shapes.

type errorReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func errReply(err error) errorReply {
	return errorReply{Success: false, Error: err.Error()}
}
