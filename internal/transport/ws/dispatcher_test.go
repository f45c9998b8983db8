package ws

import (
	"encoding/json"
	"testing"

	"trivianight/internal/game"
)

func newTestDispatcher() (*Dispatcher, *Hub) {
	hub := NewHub()
	registry := game.NewRegistry()
	return NewDispatcher(hub, registry), hub
}

func send(d *Dispatcher, connID, event string, data any, ack string) {
	raw, _ := json.Marshal(data)
	env := Envelope{Event: event, Data: raw, Ack: ack}
	msg, _ := json.Marshal(env)
	d.HandleMessage(connID, msg)
}

func TestDispatcherHappyPath(t *testing.T) {
	d, hub := newTestDispatcher()

	host := newTestConnection("host-conn")
	teamA := newTestConnection("team-a-conn")
	teamB := newTestConnection("team-b-conn")
	hub.Register(host)
	hub.Register(teamA)
	hub.Register(teamB)

	send(d, "host-conn", "host:create-game", map[string]any{"hostName": "Alex"}, "ack-1")
	createReply := recvEnvelope(t, host)
	var created struct {
		Success bool   `json:"success"`
		Pin     string `json:"pin"`
	}
	if err := json.Unmarshal(createReply.Data, &created); err != nil {
		t.Fatalf("unmarshal create reply: %v", err)
	}
	if !created.Success || created.Pin == "" {
		t.Fatalf("host:create-game reply = %+v", created)
	}
	pin := created.Pin

	send(d, "team-a-conn", "team:join", map[string]any{"pin": pin, "teamName": "Pandas"}, "")
	joinAReply := recvEnvelope(t, teamA)
	var joinedA struct {
		Success bool   `json:"success"`
		TeamID  string `json:"teamId"`
	}
	json.Unmarshal(joinAReply.Data, &joinedA)
	if !joinedA.Success || joinedA.TeamID == "" {
		t.Fatalf("team A join reply = %+v", joinedA)
	}
	recvEnvelope(t, host) // team:joined notice

	send(d, "team-b-conn", "team:join", map[string]any{"pin": pin, "teamName": "Wolves"}, "")
	joinBReply := recvEnvelope(t, teamB)
	var joinedB struct {
		Success bool   `json:"success"`
		TeamID  string `json:"teamId"`
	}
	json.Unmarshal(joinBReply.Data, &joinedB)
	recvEnvelope(t, host) // team:joined notice

	send(d, "host-conn", "host:add-question", map[string]any{
		"pin": pin,
		"question": map[string]any{
			"text":          "2+2?",
			"options":       []string{"3", "4", "5", "6"},
			"correctAnswer": 1,
			"timeLimit":     30,
		},
	}, "")
	recvEnvelope(t, host) // add-question reply

	// The host joined game-<pin> at create time, so every game-room
	// broadcast the host's own commands trigger arrives on the host's
	// queue ahead of the command's own reply (broadcast is sent first).
	send(d, "host-conn", "host:start-game", map[string]any{"pin": pin}, "")
	startedHost := recvEnvelope(t, host)
	startGameReply := recvEnvelope(t, host)
	startedA := recvEnvelope(t, teamA)
	startedB := recvEnvelope(t, teamB)
	if startedHost.Event != "game:started" || startedA.Event != "game:started" || startedB.Event != "game:started" {
		t.Fatalf("expected game:started broadcast, got host=%s teamA=%s teamB=%s", startedHost.Event, startedA.Event, startedB.Event)
	}
	var startReply struct{ Success bool `json:"success"` }
	json.Unmarshal(startGameReply.Data, &startReply)
	if !startReply.Success {
		t.Fatalf("host:start-game reply = %+v", startReply)
	}

	send(d, "team-a-conn", "team:submit-answer", map[string]any{
		"pin": pin, "teamId": joinedA.TeamID, "answer": 1,
	}, "")
	recvEnvelope(t, teamA) // submit reply
	recvEnvelope(t, host)  // answer:submitted notice

	send(d, "team-b-conn", "team:submit-answer", map[string]any{
		"pin": pin, "teamId": joinedB.TeamID, "answer": 2,
	}, "")
	recvEnvelope(t, teamB)
	recvEnvelope(t, host)

	send(d, "host-conn", "host:reveal-answer", map[string]any{"pin": pin}, "")
	revealHostBroadcast := recvEnvelope(t, host)
	revealReply := recvEnvelope(t, host)
	revealA := recvEnvelope(t, teamA)
	revealB := recvEnvelope(t, teamB)
	if revealHostBroadcast.Event != "answer:revealed" || revealA.Event != "answer:revealed" || revealB.Event != "answer:revealed" {
		t.Fatalf("expected answer:revealed broadcast, got host=%s teamA=%s teamB=%s", revealHostBroadcast.Event, revealA.Event, revealB.Event)
	}
	var revealed struct {
		Success       bool `json:"success"`
		CorrectAnswer int  `json:"correctAnswer"`
	}
	json.Unmarshal(revealReply.Data, &revealed)
	if revealed.CorrectAnswer != 1 {
		t.Errorf("revealed correctAnswer = %d, want 1", revealed.CorrectAnswer)
	}

	send(d, "host-conn", "host:next-question", map[string]any{"pin": pin}, "")
	endedHostBroadcast := recvEnvelope(t, host)
	nextReply := recvEnvelope(t, host)
	endedA := recvEnvelope(t, teamA)
	endedB := recvEnvelope(t, teamB)
	if endedHostBroadcast.Event != "game:ended" || endedA.Event != "game:ended" || endedB.Event != "game:ended" {
		t.Fatalf("expected game:ended broadcast, got host=%s teamA=%s teamB=%s", endedHostBroadcast.Event, endedA.Event, endedB.Event)
	}
	var nextResult struct {
		Success bool `json:"success"`
		Ended   bool `json:"ended"`
	}
	json.Unmarshal(nextReply.Data, &nextResult)
	if !nextResult.Ended {
		t.Errorf("host:next-question reply = %+v, want ended:true", nextResult)
	}
}

func TestDispatcherJoinUnknownPIN(t *testing.T) {
	d, hub := newTestDispatcher()
	team := newTestConnection("team-conn")
	hub.Register(team)

	send(d, "team-conn", "team:join", map[string]any{"pin": "0000", "teamName": "Pandas"}, "")

	env := recvEnvelope(t, team)
	var reply struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	json.Unmarshal(env.Data, &reply)
	if reply.Success || reply.Error != "Game not found" {
		t.Errorf("join with unknown PIN = %+v, want Game not found error", reply)
	}
}

func TestDispatcherJoinAfterStartFails(t *testing.T) {
	d, hub := newTestDispatcher()
	host := newTestConnection("host-conn")
	lateTeam := newTestConnection("late-conn")
	hub.Register(host)
	hub.Register(lateTeam)

	send(d, "host-conn", "host:create-game", map[string]any{"hostName": "Alex"}, "")
	createReply := recvEnvelope(t, host)
	var created struct{ Pin string `json:"pin"` }
	json.Unmarshal(createReply.Data, &created)

	send(d, "host-conn", "host:add-question", map[string]any{
		"pin": created.Pin,
		"question": map[string]any{"text": "2+2?", "options": []string{"3", "4"}, "correctAnswer": 1},
	}, "")
	recvEnvelope(t, host)

	send(d, "host-conn", "host:start-game", map[string]any{"pin": created.Pin}, "")
	recvEnvelope(t, host)

	send(d, "late-conn", "team:join", map[string]any{"pin": created.Pin, "teamName": "Latecomers"}, "")
	env := recvEnvelope(t, lateTeam)
	var reply struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	json.Unmarshal(env.Data, &reply)
	if reply.Success || reply.Error != "Game already started" {
		t.Errorf("late join = %+v, want Game already started error", reply)
	}
}

func TestDispatcherDisconnectEmptiesLobby(t *testing.T) {
	d, hub := newTestDispatcher()
	host := newTestConnection("host-conn")
	team := newTestConnection("team-conn")
	hub.Register(host)
	hub.Register(team)

	send(d, "host-conn", "host:create-game", map[string]any{"hostName": "Alex"}, "")
	createReply := recvEnvelope(t, host)
	var created struct{ Pin string `json:"pin"` }
	json.Unmarshal(createReply.Data, &created)

	send(d, "team-conn", "team:join", map[string]any{"pin": created.Pin, "teamName": "Pandas"}, "")
	recvEnvelope(t, team)
	recvEnvelope(t, host) // team:joined

	d.HandleDisconnect("team-conn")

	left := recvEnvelope(t, host)
	if left.Event != "team:left" {
		t.Fatalf("expected team:left, got %s", left.Event)
	}
	var leftPayload struct {
		TotalTeams int `json:"totalTeams"`
	}
	json.Unmarshal(left.Data, &leftPayload)
	if leftPayload.TotalTeams != 0 {
		t.Errorf("totalTeams after disconnect = %d, want 0", leftPayload.TotalTeams)
	}

	if _, err := d.registry.Lookup(created.Pin); err == nil {
		t.Errorf("expected session to be evicted after the lobby emptied")
	}
}
