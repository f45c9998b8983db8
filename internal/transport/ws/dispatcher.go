package ws

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"trivianight/internal/game"
	"trivianight/internal/model"
)

func gameRoom(pin string) string { return "game-" + pin }
func hostRoom(pin string) string { return "host-" + pin }

// Dispatcher demultiplexes inbound events by name, validates payload
// shape, invokes the Session it names, and emits broadcasts before
// replying to the originator — so the initiator's own observers never see
// a state change after the initiator's acknowledgement.
type Dispatcher struct {
	hub      *Hub
	registry *game.Registry
}

// NewDispatcher builds a Dispatcher bound to a Hub and Registry.
func NewDispatcher(hub *Hub, registry *game.Registry) *Dispatcher {
	return &Dispatcher{hub: hub, registry: registry}
}

// HandleMessage parses one inbound frame and routes it to its handler. A
// handler panic is recovered here, logged, and reported to the originator
// as BadRequest. Because mutation is always complete (and the session lock
// released) before any broadcast or reply is sent, a panic during mutation
// never leaves a broadcast half-sent.
func (d *Dispatcher) HandleMessage(connID string, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ws: handler panic on %s: %v", connID, r)
			d.hub.EmitTo(connID, "error", errReply(model.ErrBadRequest), "")
		}
	}()

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		d.hub.EmitTo(connID, "error", errReply(model.ErrBadRequest), "")
		return
	}

	handler, ok := handlers[env.Event]
	if !ok {
		d.hub.EmitTo(connID, "error", errReply(fmt.Errorf("unknown event %q", env.Event)), env.Ack)
		return
	}
	handler(d, connID, env)
}

// handlers maps event name to its handling function. Each handler parses
// its own payload, looks up the Session, mutates it, emits broadcasts,
// then replies.
var handlers = map[string]func(d *Dispatcher, connID string, env Envelope){
	"host:create-game":     (*Dispatcher).handleCreateGame,
	"team:join":            (*Dispatcher).handleTeamJoin,
	"host:add-question":    (*Dispatcher).handleAddQuestion,
	"host:start-game":      (*Dispatcher).handleStartGame,
	"host:next-question":   (*Dispatcher).handleNextQuestion,
	"team:submit-answer":   (*Dispatcher).handleSubmitAnswer,
	"host:reveal-answer":   (*Dispatcher).handleRevealAnswer,
	"game:get-leaderboard": (*Dispatcher).handleGetLeaderboard,
	"game:get-state":       (*Dispatcher).handleGetState,
}

func (d *Dispatcher) reply(connID string, env Envelope, payload any) {
	d.hub.EmitTo(connID, env.Event, payload, env.Ack)
}

func (d *Dispatcher) replyErr(connID string, env Envelope, err error) {
	d.hub.EmitTo(connID, env.Event, errReply(err), env.Ack)
}

func (d *Dispatcher) handleCreateGame(connID string, env Envelope) {
	var req createGameRequest
	if err := json.Unmarshal(env.Data, &req); err != nil || req.HostName == "" {
		d.replyErr(connID, env, model.ErrBadRequest)
		return
	}

	session, sessionID, err := d.registry.Create(req.HostName, connID)
	if err != nil {
		d.replyErr(connID, env, err)
		return
	}

	d.hub.Join(connID, gameRoom(session.PIN))
	d.hub.Join(connID, hostRoom(session.PIN))

	d.reply(connID, env, map[string]any{
		"success": true,
		"gameId":  sessionID,
		"pin":     session.PIN,
		"hostId":  connID,
	})
}

func (d *Dispatcher) handleTeamJoin(connID string, env Envelope) {
	var req teamJoinRequest
	if err := json.Unmarshal(env.Data, &req); err != nil || req.PIN == "" || req.TeamName == "" {
		d.replyErr(connID, env, model.ErrBadRequest)
		return
	}

	session, err := d.registry.Lookup(req.PIN)
	if err != nil {
		d.replyErr(connID, env, err)
		return
	}

	teamID := uuid.New().String()
	if err := session.AddTeam(teamID, req.TeamName, connID); err != nil {
		d.replyErr(connID, env, err)
		return
	}

	d.hub.Join(connID, gameRoom(req.PIN))
	d.hub.Broadcast(hostRoom(req.PIN), "team:joined", map[string]any{
		"teamId":   teamID,
		"teamName": req.TeamName,
	})

	d.reply(connID, env, map[string]any{
		"success":   true,
		"teamId":    teamID,
		"teamName":  req.TeamName,
		"gameState": string(session.State()),
	})
}

func (d *Dispatcher) handleAddQuestion(connID string, env Envelope) {
	var req addQuestionRequest
	if err := json.Unmarshal(env.Data, &req); err != nil || req.PIN == "" {
		d.replyErr(connID, env, model.ErrBadRequest)
		return
	}

	session, err := d.registry.Lookup(req.PIN)
	if err != nil {
		d.replyErr(connID, env, err)
		return
	}
	session.SetHostConn(connID)

	q, err := model.NewQuestion(
		uuid.New().String(),
		req.Question.Text,
		req.Question.Options,
		req.Question.CorrectAnswer,
		req.Question.TimeLimit,
		req.Question.Category,
	)
	if err != nil {
		d.replyErr(connID, env, err)
		return
	}

	total := session.AddQuestion(q)
	d.reply(connID, env, map[string]any{
		"success":        true,
		"totalQuestions": total,
	})
}

func (d *Dispatcher) handleStartGame(connID string, env Envelope) {
	var req pinOnlyRequest
	if err := json.Unmarshal(env.Data, &req); err != nil || req.PIN == "" {
		d.replyErr(connID, env, model.ErrBadRequest)
		return
	}

	session, err := d.registry.Lookup(req.PIN)
	if err != nil {
		d.replyErr(connID, env, err)
		return
	}
	session.SetHostConn(connID)

	view, err := session.StartGame()
	if err != nil {
		d.replyErr(connID, env, err)
		return
	}

	d.hub.Broadcast(gameRoom(req.PIN), "game:started", map[string]any{"question": view})
	d.reply(connID, env, map[string]any{"success": true})
}

func (d *Dispatcher) handleNextQuestion(connID string, env Envelope) {
	var req pinOnlyRequest
	if err := json.Unmarshal(env.Data, &req); err != nil || req.PIN == "" {
		d.replyErr(connID, env, model.ErrBadRequest)
		return
	}

	session, err := d.registry.Lookup(req.PIN)
	if err != nil {
		d.replyErr(connID, env, err)
		return
	}
	session.SetHostConn(connID)

	result, err := session.NextQuestion()
	if err != nil {
		d.replyErr(connID, env, err)
		return
	}

	if result.Ended {
		d.hub.Broadcast(gameRoom(req.PIN), "game:ended", map[string]any{
			"finalLeaderboard": result.Leaderboard,
			"totalQuestions":   session.QuestionCount(),
		})
		d.reply(connID, env, map[string]any{"success": true, "ended": true})
		return
	}

	d.hub.Broadcast(gameRoom(req.PIN), "question:new", map[string]any{"question": result.View})
	d.reply(connID, env, map[string]any{"success": true, "question": result.View})
}

func (d *Dispatcher) handleSubmitAnswer(connID string, env Envelope) {
	var req submitAnswerRequest
	if err := json.Unmarshal(env.Data, &req); err != nil || req.PIN == "" || req.TeamID == "" {
		d.replyErr(connID, env, model.ErrBadRequest)
		return
	}

	session, err := d.registry.Lookup(req.PIN)
	if err != nil {
		d.replyErr(connID, env, err)
		return
	}

	if _, err := session.SubmitAnswer(req.TeamID, req.Answer); err != nil {
		d.replyErr(connID, env, err)
		return
	}

	d.hub.Broadcast(hostRoom(req.PIN), "answer:submitted", map[string]any{
		"teamId":   req.TeamID,
		"answered": true,
	})
	d.reply(connID, env, map[string]any{"success": true, "submitted": true})
}

func (d *Dispatcher) handleRevealAnswer(connID string, env Envelope) {
	var req pinOnlyRequest
	if err := json.Unmarshal(env.Data, &req); err != nil || req.PIN == "" {
		d.replyErr(connID, env, model.ErrBadRequest)
		return
	}

	session, err := d.registry.Lookup(req.PIN)
	if err != nil {
		d.replyErr(connID, env, err)
		return
	}
	session.SetHostConn(connID)

	result, err := session.RevealAnswer()
	if err != nil {
		d.replyErr(connID, env, err)
		return
	}

	d.hub.Broadcast(gameRoom(req.PIN), "answer:revealed", map[string]any{
		"correctAnswer": result.CorrectAnswer,
		"leaderboard":   result.Leaderboard,
	})
	d.reply(connID, env, map[string]any{
		"success":       true,
		"correctAnswer": result.CorrectAnswer,
		"leaderboard":   result.Leaderboard,
	})
}

func (d *Dispatcher) handleGetLeaderboard(connID string, env Envelope) {
	var req pinOnlyRequest
	if err := json.Unmarshal(env.Data, &req); err != nil || req.PIN == "" {
		d.replyErr(connID, env, model.ErrBadRequest)
		return
	}

	session, err := d.registry.Lookup(req.PIN)
	if err != nil {
		d.replyErr(connID, env, err)
		return
	}

	d.reply(connID, env, map[string]any{
		"success":     true,
		"leaderboard": session.Leaderboard(),
	})
}

func (d *Dispatcher) handleGetState(connID string, env Envelope) {
	var req pinOnlyRequest
	if err := json.Unmarshal(env.Data, &req); err != nil || req.PIN == "" {
		d.replyErr(connID, env, model.ErrBadRequest)
		return
	}

	session, err := d.registry.Lookup(req.PIN)
	if err != nil {
		d.replyErr(connID, env, err)
		return
	}

	d.reply(connID, env, map[string]any{
		"success": true,
		"state":   session.Summary(),
	})
}

// HandleDisconnect implements the §5 connection lifecycle: every live
// session is scanned for a team owned by the departing connection. A team
// removed while its session is still in lobby triggers a team:left
// notice to the host; if that empties the lobby, the session is evicted
// immediately. Sessions past lobby retain their teams' scores through
// disconnects. A host connection dropping does not evict its session —
// only a lobby session emptied of all teams is evicted here.
func (d *Dispatcher) HandleDisconnect(connID string) {
	for _, session := range d.registry.Snapshot() {
		if teamID, teamName, ok := session.TeamByConn(connID); ok {
			present, emptyLobby := session.RemoveTeam(teamID)
			if !present {
				continue
			}
			if session.State() == game.StateLobby {
				d.hub.Broadcast(hostRoom(session.PIN), "team:left", map[string]any{
					"teamId":     teamID,
					"teamName":   teamName,
					"totalTeams": session.TeamCount(),
				})
			}
			if emptyLobby {
				d.registry.Remove(session.PIN)
				log.Printf("game: evicted empty lobby session pin=%s", session.PIN)
			}
			continue
		}
		if session.IsHostConn(connID) {
			log.Printf("game: host connection dropped for pin=%s, session kept alive", session.PIN)
		}
	}
}
