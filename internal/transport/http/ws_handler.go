package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"trivia-session-service/internal/catalog"
	"trivia-session-service/internal/domain"
	"trivia-session-service/internal/game"
)

// WSHandler upgrades connections and dispatches the room command set. One
// goroutine per connection reads commands; all outbound traffic goes
// through the hub.
type WSHandler struct {
	hub      *Hub
	registry *game.Registry
	ledger   *game.Ledger
	engine   *game.Engine
	catalog  catalog.Catalog
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *Hub, registry *game.Registry, ledger *game.Ledger, engine *game.Engine, cat catalog.Catalog) *WSHandler {
	return &WSHandler{
		hub:      hub,
		registry: registry,
		ledger:   ledger,
		engine:   engine,
		catalog:  cat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type createRoomPayload struct {
	HostID        string `json:"hostId"`
	QuestionSetID string `json:"questionSetId"`
}

type roomCreatedPayload struct {
	RoomID string `json:"roomId"`
	Code   string `json:"code"`
}

type joinRoomPayload struct {
	RoomID      string `json:"roomId"`
	Code        string `json:"code"`
	DisplayName string `json:"displayName"`
	UserID      string `json:"userId"`
}

type chooseSetPayload struct {
	RoomID  string `json:"roomId"`
	SetID   string `json:"setId"`
	SetName string `json:"setName"`
}

type startGamePayload struct {
	RoomID string `json:"roomId"`
}

type submitAnswerPayload struct {
	RoomID          string  `json:"roomId"`
	QuestionID      string  `json:"questionId"`
	AnswerIndex     any     `json:"answerIndex"`
	TimeUsedSeconds float64 `json:"timeUsedSeconds"`
}

type gameStartedPayload struct {
	RoomID string `json:"roomId"`
	Total  int    `json:"total"`
}

type questionSetsPayload struct {
	Sets []domain.QuestionSet `json:"sets"`
}

type rosterPayload struct {
	RoomID  string                `json:"roomId"`
	Players []domain.PublicPlayer `json:"players"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the command loop until the
// connection drops.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connID := h.hub.Register(conn)
	defer h.disconnect(connID)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		h.dispatch(r.Context(), connID, inbound)
	}
}

func (h *WSHandler) dispatch(ctx context.Context, connID string, inbound inboundMessage) {
	switch inbound.Type {
	case "create_room":
		h.handleCreateRoom(connID, inbound.Payload)
	case "join_room":
		h.handleJoinRoom(connID, inbound.Payload)
	case "leave_room":
		h.handleLeaveRoom(connID)
	case "choose_set":
		h.handleChooseSet(ctx, connID, inbound.Payload)
	case "start_game":
		h.handleStartGame(ctx, connID, inbound.Payload)
	case "submit_answer":
		h.handleSubmitAnswer(ctx, connID, inbound.Payload)
	case "get_question_sets":
		h.handleGetQuestionSets(ctx, connID)
	default:
		h.sendError(connID, "unsupported message type: "+inbound.Type)
	}
}

func (h *WSHandler) handleCreateRoom(connID string, raw json.RawMessage) {
	var payload createRoomPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			h.sendError(connID, "invalid create_room payload")
			return
		}
	}
	room, err := h.registry.Create(payload.HostID, payload.QuestionSetID)
	if err != nil {
		h.sendError(connID, err.Error())
		return
	}
	h.hub.Send(connID, "room_created", roomCreatedPayload{RoomID: room.ID, Code: room.Code})
}

func (h *WSHandler) handleJoinRoom(connID string, raw json.RawMessage) {
	var payload joinRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.sendError(connID, "invalid join_room payload")
		return
	}
	if payload.DisplayName == "" {
		h.sendError(connID, "displayName required")
		return
	}

	room, ok := h.resolveRoom(payload.RoomID, payload.Code)
	if !ok {
		h.sendError(connID, "room not found")
		return
	}

	// A connection sits in at most one room; joining another moves it.
	if prev, had := h.ledger.Get(connID); had && prev.RoomID != room.ID {
		h.detachFromRoom(connID, prev.RoomID)
	}

	h.ledger.Add(connID, payload.DisplayName, room.ID, payload.UserID)
	h.hub.JoinRoom(connID, room.ID)
	h.broadcastRoster(room.ID)
	log.Printf("room %s: %s joined", room.ID, payload.DisplayName)
}

func (h *WSHandler) handleLeaveRoom(connID string) {
	player, ok := h.ledger.Get(connID)
	if !ok {
		h.sendError(connID, domain.ErrPlayerNotFound.Error())
		return
	}
	h.detachFromRoom(connID, player.RoomID)
	h.hub.LeaveRoom(connID)
}

func (h *WSHandler) handleChooseSet(ctx context.Context, connID string, raw json.RawMessage) {
	var payload chooseSetPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.sendError(connID, "invalid choose_set payload")
		return
	}
	if payload.RoomID == "" {
		h.sendError(connID, "roomId required")
		return
	}
	h.startCycle(ctx, connID, payload.RoomID, payload.SetID, payload.SetName)
}

func (h *WSHandler) handleStartGame(ctx context.Context, connID string, raw json.RawMessage) {
	var payload startGamePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.sendError(connID, "invalid start_game payload")
		return
	}
	if payload.RoomID == "" {
		h.sendError(connID, "roomId required")
		return
	}
	h.startCycle(ctx, connID, payload.RoomID, "", "")
}

func (h *WSHandler) startCycle(ctx context.Context, connID, roomID, setID, setName string) {
	total, err := h.engine.Start(ctx, roomID, setID, setName)
	if err != nil {
		h.sendError(connID, err.Error())
		return
	}
	h.hub.Send(connID, "game_started", gameStartedPayload{RoomID: roomID, Total: total})
}

func (h *WSHandler) handleSubmitAnswer(ctx context.Context, connID string, raw json.RawMessage) {
	var payload submitAnswerPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.sendError(connID, "invalid submit_answer payload")
		return
	}
	result, err := h.engine.SubmitAnswer(ctx, payload.RoomID, connID, payload.QuestionID, payload.AnswerIndex, payload.TimeUsedSeconds)
	if err != nil {
		h.sendError(connID, err.Error())
		return
	}
	h.hub.Send(connID, "answerResult", result)
}

func (h *WSHandler) handleGetQuestionSets(ctx context.Context, connID string) {
	sets, err := h.catalog.ListSets(ctx)
	if err != nil {
		h.sendError(connID, domain.ErrCatalogUnavailable.Error())
		return
	}
	h.hub.Send(connID, "question_sets", questionSetsPayload{Sets: sets})
}

// resolveRoom looks a room up by id first, then by join code.
func (h *WSHandler) resolveRoom(roomID, code string) (domain.Room, bool) {
	if roomID != "" {
		if room, ok := h.registry.ByID(roomID); ok {
			return room, true
		}
	}
	if code != "" {
		if room, ok := h.registry.ByCode(code); ok {
			return room, true
		}
	}
	return domain.Room{}, false
}

// detachFromRoom removes a player from the ledger, refreshes the roster for
// the remaining players, and tears the room down once it empties.
func (h *WSHandler) detachFromRoom(connID, roomID string) {
	if !h.ledger.Remove(connID) {
		return
	}
	if h.ledger.RoomPlayerCount(roomID) == 0 {
		h.engine.DestroyRoom(roomID)
		log.Printf("room %s: empty, destroyed", roomID)
		return
	}
	h.broadcastRoster(roomID)
}

func (h *WSHandler) disconnect(connID string) {
	if player, ok := h.ledger.Get(connID); ok {
		h.detachFromRoom(connID, player.RoomID)
	}
	h.hub.Unregister(connID)
}

func (h *WSHandler) broadcastRoster(roomID string) {
	players := h.ledger.PlayersInRoom(roomID)
	roster := make([]domain.PublicPlayer, len(players))
	for i, p := range players {
		roster[i] = domain.PublicPlayer{ID: p.ConnectionID, Name: p.DisplayName, Score: p.Score}
	}
	h.hub.BroadcastToRoom(roomID, "players_updated", rosterPayload{RoomID: roomID, Players: roster})
}

func (h *WSHandler) sendError(connID, message string) {
	h.hub.Send(connID, "error", errorPayload{Message: message})
}
