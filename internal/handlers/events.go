package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"wordmatch/internal/game"
	"wordmatch/internal/render"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type pointPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Events upgrades to a websocket that pushes the player's session events and
// accepts the same inputs as the JSON endpoints. With ?frames=1 the client
// also receives PNG frames as binary messages while a drag is in progress.
func (h *GameHandler) Events(w http.ResponseWriter, r *http.Request) {
	playerID := GetPlayerFromContext(r.Context())
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written an error response
		log.Warn().Err(err).Str("player", playerID).Msg("Websocket upgrade failed")
		return
	}

	c := h.hub.register(playerID, conn)
	defer h.hub.unregister(c)
	go c.writePump()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sc := &socketSession{
		handler: h,
		client:  c,
		frames:  r.URL.Query().Get("frames") == "1",
		ctx:     ctx,
	}
	c.sendMsg(OutMsg{T: "view", P: s.View()})

	log.Debug().Str("player", playerID).Int("connections", h.hub.Connections(playerID)).Msg("Websocket connected")
	sc.readPump()
	log.Debug().Str("player", playerID).Msg("Websocket closed")
}

// socketSession resolves the player's session through the game service on
// every message, so a live socket keeps the session from going idle and never
// drives one that has been evicted.
type socketSession struct {
	handler   *GameHandler
	client    *client
	frames    bool
	streaming atomic.Bool
	ctx       context.Context
}

func (sc *socketSession) readPump() {
	conn := sc.client.conn
	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("player", sc.client.playerID).Msg("Websocket read error")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var in InMsg
		if err := json.Unmarshal(data, &in); err != nil {
			sc.client.sendErr("", "bad_json", "invalid json")
			continue
		}
		sc.handle(in)
	}
}

func (sc *socketSession) handle(in InMsg) {
	switch in.T {
	case "ping":
		sc.client.sendMsg(OutMsg{T: "pong", ReqID: in.ReqID})
		return
	case "view", "restart", "click", "drag_start", "drag_move", "drop", "cancel_drag":
	default:
		sc.client.sendErr(in.ReqID, "unknown_type", "unknown message type: "+in.T)
		return
	}

	var (
		s       *game.Session
		outcome game.Outcome
		done    bool
		err     error
	)
	// one retry covers an eviction between resolving and applying the input
	for attempt := 0; attempt < 2; attempt++ {
		s, err = sc.handler.games.Session(sc.client.playerID)
		if err != nil {
			break
		}
		outcome, done, err = sc.apply(s, in)
		if !errors.Is(err, game.ErrSessionClosed) {
			break
		}
	}
	if done {
		return
	}
	sc.reply(s, in, outcome, err)
}

// apply runs one input against s. done means the reply has already been sent.
func (sc *socketSession) apply(s *game.Session, in InMsg) (outcome game.Outcome, done bool, err error) {
	switch in.T {
	case "view":
		sc.client.sendMsg(OutMsg{T: "view", ReqID: in.ReqID, P: s.View()})
		return outcome, true, nil
	case "restart":
		if s.Closed() {
			return outcome, false, game.ErrSessionClosed
		}
		s.Restart()
		sc.client.sendMsg(OutMsg{T: "view", ReqID: in.ReqID, P: s.View()})
		return outcome, true, nil
	case "click":
		var p cardRequest
		if err = json.Unmarshal(in.P, &p); err == nil {
			outcome, err = s.Click(p.Card)
		}
	case "drag_start":
		var p cardRequest
		if err = json.Unmarshal(in.P, &p); err == nil {
			if p.Source == "" {
				p.Source = game.InputMouse
			}
			outcome, err = s.DragStart(p.Card, p.Source)
			if err == nil && outcome == game.OutcomeDragging {
				sc.streamFrames(s)
			}
		}
	case "drag_move":
		var p pointPayload
		if err = json.Unmarshal(in.P, &p); err == nil {
			// moves are frequent; the frame stream or the next view reflects them
			s.DragMove(game.Point{X: p.X, Y: p.Y})
			return outcome, true, nil
		}
	case "drop":
		var p dropRequest
		if err = json.Unmarshal(in.P, &p); err == nil {
			outcome = drop(s, p)
		}
	case "cancel_drag":
		outcome = s.CancelDrag()
	}
	return outcome, false, err
}

func (sc *socketSession) reply(s *game.Session, in InMsg, outcome game.Outcome, err error) {
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			sc.client.sendErr(in.ReqID, "bad_payload", "invalid payload")
			return
		}
		status, msg := errorStatus(err)
		code := "rejected"
		if status == http.StatusInternalServerError {
			code = "internal"
		}
		sc.client.sendErr(in.ReqID, code, msg)
		return
	}
	sc.client.sendMsg(OutMsg{T: "outcome", ReqID: in.ReqID, P: inputResponse{Outcome: outcome, View: s.View()}})
}

// streamFrames pushes PNG frames until the drag ends or the socket closes
func (sc *socketSession) streamFrames(s *game.Session) {
	if !sc.frames || !sc.streaming.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer sc.streaming.Store(false)
		var buf bytes.Buffer
		err := render.Loop(sc.ctx, frameInterval, s.Dragging, func() {
			buf.Reset()
			if err := sc.handler.renderer.WritePNG(&buf, s.View()); err != nil {
				log.Warn().Err(err).Msg("Failed to render drag frame")
				return
			}
			sc.client.enqueue(websocket.BinaryMessage, append([]byte(nil), buf.Bytes()...))
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("Frame stream stopped")
		}
	}()
}
