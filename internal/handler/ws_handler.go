package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal/internal/middleware"
	"github.com/stemsi/exam-portal/internal/response"
	"github.com/stemsi/exam-portal/internal/service"
	"github.com/stemsi/exam-portal/internal/session"
	"github.com/stemsi/exam-portal/internal/validator"
	ws "github.com/stemsi/exam-portal/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler hosts one session controller per exam stream connection.
type WSHandler struct {
	stores    service.StoreFactory
	questions session.QuestionSource
	submitter session.Submitter
	registry  *session.Registry
	cfg       session.Config
	log       zerolog.Logger
	upgrader  websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	stores service.StoreFactory,
	questions session.QuestionSource,
	submitter session.Submitter,
	registry *session.Registry,
	cfg session.Config,
	log zerolog.Logger,
	allowedOrigins []string,
) *WSHandler {
	return &WSHandler{
		stores:    stores,
		questions: questions,
		submitter: submitter,
		registry:  registry,
		cfg:       cfg,
		log:       log.With().Str("component", "ws_handler").Logger(),
		upgrader:  buildUpgrader(allowedOrigins),
	}
}

// ExamStream godoc
// WS /ws/v1/candidate/exam/stream?token=
// Upgrades to WebSocket and runs the candidate's attempt over it.
func (h *WSHandler) ExamStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil || claims.SessionID == "" {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	client := ws.NewClient(conn)

	sessionID := claims.SessionID
	wsLog := h.log.With().Str("session_id", sessionID).Logger()

	ctrl := session.New(h.stores(sessionID), h.questions, h.submitter, h.cfg, wsLog)
	if err := h.registry.Attach(sessionID, ctrl); err != nil {
		ctrl.Close()
		client.WriteError(response.ErrSessionAttached, nil)
		client.Close(websocket.ClosePolicyViolation, "session attached elsewhere")
		return
	}
	defer h.registry.Detach(sessionID, ctrl)
	defer ctrl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl.OnEvent(func(ev session.Event) { h.forward(client, ev) })

	if err := ctrl.Mount(ctx); err != nil {
		client.WriteError(errorCode(err), nil)
		client.Close(websocket.CloseNormalClosure, "identity required")
		return
	}
	if err := ctrl.Load(ctx); err != nil {
		client.WriteError(errorCode(err), nil)
	}
	client.WriteTyped(ws.StateResponse{Event: ws.EventState, State: ctrl.Snapshot()})

	wsLog.Info().Msg("Candidate connected")

	for {
		data, err := client.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		if done := h.dispatch(ctx, client, ctrl, data, wsLog); done {
			client.Close(websocket.CloseNormalClosure, "")
			wsLog.Info().Msg("Candidate left")
			return
		}
	}
}

// dispatch runs one client action. It reports true once the controller has
// closed and the connection should end.
func (h *WSHandler) dispatch(ctx context.Context, client *ws.Client, ctrl *session.Controller, data []byte, wsLog zerolog.Logger) bool {
	var env ws.RequestEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		client.WriteError(response.ErrInvalidPayload, nil)
		return false
	}

	var err error
	switch env.Action {
	case ws.ActionPing:
		client.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		return false

	case ws.ActionRetry:
		err = ctrl.Load(ctx)

	case ws.ActionResume:
		err = ctrl.Resume(ctx)

	case ws.ActionDiscard:
		err = ctrl.Discard(ctx)

	case ws.ActionAnswer:
		var req ws.AnswerRequest
		if !decode(client, data, &req) {
			return false
		}
		err = ctrl.SetAnswer(ctx, req.QuestionID, req.Value)

	case ws.ActionFlag:
		var req ws.FlagRequest
		if !decode(client, data, &req) {
			return false
		}
		err = ctrl.ToggleFlag(ctx, req.QuestionID)

	case ws.ActionMove:
		var req ws.MoveRequest
		if !decode(client, data, &req) {
			return false
		}
		err = ctrl.Move(ctx, req.Section, req.Fragment, session.Location{QuestionID: req.Target})

	case ws.ActionSubmit:
		if _, err = ctrl.Submit(ctx); err == nil {
			client.WriteTyped(ws.GradedResponse{Event: ws.EventGraded, ResultID: ctrl.Snapshot().ResultID})
		}

	case ws.ActionLeave, ws.ActionReload:
		var req ws.ConfirmRequest
		if !decode(client, data, &req) {
			return false
		}
		if env.Action == ws.ActionLeave {
			err = ctrl.Leave(ctx, req.Confirm)
		} else {
			err = ctrl.Reload(ctx, req.Confirm)
		}
		if err == nil {
			return true
		}

	case ws.ActionDismiss:
		if err = ctrl.Dismiss(ctx); err == nil {
			return true
		}

	default:
		wsLog.Warn().Str("action", string(env.Action)).Msg("Unknown action")
		client.WriteError(response.ErrInvalidAction, map[string]string{"action": string(env.Action)})
		return false
	}

	var incomplete *session.IncompleteError
	switch {
	case errors.As(err, &incomplete):
		client.WriteTyped(ws.IncompleteResponse{Event: ws.EventIncomplete, Code: response.ErrExamIncomplete, Missing: incomplete.Missing})
	case err != nil:
		wsLog.Debug().Err(err).Str("action", string(env.Action)).Msg("Action rejected")
		client.WriteError(errorCode(err), nil)
	}

	if errors.Is(err, session.ErrClosed) {
		return true
	}
	client.WriteTyped(ws.StateResponse{Event: ws.EventState, State: ctrl.Snapshot()})
	return false
}

// forward relays timer-driven controller events to the client.
func (h *WSHandler) forward(client *ws.Client, ev session.Event) {
	switch ev.Kind {
	case session.EventTick:
		client.WriteTyped(ws.TickResponse{Event: ws.EventTick, RemainingSeconds: ev.Snapshot.RemainingSeconds})
		return
	case session.EventExpired:
		client.WriteTyped(ws.ExpiredResponse{Event: ws.EventExpired})
	case session.EventSubmitted:
		client.WriteTyped(ws.GradedResponse{Event: ws.EventGraded, ResultID: ev.Snapshot.ResultID, Auto: true})
	case session.EventSubmitFailed:
		client.WriteError(errorCode(ev.Err), nil)
	}
	client.WriteTyped(ws.StateResponse{Event: ws.EventState, State: ev.Snapshot})
}

func decode(client *ws.Client, data []byte, dst interface{}) bool {
	if err := json.Unmarshal(data, dst); err != nil {
		client.WriteError(response.ErrInvalidPayload, nil)
		return false
	}
	if fields := validator.Struct(dst); fields != nil {
		client.WriteError(response.ErrValidation, fields)
		return false
	}
	return true
}

// errorCode maps controller and service errors onto API error codes.
func errorCode(err error) response.ErrCode {
	switch {
	case errors.Is(err, session.ErrNoIdentity):
		return response.ErrNoIdentity
	case errors.Is(err, session.ErrDataFetch), errors.Is(err, service.ErrDataUnavailable):
		return response.ErrDataUnavailable
	case errors.Is(err, service.ErrPersistence):
		return response.ErrPersistenceFailed
	case errors.Is(err, session.ErrConfirmationRequired):
		return response.ErrConfirmationRequired
	case errors.Is(err, session.ErrExpired):
		return response.ErrExamExpired
	case errors.Is(err, session.ErrSlotFull):
		return response.ErrSlotFull
	case errors.Is(err, session.ErrAttached):
		return response.ErrSessionAttached
	case errors.Is(err, session.ErrUnknownQuestion),
		errors.Is(err, session.ErrUnknownFragment),
		errors.Is(err, session.ErrInvalidTarget),
		errors.Is(err, session.ErrInvalidAnswer):
		return response.ErrValidation
	case errors.Is(err, session.ErrInvalidState), errors.Is(err, session.ErrClosed):
		return response.ErrInvalidAction
	default:
		return response.ErrInternal
	}
}
