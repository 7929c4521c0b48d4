package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"loadboard/internal/loadform"
	"loadboard/internal/model"
	"loadboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// FormHandler runs the interactive load form over a websocket. Each
// connection owns one form; closing the socket discards it.
type FormHandler struct {
	loads    service.LoadService
	debounce time.Duration
	log      zerolog.Logger
}

func NewFormHandler(loads service.LoadService, debounce time.Duration, log zerolog.Logger) *FormHandler {
	return &FormHandler{loads: loads, debounce: debounce, log: log}
}

type formState struct {
	LoadID   string          `json:"loadId,omitempty"`
	Draft    model.LoadDraft `json:"draft"`
	Viewport model.Viewport  `json:"viewport"`
}

type fieldUpdate struct {
	Field loadform.Field `json:"field"`
	Value string         `json:"value"`
}

type submitted struct {
	LoadID  string `json:"loadId"`
	Message string `json:"message"`
}

// Serve handles GET /admin/loads/form?id=. Inbound messages:
// "update_field" {field, value} and "submit". Outbound: "form_state" once,
// then every form event under its own type, "submitted" on success (after
// which the socket closes) and "error".
func (h *FormHandler) Serve(c *gin.Context) {
	loadID := c.Query("id")

	// Events can only fire after the socket is up, but the form has to be
	// opened first so a missing load is still a plain 404.
	var current atomic.Pointer[wsClient]
	form, err := h.loads.OpenForm(c.Request.Context(), loadID, loadform.Options{
		Debounce: h.debounce,
		Listener: func(ev loadform.Event) {
			if client := current.Load(); client != nil {
				client.Send(string(ev.Type), ev)
			}
		},
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer form.Close()

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("load form upgrade failed")
		return
	}
	log := h.log.With().Str("load_id", loadID).Logger()
	client := newWSClient(conn, log)
	current.Store(client)
	go client.writePump()

	client.Send("form_state", formState{LoadID: form.LoadID(), Draft: form.Draft(), Viewport: form.Viewport()})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	client.readPump(func(msg WSMessage) {
		switch msg.Type {
		case "update_field":
			var upd fieldUpdate
			if err := json.Unmarshal(msg.Payload, &upd); err != nil {
				client.Send("error", ErrorResponse{Error: "malformed update_field payload"})
				return
			}
			if err := form.UpdateField(upd.Field, upd.Value); err != nil {
				client.Send("error", ErrorResponse{Error: err.Error()})
			}

		case "submit":
			id, err := form.Submit(ctx)
			if err != nil {
				if mapErrorToHTTPStatus(err) == http.StatusInternalServerError {
					log.Error().Err(err).Msg("load form submit failed")
					client.Send("error", ErrorResponse{Error: "Failed to save load"})
					return
				}
				client.Send("error", ErrorResponse{Error: publicMessage(err)})
				return
			}
			client.Send("submitted", submitted{LoadID: id, Message: "Load saved successfully"})
			client.Close()

		default:
			client.Send("error", ErrorResponse{Error: "unknown message type " + msg.Type})
		}
	})
}

func (h *FormHandler) RegisterFormRoutes(rg *gin.RouterGroup, jwtAuthMW, adminRoleMW gin.HandlerFunc) {
	rg.GET("/admin/loads/form", jwtAuthMW, adminRoleMW, h.Serve)
}
