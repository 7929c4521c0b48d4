package handler

import (
	"context"
	"net/http"

	"loadboard/internal/middleware"
	"loadboard/internal/model"
	"loadboard/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SessionHandler tells a client which screen group to show and keeps it
// updated as the auth state changes.
type SessionHandler struct {
	router *session.Router
	source session.AuthStateSource
	log    zerolog.Logger
}

func NewSessionHandler(router *session.Router, source session.AuthStateSource, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{router: router, source: source, log: log}
}

type screenGroupPayload struct {
	Group session.ScreenGroup `json:"group"`
}

func identityFrom(c *gin.Context) *model.Identity {
	uid := c.GetString(middleware.AuthUserKey)
	if uid == "" {
		return nil
	}
	return &model.Identity{UID: uid, Email: c.GetString(middleware.AuthEmailKey)}
}

func (h *SessionHandler) Current(c *gin.Context) {
	group := h.router.Route(c.Request.Context(), identityFrom(c))
	c.JSON(http.StatusOK, screenGroupPayload{Group: group})
}

// Stream pushes a "screen_group" message now and after every auth-state
// change. A sign-out sends the auth group and closes the stream.
func (h *SessionHandler) Stream(c *gin.Context) {
	identity := identityFrom(c)
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("session stream upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	log := h.log.With().Str("uid", identity.UID).Logger()
	client := newWSClient(conn, log)
	go client.writePump()

	unsubscribe, err := h.router.Watch(ctx, h.source, identity, func(group session.ScreenGroup) {
		client.Send("screen_group", screenGroupPayload{Group: group})
		if group == session.GroupAuth {
			client.Close()
		}
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to watch auth state")
		client.Send("error", ErrorResponse{Error: "Unable to watch session"})
		client.Close()
		return
	}
	defer unsubscribe()

	// Inbound frames carry nothing; reading keeps ping/pong and close
	// handling alive.
	client.readPump(func(WSMessage) {})
}

func (h *SessionHandler) RegisterSessionRoutes(rg *gin.RouterGroup, jwtAuthMW gin.HandlerFunc) {
	sessionGroup := rg.Group("/session", jwtAuthMW)
	{
		sessionGroup.GET("", h.Current)
		sessionGroup.GET("/stream", h.Stream)
	}
}
