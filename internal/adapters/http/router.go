package http

import (
	"context"

	"github.com/dkeye/Sketch/internal/adapters/signal"
	"github.com/dkeye/Sketch/internal/app/orch"
	"github.com/dkeye/Sketch/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const clientTokenKey = "client_token"

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

// ClientTokenMiddleware gives every browser a stable token kept in the
// signed session cookie. It doubles as the session id of the websocket.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get("ct").(string)
		if token == "" {
			token = genClientToken()
			session.Set("ct", token)
			if err := session.Save(); err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set(clientTokenKey, token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, ws *signal.SignalWSController) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Server.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Server.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions("SketchSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.Server.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.Server.StaticPath + "/index.html")
	})
	r.GET("/healthz", healthz(o))

	log.Info().Str("module", "adapters.http").Str("static", cfg.Server.StaticPath).Msg("router setup")

	h := &RoomHandlers{Orch: o, Invites: ws.Invites}
	api := r.Group("/api")
	api.GET("/rooms", h.listRooms)
	api.GET("/rooms/:code", h.getRoom)
	api.POST("/rooms/:code/invitations", h.invite)
	api.GET("/invitations/:token", h.acceptInvitation)
	api.POST("/reports", h.report)

	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString(clientTokenKey)).Msg("ws signal endpoint hit")
		ws.HandleSignal(ctx, c)
	})

	return r
}
