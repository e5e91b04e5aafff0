// Package httpapi serves the static client, upgrades /ws/signal to the
// signaling WebSocket and exposes a small admin/trace surface over the
// live registries.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/floorwave/relay/internal/config"
	"github.com/floorwave/relay/internal/signaling"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func genClientToken() string { return uuid.NewString() }

// ClientTokenMiddleware stamps every browser with a long-lived cookie
// identifying its tab across reconnects, independent of the PTT
// user_id carried in the IDENTIFY frame.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// SetupRouter builds the full gin engine: static client, session/client
// token cookies, the signaling upgrade endpoint and the admin/trace API.
func SetupRouter(ctx context.Context, cfg *config.Config, ctrl *signaling.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("floorwave-relay", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "httpapi").Str("static", cfg.StaticPath).Msg("router setup")

	r.GET("/ws/signal", func(c *gin.Context) {
		handleSignalUpgrade(ctx, c, ctrl)
	})

	registerAdminRoutes(r.Group("/api"), ctrl)

	return r
}

func handleSignalUpgrade(ctx context.Context, c *gin.Context, ctrl *signaling.Controller) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Str("module", "httpapi").Err(err).Msg("ws upgrade failed")
		return
	}
	log.Info().Str("module", "httpapi").Str("client_token", c.GetString("client_token")).Msg("signaling connection opened")

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	deadline := 60 * time.Second
	_ = conn.SetReadDeadline(time.Now().Add(deadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(deadline))
	})

	ctrl.HandleConnection(connCtx, conn)
}
