package http

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/AniketShinde02/gurukul-match/internal/adapters/signal"
	"github.com/AniketShinde02/gurukul-match/internal/app"
	"github.com/AniketShinde02/gurukul-match/internal/config"
)

// ClientTokenMiddleware tags every browser with a stable token so a
// connection can be traced in logs before join_queue names the user.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator, ctl *signal.MatchWSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowCredentials = false
	r.Use(cors.New(corsCfg))

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("MatchSessions", store))
	r.Use(ClientTokenMiddleware())

	start := time.Now()
	health := func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":         "ok",
			"queueSize":      orch.Match.QueueSize(),
			"activeSessions": orch.Match.SessionCount(),
			"connections":    orch.Registry.Count(),
			"uptime":         time.Since(start).Seconds(),
		})
	}
	r.GET("/health", health)
	r.GET("/stats", health)

	ws := func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("token", c.GetString("client_token")).Msg("ws endpoint hit")
		ctl.HandleWS(ctx, c)
	}
	// The reference client dials ws://<host>:<port> directly.
	r.GET("/", ws)
	r.GET("/ws", ws)

	return r
}
