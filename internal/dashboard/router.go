package dashboard

import (
	"embed"
	"html/template"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"jobmate/dashboard-service/internal/aggregate"
)

// SessionCookie carries the anonymous session id used for theme storage.
const SessionCookie = "jm_session"

const (
	sessionKey    = "session"
	sessionMaxAge = 180 * 24 * 60 * 60
)

//go:embed templates/*.html
var templateFS embed.FS

// NewRouter builds the gin engine with middleware, templates and routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(cors.New(corsConfig(h.opts.AllowedOrigins)))
	r.Use(session())

	r.SetHTMLTemplate(parseTemplates())
	h.Register(r)
	return r
}

func parseTemplates() *template.Template {
	funcs := template.FuncMap{
		"pct": func(n, of int) int {
			if of <= 0 {
				return 0
			}
			return n * 100 / of
		},
		"topCount": func(r aggregate.Ranking) int {
			if len(r.Entries) == 0 {
				return 0
			}
			return r.Entries[0].Count
		},
		"peak": func(s aggregate.Series) int {
			peak := 0
			for _, p := range s.Points {
				peak = max(peak, p.Count)
			}
			return peak
		},
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept"}
	return cfg
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 || slices.Contains(h.opts.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(h.opts.AllowedOrigins, origin)
}

// session makes sure every request has a session id.
func session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, id, sessionMaxAge, "/", "", false, true)
		}
		c.Set(sessionKey, id)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger := log.With().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Logger()

		switch {
		case len(c.Errors) > 0:
			logger.Error().Msg(c.Errors.String())
		case path == "/health":
			logger.Debug().Msg("[dashboard] request")
		default:
			logger.Info().Msg("[dashboard] request")
		}
	}
}
