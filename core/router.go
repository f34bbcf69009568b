package core

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

// NewRouter constructs the gin engine with the auth routes wired.
//
// The three auth endpoints answer with bare JSON values: register is
// a boolean, login is the token string or null, authenticate is the
// username or null. A valid request is always 200; false/null carries
// the outcome, never the HTTP status.
func NewRouter(cfg Config, store *sessions.CookieStore, auth AuthService, stats *StatsService) *gin.Engine {
	r := gin.Default()

	r.Use(OriginRefererMiddleware(cfg))
	r.Use(SessionMiddleware(cfg, store))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/auth/register", func(c *gin.Context) {
			var req Credential
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			c.JSON(http.StatusOK, auth.Register(c.Request.Context(), req))
		})

		api.POST("/auth/login", func(c *gin.Context) {
			var req Credential
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}

			token, ok := auth.Login(c.Request.Context(), req)
			if !ok {
				c.JSON(http.StatusOK, nil)
				return
			}

			// Echo the token into the session cookie for browser
			// clients. Best effort; the body token is authoritative.
			if sess := currentSession(c); sess != nil {
				sess.Values = map[interface{}]interface{}{}
				sess.Values["token"] = token
				applySessionOptions(cfg, sess)
				_ = sess.Save(c.Request, c.Writer)
			}

			c.JSON(http.StatusOK, token)
		})

		api.POST("/auth/authenticate", func(c *gin.Context) {
			var token string
			if err := c.ShouldBindJSON(&token); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}

			username, ok := auth.Authenticate(c.Request.Context(), token)
			if !ok {
				c.JSON(http.StatusOK, nil)
				return
			}
			c.JSON(http.StatusOK, username)
		})

		api.POST("/auth/logout", func(c *gin.Context) {
			// Clears the cookie only. The token mapping is never
			// deleted; a client holding the raw token keeps a valid
			// session.
			sess := currentSession(c)
			if sess == nil {
				respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "no session")
				return
			}
			sess.Values = map[interface{}]interface{}{}
			applySessionOptions(cfg, sess)
			sess.Options.MaxAge = -1 // Must be set AFTER applySessionOptions to properly delete cookie
			if err := sess.Save(c.Request, c.Writer); err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to clear session")
				return
			}
			c.Status(http.StatusNoContent)
		})

		authed := api.Group("")
		authed.Use(RequireToken(auth))
		{
			authed.GET("/users/me", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"username": c.GetString("username")})
			})

			authed.GET("/stats", func(c *gin.Context) {
				st, err := stats.Overview(c.Request.Context())
				if err != nil {
					respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to load stats")
					return
				}
				c.JSON(http.StatusOK, st)
			})
		}
	}

	return r
}
