// Package rest exposes the account API over HTTP using gin.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/contactkeeper/internal/logging"
	"github.com/dmitrijs2005/contactkeeper/internal/server/auth"
	"github.com/dmitrijs2005/contactkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests on stop.
const ShutdownTimeout = 5 * time.Second

type Server struct {
	address  string
	accounts *services.AccountService
	avatars  *services.AvatarService
	contacts *services.ContactService
	guard    *auth.Guard
	logger   logging.Logger
	engine   *gin.Engine
}

func NewServer(a string, l logging.Logger, accounts *services.AccountService, avatars *services.AvatarService, contacts *services.ContactService, guard *auth.Guard) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		address:  a,
		accounts: accounts,
		avatars:  avatars,
		contacts: contacts,
		guard:    guard,
		logger:   l.With("module", "http_server"),
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/ping", s.ping)

	users := r.Group("/users")
	users.POST("/signup", s.signup)
	users.GET("/verify/:verificationToken", s.verify)
	users.POST("/verify", s.resendVerification)
	users.POST("/login", s.login)

	protected := users.Group("", s.authRequired)
	protected.POST("/logout", s.logout)
	protected.GET("/current", s.current)
	protected.PATCH("", s.changeSubscription)
	protected.POST("/avatars/upload", s.requestAvatarUpload)
	protected.PATCH("/avatars", s.commitAvatar)

	contacts := r.Group("/contacts", s.authRequired)
	contacts.GET("", s.listContacts)
	contacts.GET("/:contactId", s.getContact)
	contacts.POST("", s.createContact)
	contacts.PUT("/:contactId", s.updateContact)
	contacts.PATCH("/:contactId/favorite", s.setFavorite)
	contacts.DELETE("/:contactId", s.deleteContact)

	return r
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
