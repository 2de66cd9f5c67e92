package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/jhustinvs-a11y/mi-chat-web/internal/chat"
	"github.com/jhustinvs-a11y/mi-chat-web/internal/config"
	"github.com/jhustinvs-a11y/mi-chat-web/internal/session"
	"github.com/jhustinvs-a11y/mi-chat-web/internal/ws"
)

const sessionCookie = "chat_session"

type Server struct {
	store  *session.Store
	tokens *session.TokenManager
	hub    *chat.Hub
	cfg    *config.Config
	log    *zap.SugaredLogger
}

// NewServer wires the fiber app: auth routes, the current-user endpoint,
// and the websocket upgrade.
func NewServer(cfg *config.Config, store *session.Store, tokens *session.TokenManager, hub *chat.Hub, log *zap.SugaredLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	s := &Server{store: store, tokens: tokens, hub: hub, cfg: cfg, log: log}

	app.Use(s.requestLogger())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "online": hub.Online()})
	})

	loginLimit := newIPRateLimiter(cfg.HTTP.LoginPerMinute, log)
	app.Post("/register", loginLimit.Handler(), s.register)
	app.Post("/login", loginLimit.Handler(), s.login)
	app.Post("/logout", s.logout)
	app.Get("/api/user", s.currentUser)

	app.Get("/ws", func(c *fiber.Ctx) error {
		if _, err := s.sessionIdentity(c); err != nil {
			return fiber.ErrUnauthorized
		}
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		ws.Serve(conn, hub, ws.Config{
			PingInterval:   cfg.PingInterval,
			WriteDeadline:  cfg.WriteDeadline,
			MaxMessageSize: cfg.WS.MaxMessageSizeBytes,
		}, log)
	}))

	return app
}

func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		s.log.Debugw("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"took", time.Since(start),
		)
		return err
	}
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (s *Server) register(c *fiber.Ctx) error {
	var req registerReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	id, err := s.store.Register(req.Email, req.Name, req.Password)
	switch {
	case errors.Is(err, session.ErrMissingField):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrEmailTaken):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case err != nil:
		return fiber.ErrInternalServerError
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": id})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	id, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, session.ErrInvalidCredentials.Error())
	}
	token, err := s.tokens.Issue(id)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Expires:  time.Now().Add(s.tokens.TTL()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"user": id})
}

func (s *Server) logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) currentUser(c *fiber.Ctx) error {
	id, err := s.sessionIdentity(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}
	return c.JSON(id)
}

// sessionIdentity resolves the caller from the session cookie, or from a
// token query parameter for clients that cannot send cookies on upgrade.
func (s *Server) sessionIdentity(c *fiber.Ctx) (session.Identity, error) {
	token := c.Cookies(sessionCookie)
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		return session.Identity{}, session.ErrInvalidToken
	}
	return s.tokens.Validate(token)
}
