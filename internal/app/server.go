package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/recpolicy/policyrag/internal/api/handlers"
	appMiddleware "github.com/recpolicy/policyrag/internal/api/middlewares"
	"github.com/recpolicy/policyrag/internal/config"
	"github.com/recpolicy/policyrag/internal/core"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, db core.DbClient, obj core.ObjectClient, proc core.DocProcessor, emb core.EmbeddingProvider, llm core.LLMProvider, logger *slog.Logger) *Server {
	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret)
	userHandler := handlers.NewUserHandler(db)
	docHandler := handlers.NewDocumentHandler(db, obj, proc, emb, cfg, logger)
	chatHandler := handlers.NewChatHandler(db, emb, llm)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWT(cfg.JWTSecret))

			protected.Get("/users/{userID}", userHandler.GetUserInfo)
			protected.Post("/users/{userID}/chats", chatHandler.CreateChat)
			protected.Get("/users/{userID}/chats", chatHandler.GetUserChats)
			protected.Get("/users/{userID}/conversation", chatHandler.GetUserConversation)
			protected.Get("/chats/{chatID}/messages", chatHandler.GetChatMessages)
			protected.Delete("/chats/{chatID}", chatHandler.DeleteChat)
			protected.Post("/chat/query", chatHandler.Query)

			protected.Post("/documents/upload", docHandler.UploadDocument)
			protected.Get("/documents/descriptions", docHandler.GetDocumentDescriptions)
			protected.Get("/images/{imageID}", docHandler.GetImage)

			// admin endpoints
			protected.Group(func(admin chi.Router) {
				admin.Use(appMiddleware.RequireAdmin)
				admin.Get("/users", userHandler.GetAllUsers)
				admin.Patch("/users/{userID}/deactivate", userHandler.DeactivateUser)
				admin.Patch("/users/{userID}/activate", userHandler.ActivateUser)
				admin.Patch("/users/{userID}", userHandler.ChangeUserDetails)
				admin.Delete("/users/{userID}", userHandler.DeleteUser)
			})
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv, log: logger}
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
