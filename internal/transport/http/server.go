package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"lernapp-service/internal/app"
	"lernapp-service/internal/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
)

// Accounts is the local account backend behind the password-reset routes.
type Accounts interface {
	Account(ctx context.Context, username string) (*auth.Account, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Options configure a Handler. Accounts may be nil when auth is remote.
type Options struct {
	Service       *app.Service
	Accounts      Accounts
	Logger        *slog.Logger
	NextTaskDelay time.Duration
}

// Handler serves the REST API and the play websocket.
type Handler struct {
	service       *app.Service
	accounts      Accounts
	logger        *slog.Logger
	nextTaskDelay time.Duration
	upgrader      websocket.Upgrader
}

func NewHandler(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NextTaskDelay <= 0 {
		opts.NextTaskDelay = 1500 * time.Millisecond
	}
	return &Handler{
		service:       opts.Service,
		accounts:      opts.Accounts,
		logger:        opts.Logger,
		nextTaskDelay: opts.NextTaskDelay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Routes builds the router.
func (h *Handler) Routes() http.Handler {
	mux := chi.NewRouter()
	mux.Use(cors.AllowAll().Handler)

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	mux.Post("/register", h.Register)
	mux.Post("/login", h.Login)
	mux.Get("/last-user", h.LastUser)
	mux.Get("/leaderboard", h.Leaderboard)
	if h.accounts != nil {
		mux.Post("/request-password-reset", h.RequestPasswordReset)
		mux.Post("/reset-password", h.ResetPassword)
	}

	mux.Get("/ws", h.ServeWS)

	mux.Group(func(r chi.Router) {
		r.Use(h.requireSession)

		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)

		r.Route("/clubs", func(r chi.Router) {
			r.Post("/", h.CreateClub)
			r.Get("/search", h.SearchClubs)
			r.Post("/{clubID}/join", h.JoinClub)
		})

		r.Route("/club", func(r chi.Router) {
			r.Get("/", h.CurrentClub)
			r.Post("/leave", h.LeaveClub)
			r.Post("/admins/{member}/toggle", h.ToggleAdmin)
			r.Get("/quest-progress", h.QuestProgress)
		})

		r.Route("/quests", func(r chi.Router) {
			r.Get("/", h.ListQuests)
			r.Post("/", h.CreateQuest)
		})
	})

	return mux
}
