package httpapi

import (
	"context"
	"net/http"
	"net/netip"

	"brosolve-backend-go/internal/config"
	"brosolve-backend-go/internal/models"
	"brosolve-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type Server struct {
	Config        config.Config
	Log           *zap.Logger
	Tokens        services.TokenService
	Identity      *services.Identity
	Categories    *services.Categories
	Complaints    *services.Complaints
	Chat          *services.Chat
	Notifications *services.Notifications
	Audit         *services.Audit
	Analytics     *services.Analytics
	Exports       *services.Exports
	QuickReplies  *services.QuickReplies
	Metrics       *services.Metrics
	Hub           *services.Hub
	// UploadDir is served under /uploads when files are kept on local disk.
	UploadDir string

	authLimiter *IPRateLimiter
}

func (s *Server) trustedProxies() []netip.Prefix {
	trusted, err := ParseTrustedProxies(s.Config.TrustedProxies)
	if err != nil {
		s.Log.Warn("ignoring TRUSTED_PROXIES, forwarding headers will not be trusted", zap.Error(err))
		return nil
	}
	return trusted
}

func (s *Server) Router(ctx context.Context) http.Handler {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	if s.authLimiter == nil {
		s.authLimiter = NewIPRateLimiter(s.Config.LoginRatePerMinute)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(ClientIP(s.trustedProxies()))
	r.Use(RequestLogger(s.Log))
	r.Use(middleware.Recoverer)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	authed := func(group chi.Router) {
		group.Use(WithAuth(s.Tokens))
		group.Use(WithFreshRole(s.Identity))
	}
	staff := RequireAnyRole(staffRoles...)
	super := RequireRole(models.RoleSuperadmin)

	r.Route("/api", func(api chi.Router) {
		api.Group(func(auth chi.Router) {
			auth.Use(s.authLimiter.Middleware)
			auth.Post("/auth/register", s.Register)
			auth.Post("/auth/login", s.Login)
		})
		api.Group(func(me chi.Router) {
			authed(me)
			me.Get("/auth/me", s.Me)
		})

		api.Route("/complaints", func(complaints chi.Router) {
			authed(complaints)
			complaints.Post("/", s.CreateComplaint)
			complaints.Get("/", s.ListComplaints)
			complaints.Route("/{id}", func(c chi.Router) {
				c.Get("/", s.GetComplaint)
				c.With(staff).Post("/reply", s.LegacyReply)
				c.With(staff).Patch("/solve", s.SolveComplaint)
				c.Patch("/status", s.UpdateComplaintStatus)
				c.Patch("/close", s.CloseComplaint)
				c.Post("/rating", s.RateComplaint)
				c.Post("/messages", s.PostMessage)
				c.Get("/messages", s.ListMessages)
				c.Post("/messages/audio", DisabledVoiceRoute)
				c.Post("/messages/{messageId}/react", s.ReactToMessage)
				c.Post("/typing", s.SetTyping)
				c.Get("/typing", s.GetTyping)
			})
		})

		api.Route("/replies/complaint/{id}", func(replies chi.Router) {
			authed(replies)
			replies.Post("/", s.PostReply)
			replies.Get("/", s.ListReplies)
			replies.Post("/audio", s.PostVoice)
		})

		api.Route("/categories", func(categories chi.Router) {
			categories.Get("/", s.ListCategories)
			categories.Get("/{id}", s.GetCategory)
			categories.Group(func(admin chi.Router) {
				authed(admin)
				admin.Use(super)
				admin.Post("/", s.CreateCategory)
				admin.Patch("/{id}", s.UpdateCategory)
				admin.Delete("/{id}", s.DeleteCategory)
				admin.Patch("/{id}/restore", s.RestoreCategory)
			})
		})

		api.Route("/notifications", func(notifications chi.Router) {
			authed(notifications)
			notifications.Get("/", s.ListNotifications)
			notifications.Patch("/read-all", s.MarkAllNotificationsRead)
			notifications.Patch("/{id}/read", s.MarkNotificationRead)
			notifications.Patch("/complaint/{complaintId}/read", s.MarkComplaintNotificationsRead)
		})

		api.Group(func(admin chi.Router) {
			authed(admin)
			admin.With(super).Post("/admins/create", s.CreateAdmin)
			admin.With(super).Get("/admin/metrics/history", s.MetricsHistory)
			admin.With(staff).Get("/users", s.ListUsers)
			admin.With(staff).Get("/audit/logs", s.AuditLogs)
			admin.With(staff).Get("/exports/complaints", s.ExportComplaints)
		})

		api.Route("/analytics/dashboard", func(dashboard chi.Router) {
			authed(dashboard)
			dashboard.Use(staff)
			dashboard.Get("/trends/7days", s.trend(7, "Error fetching 7-day trends"))
			dashboard.Get("/trends/30days", s.trend(30, "Error fetching 30-day trends"))
			dashboard.Get("/heatmap", s.trend(30, "Error fetching heatmap data"))
			dashboard.Get("/by-category", s.ComplaintsByCategory)
			dashboard.Get("/by-status", s.ComplaintsByStatus)
			dashboard.Get("/by-center", s.ComplaintsByCenter)
			dashboard.Get("/top-users", s.TopUsers)
			dashboard.Get("/resolution-time", s.ResolutionTime)
		})

		api.Route("/quick-replies", func(quick chi.Router) {
			authed(quick)
			quick.Use(staff)
			quick.Get("/", s.ListQuickReplies)
			quick.Post("/", s.CreateQuickReply)
			quick.Patch("/{id}", s.UpdateQuickReply)
			quick.Delete("/{id}", s.DeleteQuickReply)
		})

		api.Get("/public/stats", s.PublicStats)
		api.Get("/public/analytics", s.PublicAnalytics)
	})

	if s.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.UploadDir))))
	}
	r.Get("/ws", s.Events)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("BROSolve backend is running"))
	})
	return r
}
