package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/vote2earn/api/docs"
	"github.com/vote2earn/api/internal/core/domain"
)

func NewHandler(
	authHandler *AuthHandler,
	pollHandler *PollHandler,
	voteHandler *VoteHandler,
	userHandler *UserHandler,
	jwtSecret []byte,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.With(AuthMiddleware(jwtSecret)).Get("/me", userHandler.GetMe)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))

		r.Route("/polls", func(r chi.Router) {
			r.Get("/", pollHandler.ListPolls)
			r.With(RequireRole(domain.RoleAdmin, domain.RoleVendor)).Post("/", pollHandler.CreatePoll)
			r.Get("/created", pollHandler.ListCreated)
			r.Get("/{id}", pollHandler.GetPoll)
			r.Put("/{id}", pollHandler.UpdatePoll)
			r.Delete("/{id}", pollHandler.DeletePoll)
			r.Post("/{id}/votes", voteHandler.VoteOnPoll)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/me/votes", voteHandler.MyVotes)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireRole(domain.RoleAdmin))
			r.Post("/credits", userHandler.GrantCredit)
			r.Delete("/users/{id}", userHandler.DeleteUser)
		})
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}
