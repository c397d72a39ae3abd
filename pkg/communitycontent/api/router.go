package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/community-content/pkg/communitycontent"
	"github.com/tendant/community-content/pkg/communitycontent/identity"
	"github.com/tendant/community-content/pkg/communitycontent/moderation"
	"github.com/tendant/community-content/pkg/communitycontent/stats"
)

// Dependencies are the services the HTTP surface is built from
type Dependencies struct {
	Gate       *identity.Gate
	Content    communitycontent.Service
	Moderation moderation.Service
	Stats      stats.Service
	Rotator    CredentialRotator
	Policy     communitycontent.SubmissionPath
	Logger     *slog.Logger
}

// Mount installs the content and admin routes on r in their own group, so
// routes already registered on r keep their middleware stack. The gate runs
// once per request before any handler.
func Mount(r chi.Router, deps Dependencies) {
	r.Group(func(r chi.Router) {
		r.Use(RequestIDMiddleware)
		r.Use(RecoveryMiddleware)
		r.Use(LoggingMiddleware(deps.Logger))
		r.Use(deps.Gate.Middleware)

		r.Mount("/content", NewContentHandler(deps.Content, deps.Policy).Routes())
		r.Mount("/admin", NewAdminHandler(deps.Moderation, deps.Stats, deps.Rotator).Routes())
	})
}
