/*
Package handler provides read-only HTTP views of the presence state.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tealtint-nt/WebRTCSample/internal/pkg/errs"
	"github.com/tealtint-nt/WebRTCSample/internal/pkg/logx"
	"github.com/tealtint-nt/WebRTCSample/internal/pkg/randx"
	"github.com/tealtint-nt/WebRTCSample/internal/pkg/resp"
)

// HandleHealth reports liveness together with connection and user counts.
func HandleHealth(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := deps.Hub.Stats()

		resp.RespondSuccess(w, r, map[string]any{
			"status":      "ok",
			"service":     ServiceName,
			"connections": stats.Connections,
			"users":       stats.Users,
		})
	}
}

// HandleListUsers returns the current presence snapshot in the same shape as users:update.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"users": deps.Hub.Registry().Snapshot(),
		})
	}
}

// HandleGetUser returns the record of one logged-in connection.
// Connection ids are UUIDs; anything else is rejected before the registry is consulted.
func HandleGetUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connID := chi.URLParam(r, "connID")
		if !randx.IsValidID(connID) {
			logx.Debug("User lookup rejected: malformed connection id.", "conn_id", connID)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		rec, ok := deps.Hub.Registry().Get(connID)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		resp.RespondSuccess(w, r, rec)
	}
}
