package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/cardroomhq/cardroom/internal/api/apierr"
	"github.com/cardroomhq/cardroom/internal/api/middleware"
	"github.com/cardroomhq/cardroom/internal/model"
	"github.com/cardroomhq/cardroom/internal/services/table"
)

// Handler upgrades game connections and seats them at their table
type Handler struct {
	registry *table.Registry
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(registry *table.Registry, logger *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		logger:   logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The session token is the access control; origin checks add
			// nothing for non-browser clients
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeGame handles GET /api/ws/{variant}/{table_id}. Connecting creates
// the table if it doesn't exist yet, so a shared join link always works.
func (h *Handler) ServeGame(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	variant, ok := model.ParseVariant(vars["variant"])
	if !ok {
		apierr.WriteError(w, apierr.NewInvalidRequestError("unknown game variant"))
		return
	}
	tableID := model.TableID(vars["table_id"])
	if tableID == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("missing table id"))
		return
	}

	player := middleware.GetPlayer(r.Context())
	if player == nil {
		apierr.WriteError(w, apierr.NewUnauthorizedError())
		return
	}

	session := h.registry.GetOrCreate(tableID, variant)
	if session.Variant != variant {
		// The table already exists and plays a different game
		apierr.WriteError(w, apierr.NewInvalidRequestError("table "+string(tableID)+" is a "+string(session.Variant)+" table"))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written its own response
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := newClient(conn, player, session, h.logger)
	go client.writePump()

	if err := client.session.Join(r.Context(), player, client); err != nil {
		client.logger.Info("join rejected", slog.Any("error", err))
		client.sendError(err)
		client.close()
		return
	}

	client.logger.Info("player connected")
	go client.readPump()
}
