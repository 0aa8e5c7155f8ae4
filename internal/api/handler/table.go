package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cardroomhq/cardroom/internal/api/request"
	"github.com/cardroomhq/cardroom/internal/api/response"
	"github.com/cardroomhq/cardroom/internal/model"
	"github.com/cardroomhq/cardroom/internal/services/table"
)

// TableHandler handles table lobby endpoints. Seating itself happens over
// the WebSocket; these endpoints create and discover tables.
type TableHandler struct {
	registry *table.Registry
}

// NewTableHandler creates a new table handler
func NewTableHandler(registry *table.Registry) *TableHandler {
	return &TableHandler{
		registry: registry,
	}
}

// Create handles POST /api/v1/tables
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	variant, ok := model.ParseVariant(req.Game)
	if !ok {
		WriteError(w, NewInvalidRequestError("unknown game variant"))
		return
	}

	visibility := model.VisibilityPrivate
	switch req.Visibility {
	case "", string(model.VisibilityPrivate):
	case string(model.VisibilityPublic):
		visibility = model.VisibilityPublic
	default:
		WriteError(w, NewInvalidRequestError("visibility must be public or private"))
		return
	}

	sess := h.registry.Create(variant, visibility)
	response.JSON(w, http.StatusCreated, response.TableFromInfo(sess.Info()))
}

// JoinPublic handles POST /api/v1/tables/join, matchmaking into a public
// table of the requested game with an open seat
func (h *TableHandler) JoinPublic(w http.ResponseWriter, r *http.Request) {
	var req request.JoinPublicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	variant, ok := model.ParseVariant(req.Game)
	if !ok {
		WriteError(w, NewInvalidRequestError("unknown game variant"))
		return
	}

	sess := h.registry.FindOrCreatePublic(variant)
	response.JSON(w, http.StatusOK, response.TableFromInfo(sess.Info()))
}

// List handles GET /api/v1/tables. Private tables are join-by-code only and
// never listed.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	infos := h.registry.Tables()

	tables := make([]response.Table, 0, len(infos))
	for _, info := range infos {
		if info.Visibility != model.VisibilityPublic {
			continue
		}
		tables = append(tables, response.TableFromInfo(info))
	}

	response.JSON(w, http.StatusOK, tables)
}

// Get handles GET /api/v1/tables/{id}
func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	tableID := model.TableID(mux.Vars(r)["id"])

	sess := h.registry.Get(tableID)
	if sess == nil {
		WriteError(w, model.ErrTableNotFound)
		return
	}

	response.JSON(w, http.StatusOK, response.TableFromInfo(sess.Info()))
}
