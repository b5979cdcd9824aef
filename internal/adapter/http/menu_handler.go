package http

import (
	"net/http"

	"github.com/YelzhanWeb/pizzeria-core/internal/adapter/logger"
	"github.com/YelzhanWeb/pizzeria-core/internal/domain"
	"github.com/YelzhanWeb/pizzeria-core/internal/interfaces"
)

type MenuHandler struct {
	menu   interfaces.MenuRepository
	logger logger.Logger
}

func NewMenuHandler(menu interfaces.MenuRepository, lgr logger.Logger) *MenuHandler {
	return &MenuHandler{menu: menu, logger: lgr}
}

type ExtraResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

type ExtraGroupResponse struct {
	Category string          `json:"category"`
	Extras   []ExtraResponse `json:"extras"`
}

// ListExtras serves the active extras grouped by category in menu
// display order.
func (h *MenuHandler) ListExtras(w http.ResponseWriter, r *http.Request) {
	extras, err := h.menu.ListActiveExtras(r.Context())
	if err != nil {
		h.logger.Error("menu_load_failed", "Failed to load menu extras", requestID(r), nil, err)
		respondDomainError(w, err)
		return
	}

	groups := domain.GroupExtrasByCategory(extras)
	resp := make([]ExtraGroupResponse, 0, len(groups))
	for _, g := range groups {
		items := make([]ExtraResponse, 0, len(g.Extras))
		for _, e := range g.Extras {
			items = append(items, ExtraResponse{ID: e.ID, Name: e.Name, Price: e.Price.String()})
		}
		resp = append(resp, ExtraGroupResponse{Category: string(g.Category), Extras: items})
	}

	respondJSON(w, http.StatusOK, resp)
}
