package http

import (
	"net/http"
	"strings"

	"github.com/YelzhanWeb/pizzeria-core/internal/adapter/logger"
	"github.com/YelzhanWeb/pizzeria-core/internal/app/kitchen"
	"github.com/YelzhanWeb/pizzeria-core/internal/domain"
)

type KitchenHandler struct {
	board  *kitchen.Service
	logger logger.Logger
}

func NewKitchenHandler(board *kitchen.Service, lgr logger.Logger) *KitchenHandler {
	return &KitchenHandler{board: board, logger: lgr}
}

type BoardItemResponse struct {
	PizzaName     string `json:"pizza_name"`
	HalfPizzaName string `json:"half_pizza_name,omitempty"`
	Quantity      int    `json:"quantity"`
	Note          string `json:"note,omitempty"`
}

type BoardEntryResponse struct {
	OrderID        int                 `json:"order_id"`
	CustomerName   string              `json:"customer_name"`
	Status         string              `json:"status"`
	ElapsedMinutes int                 `json:"elapsed_minutes"`
	Priority       string              `json:"priority"`
	Items          []BoardItemResponse `json:"items"`
}

// GetBoard serves the live kitchen view. Query parameters: sort,
// status (comma-separated), priority, q (free-text search).
func (h *KitchenHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	query := kitchen.BoardQuery{
		Sort:     kitchen.SortMode(r.URL.Query().Get("sort")),
		Priority: domain.Priority(r.URL.Query().Get("priority")),
		Search:   r.URL.Query().Get("q"),
	}

	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := domain.Status(strings.TrimSpace(s))
			if !domain.IsValidStatus(status) {
				respondError(w, http.StatusBadRequest, "unknown status: "+string(status), nil)
				return
			}
			query.Statuses = append(query.Statuses, status)
		}
	}
	if query.Priority != "" {
		switch query.Priority {
		case domain.PriorityNormal, domain.PriorityUrgente, domain.PriorityCritico:
		default:
			respondError(w, http.StatusBadRequest, "unknown priority: "+string(query.Priority), nil)
			return
		}
	}

	entries := h.board.List(query)

	resp := make([]BoardEntryResponse, 0, len(entries))
	for _, e := range entries {
		items := make([]BoardItemResponse, 0, len(e.Order.Items))
		for _, item := range e.Order.Items {
			itemResp := BoardItemResponse{
				PizzaName: item.PizzaName,
				Quantity:  item.Quantity,
				Note:      item.Note,
			}
			if item.IsHalfAndHalf() {
				itemResp.HalfPizzaName = item.SecondHalf.PizzaName
			}
			items = append(items, itemResp)
		}
		resp = append(resp, BoardEntryResponse{
			OrderID:        e.Order.ID,
			CustomerName:   e.Order.CustomerName,
			Status:         string(e.Order.Status),
			ElapsedMinutes: e.ElapsedMinutes,
			Priority:       string(e.Priority),
			Items:          items,
		})
	}

	respondJSON(w, http.StatusOK, resp)
}
