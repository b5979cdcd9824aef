package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/YelzhanWeb/pizzeria-core/internal/adapter/logger"
	"github.com/YelzhanWeb/pizzeria-core/internal/domain"
	"github.com/YelzhanWeb/pizzeria-core/internal/interfaces"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	service interfaces.OrderService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, lgr logger.Logger) *OrderHandler {
	return &OrderHandler{service: service, logger: lgr}
}

type HalfRequest struct {
	PizzaID            int      `json:"pizza_id"`
	ExtraIDs           []int    `json:"extra_ids"`
	RemovedIngredients []string `json:"removed_ingredients"`
}

type OrderItemRequest struct {
	PizzaID            int          `json:"pizza_id"`
	ExtraIDs           []int        `json:"extra_ids"`
	RemovedIngredients []string     `json:"removed_ingredients"`
	SecondHalf         *HalfRequest `json:"second_half,omitempty"`
	Quantity           int          `json:"quantity"`
	Note               string       `json:"note"`
}

type CreateOrderRequest struct {
	CustomerID     int                `json:"customer_id"`
	CustomerName   string             `json:"customer_name"`
	CustomerPhone  string             `json:"customer_phone"`
	Items          []OrderItemRequest `json:"items"`
	DiscountAmount string             `json:"discount_amount,omitempty"`
}

type TransitionRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Actor  string `json:"actor,omitempty"`
}

type OrderResponse struct {
	ID        int    `json:"id"`
	Status    string `json:"status"`
	Total     string `json:"total"`
	ItemCount int    `json:"item_count"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	discount := decimal.Zero
	if req.DiscountAmount != "" {
		var err error
		discount, err = decimal.NewFromString(req.DiscountAmount)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid discount_amount", nil)
			return
		}
	}

	cmd := interfaces.CreateOrderCommand{
		Customer: domain.Customer{
			ID:    req.CustomerID,
			Name:  strings.TrimSpace(req.CustomerName),
			Phone: strings.TrimSpace(req.CustomerPhone),
		},
		Items:          convertItems(req.Items),
		DiscountAmount: discount,
	}

	order, err := h.service.CreateOrder(r.Context(), cmd)
	if err != nil {
		h.logger.Error("order_creation_failed", "Failed to create order", requestID(r), nil, err)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, orderResponse(order))
}

func (h *OrderHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id", nil)
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	order, err := h.service.ApplyTransition(r.Context(), interfaces.TransitionCommand{
		OrderID: orderID,
		Next:    domain.Status(req.Status),
		Reason:  req.Reason,
		Actor:   req.Actor,
	})
	if err != nil {
		h.logger.Error("transition_failed", "Failed to apply status transition", requestID(r), map[string]interface{}{
			"order_id": orderID,
			"status":   req.Status,
		}, err)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orderResponse(order))
}

type UpdateItemsRequest struct {
	Items          []OrderItemRequest `json:"items"`
	DiscountAmount string             `json:"discount_amount,omitempty"`
}

func (h *OrderHandler) UpdateItems(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id", nil)
		return
	}

	var req UpdateItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	discount := decimal.Zero
	if req.DiscountAmount != "" {
		discount, err = decimal.NewFromString(req.DiscountAmount)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid discount_amount", nil)
			return
		}
	}

	order, err := h.service.UpdateItems(r.Context(), interfaces.UpdateItemsCommand{
		OrderID:        orderID,
		Items:          convertItems(req.Items),
		DiscountAmount: discount,
	})
	if err != nil {
		h.logger.Error("order_update_failed", "Failed to update order items", requestID(r), map[string]interface{}{
			"order_id": orderID,
		}, err)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orderResponse(order))
}

func (h *OrderHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id", nil)
		return
	}

	history, err := h.service.GetStatusHistory(r.Context(), orderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	type historyEntry struct {
		From      string `json:"from,omitempty"`
		To        string `json:"to"`
		Reason    string `json:"reason,omitempty"`
		Actor     string `json:"actor,omitempty"`
		ChangedAt string `json:"changed_at"`
	}
	entries := make([]historyEntry, 0, len(history))
	for _, rec := range history {
		entries = append(entries, historyEntry{
			From:      string(rec.From),
			To:        string(rec.To),
			Reason:    rec.Reason,
			Actor:     rec.Actor,
			ChangedAt: rec.ChangedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	respondJSON(w, http.StatusOK, entries)
}

func convertItems(items []OrderItemRequest) []interfaces.OrderItemCommand {
	result := make([]interfaces.OrderItemCommand, len(items))
	for i, item := range items {
		cmd := interfaces.OrderItemCommand{
			PizzaID:            item.PizzaID,
			ExtraIDs:           item.ExtraIDs,
			RemovedIngredients: item.RemovedIngredients,
			Quantity:           item.Quantity,
			Note:               strings.TrimSpace(item.Note),
		}
		if item.SecondHalf != nil {
			cmd.SecondHalf = &interfaces.HalfCommand{
				PizzaID:            item.SecondHalf.PizzaID,
				ExtraIDs:           item.SecondHalf.ExtraIDs,
				RemovedIngredients: item.SecondHalf.RemovedIngredients,
			}
		}
		result[i] = cmd
	}
	return result
}

func orderResponse(order *domain.Order) OrderResponse {
	return OrderResponse{
		ID:        order.ID,
		Status:    string(order.Status),
		Total:     order.Total.String(),
		ItemCount: len(order.Items),
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string, details []string) {
	respondJSON(w, status, ErrorResponse{Error: message, Details: details})
}

// respondDomainError maps the error taxonomy onto HTTP status codes.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(w, http.StatusNotFound, err.Error(), nil)
	case domain.IsConflict(err):
		respondError(w, http.StatusConflict, err.Error(), nil)
	case domain.IsBusiness(err):
		respondError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	default:
		respondError(w, http.StatusInternalServerError, "internal server error", nil)
	}
}
