/*
handlers.go - HTTP API handlers for the bookstore sales ledger

PURPOSE:
  Exposes the sales ledger via REST. Handles HTTP request/response, JSON
  serialization, and delegates to the engine.

ENDPOINTS:
  Catalog:
    GET    /api/members        List members
    GET    /api/members/{id}   Get one member
    GET    /api/books          List books
    GET    /api/books/{id}     Get one book

  Sales:
    POST   /api/sales          Record a sale
    GET    /api/sales          Sales report (joined view, ordered by id)
    PUT    /api/sales/{id}     Rewrite quantity/discount
    DELETE /api/sales/{id}     Delete a sale, restocking the book

  Report:
    GET    /api/report/summary Aggregates over the report

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input (quantity, discount, malformed body)
  - 404: Member, book or sale not found
  - 409: Insufficient stock for the requested quantity
  - 500: Storage failure (the operation was fully rolled back)
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/warp/bookstore-ledger/ledger"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *ledger.Engine
}

// NewHandler creates a new handler backed by the given engine.
func NewHandler(engine *ledger.Engine) *Handler {
	return &Handler{Engine: engine}
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListMembers returns all members.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Engine.ListMembers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list members", err)
		return
	}

	dtos := make([]MemberDTO, len(members))
	for i, m := range members {
		dtos[i] = memberDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetMember returns a single member.
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	id := ledger.MemberID(chi.URLParam(r, "id"))

	member, err := h.Engine.FindMember(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get member", err)
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, memberDTO(*member))
}

// ListBooks returns all books with their current stock.
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.Engine.ListBooks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list books", err)
		return
	}

	dtos := make([]BookDTO, len(books))
	for i, b := range books {
		dtos[i] = bookDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetBook returns a single book.
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	id := ledger.BookID(chi.URLParam(r, "id"))

	book, err := h.Engine.FindBook(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get book", err)
		return
	}
	if book == nil {
		writeError(w, http.StatusNotFound, "Book not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, bookDTO(*book))
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// CreateSale records a new sale.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Date == "" {
		writeError(w, http.StatusBadRequest, "date is required", nil)
		return
	}

	result, err := h.Engine.CreateSale(r.Context(), req.Date,
		ledger.MemberID(req.MemberID), ledger.BookID(req.BookID),
		req.Quantity, req.Discount)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateSaleResponse{
		SaleID: int64(result.SaleID),
		Total:  result.Total,
	})
}

// ListSales returns the joined sales report.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	views, err := h.Engine.ListSales(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sales", err)
		return
	}

	dtos := make([]SaleViewDTO, len(views))
	for i, v := range views {
		dtos[i] = saleViewDTO(v)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateSale rewrites a sale's quantity and discount.
func (h *Handler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sale id", err)
		return
	}

	var req UpdateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	total, err := h.Engine.UpdateSale(r.Context(), ledger.SaleID(id), req.Quantity, req.Discount)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UpdateSaleResponse{SaleID: id, Total: total})
}

// DeleteSale removes a sale and restores its book's stock.
func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sale id", err)
		return
	}

	if err := h.Engine.DeleteSale(r.Context(), ledger.SaleID(id)); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetSummary returns aggregates over the sales report.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Engine.Summarize(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize sales", err)
		return
	}

	writeJSON(w, http.StatusOK, SummaryDTO{
		Sales:         sum.Sales,
		GrossTotal:    sum.GrossTotal,
		TotalDiscount: sum.TotalDiscount,
		AverageTotal:  sum.AverageTotal.String(),
	})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps ledger error kinds to HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "Insufficient stock", err)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	default:
		writeError(w, http.StatusInternalServerError, "Operation failed", err)
	}
}
