/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Response wrappers for mutation outcomes

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs. DTOs are pure
  data carriers.
*/
package api

import "github.com/warp/bookstore-ledger/ledger"

// MemberDTO represents a member in API responses.
type MemberDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// BookDTO represents a book in API responses.
type BookDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price int64  `json:"price"`
	Stock int64  `json:"stock"`
}

// SaleViewDTO is one row of the sales report.
type SaleViewDTO struct {
	SaleID     int64  `json:"sale_id"`
	Date       string `json:"date"`
	MemberName string `json:"member_name"`
	BookTitle  string `json:"book_title"`
	UnitPrice  int64  `json:"unit_price"`
	Quantity   int64  `json:"quantity"`
	Discount   int64  `json:"discount"`
	Total      int64  `json:"total"`
}

// CreateSaleRequest is the request to record a sale.
type CreateSaleRequest struct {
	Date     string `json:"date"`
	MemberID string `json:"member_id"`
	BookID   string `json:"book_id"`
	Quantity int64  `json:"quantity"`
	Discount int64  `json:"discount"`
}

// CreateSaleResponse confirms a recorded sale.
type CreateSaleResponse struct {
	SaleID int64 `json:"sale_id"`
	Total  int64 `json:"total"`
}

// UpdateSaleRequest is the request to rewrite a sale's quantity/discount.
type UpdateSaleRequest struct {
	Quantity int64 `json:"quantity"`
	Discount int64 `json:"discount"`
}

// UpdateSaleResponse confirms an updated sale with its recomputed total.
type UpdateSaleResponse struct {
	SaleID int64 `json:"sale_id"`
	Total  int64 `json:"total"`
}

// SummaryDTO aggregates the sales report.
type SummaryDTO struct {
	Sales         int64  `json:"sales"`
	GrossTotal    int64  `json:"gross_total"`
	TotalDiscount int64  `json:"total_discount"`
	AverageTotal  string `json:"average_total"`
}

// ErrorResponse is the JSON shape of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func memberDTO(m ledger.Member) MemberDTO {
	return MemberDTO{
		ID:    string(m.ID),
		Name:  m.Name,
		Phone: m.Phone,
		Email: m.Email,
	}
}

func bookDTO(b ledger.Book) BookDTO {
	return BookDTO{
		ID:    string(b.ID),
		Title: b.Title,
		Price: b.Price,
		Stock: b.Stock,
	}
}

func saleViewDTO(v ledger.SaleView) SaleViewDTO {
	return SaleViewDTO{
		SaleID:     int64(v.SaleID),
		Date:       v.Date,
		MemberName: v.MemberName,
		BookTitle:  v.BookTitle,
		UnitPrice:  v.UnitPrice,
		Quantity:   v.Quantity,
		Discount:   v.Discount,
		Total:      v.Total,
	}
}
