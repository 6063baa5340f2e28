package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is an upstream order projected onto a flat shape.
type Order struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"orderNumber"`
	CreatedAt         *time.Time      `json:"createdAt"`
	TotalPrice        decimal.Decimal `json:"totalPrice"`
	FinancialStatus   string          `json:"financialStatus"`
	FulfillmentStatus string          `json:"fulfillmentStatus"`
	Customer          OrderCustomer   `json:"customer"`
	LineItems         []OrderLineItem `json:"lineItems"`
	Source            string          `json:"source"`
}

type OrderCustomer struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type OrderLineItem struct {
	ID       string          `json:"id"`
	SKU      string          `json:"sku"`
	Title    string          `json:"title"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// OrderPage is the body of GET /orders.
type OrderPage struct {
	Success   bool    `json:"success"`
	Data      []Order `json:"data"`
	Page      int     `json:"page"`
	PageSize  int     `json:"pageSize"`
	Operation string  `json:"operation"`
}
