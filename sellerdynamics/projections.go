package sellerdynamics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yashrajoria/inventory-service/classifier"
	"github.com/yashrajoria/inventory-service/models"
)

// Result is the <Op>Result element of a response along with its business
// error flag. A result with IsError set is still returned without an error.
type Result struct {
	Operation    string
	IsError      bool
	ErrorMessage string
	Node         Node
}

// Err converts a business error flag into a *ProtocolError.
func (r *Result) Err() error {
	if !r.IsError {
		return nil
	}
	return &ProtocolError{Operation: r.Operation, Message: r.ErrorMessage}
}

// ParseResult parses a response document and locates
// Envelope/Body/<operation>Response/<operation>Result. An empty result
// element yields an empty Node.
func ParseResult(data []byte, operation string) (*Result, error) {
	root, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Operation = operation
			return nil, pe
		}
		return nil, &ParseError{Operation: operation, Err: err}
	}

	body := root.Path("Envelope", "Body")
	if body == nil {
		return nil, &ParseError{Operation: operation, Err: errors.New("missing Envelope/Body")}
	}
	if fault := body.Child("Fault"); fault != nil {
		return &Result{
			Operation:    operation,
			IsError:      true,
			ErrorMessage: fault.First("faultstring", "Reason"),
			Node:         Node{},
		}, nil
	}

	resp := body.Child(operation + "Response")
	if resp == nil {
		return nil, &ParseError{Operation: operation, Err: fmt.Errorf("missing %sResponse", operation)}
	}
	node := resp.Child(operation + "Result")
	if node == nil {
		node = Node{}
	}

	return &Result{
		Operation:    operation,
		IsError:      strings.EqualFold(node.Text("IsError"), "true"),
		ErrorMessage: node.Text("ErrorMessage"),
		Node:         node,
	}, nil
}

// StockLevel is one upstream stock-level item.
type StockLevel struct {
	SKU         string
	ProductName string
	Vendor      string
	Category    string
	Quantity    int
	Allocated   int
	Price       decimal.Decimal
	Cost        decimal.Decimal
	IsKit       *bool
	CreatedAt   time.Time
}

// StockLevels extracts the stock-level items of a GetStockLevels result.
// Both StockLevels/StockLevelItem and StockLevels/StockLevel layouts are
// accepted, the former taking precedence.
func (r *Result) StockLevels() []StockLevel {
	container := r.Node.Child("StockLevels")
	items := container.All("StockLevelItem")
	if len(items) == 0 {
		items = container.All("StockLevel")
	}

	levels := make([]StockLevel, 0, len(items))
	for _, item := range items {
		sku := item.Text("SKU")
		name := item.First("ProductName", "ProductTitle", "Title")
		if name == "" {
			name = sku
		}
		level := StockLevel{
			SKU:         sku,
			ProductName: strings.TrimSpace(name),
			Vendor:      orDefault(item.First("Vendor", "Supplier", "Brand"), models.UnknownVendor),
			Category:    orDefault(item.First("ProductType", "Category", "Type"), models.DefaultCategory),
			Quantity:    toInt(item.Text("Quantity")),
			Allocated:   firstInt(item, "QuantityAllocated", "AllocatedQuantity"),
			Price:       firstDecimal(item, "Price", "UnitPrice"),
			Cost:        firstDecimal(item, "Cost", "UnitCost"),
			IsKit:       toBoolPtr(item.Text("IsKit")),
			CreatedAt:   toTime(item.First("CreatedAt", "DateCreated")),
		}
		levels = append(levels, level)
	}
	return levels
}

// Record normalizes a stock level into an InventoryRecord. index is the
// item's position within its page and becomes part of the id.
func (s StockLevel) Record(index int, now time.Time) models.InventoryRecord {
	updated := s.CreatedAt
	if updated.IsZero() {
		updated = now
	}
	isMaster := classifier.IsMasterProduct(s.ProductName, s.SKU, s.IsKit)
	r := models.InventoryRecord{
		ID:              fmt.Sprintf("SD-%s-%d", s.SKU, index),
		SKU:             s.SKU,
		ProductName:     s.ProductName,
		Vendor:          s.Vendor,
		Category:        s.Category,
		CurrentStock:    s.Quantity,
		AllocatedStock:  s.Allocated,
		Price:           s.Price,
		Cost:            s.Cost,
		ReorderPoint:    models.DefaultReorderPoint,
		IsMasterProduct: isMaster,
		Source:          models.SourceUpstream,
		DataSource:      models.DataSourceReal,
		LastUpdated:     updated,
	}
	r.Normalize()
	return r
}

// Orders extracts the orders of an order-listing result.
func (r *Result) Orders(now time.Time) []models.Order {
	container := r.Node.Child("Orders")
	items := container.All("OrderItem")
	if len(items) == 0 {
		items = container.All("Order")
	}

	orders := make([]models.Order, 0, len(items))
	for i, item := range items {
		id := orDefault(item.First("OrderId", "Id"), fmt.Sprintf("SD-%d", i))
		customer := item.Child("Customer")

		order := models.Order{
			ID:                id,
			OrderNumber:       orDefault(item.First("OrderNumber", "Reference"), "#"+id),
			TotalPrice:        firstDecimal(item, "TotalAmount", "TotalPrice"),
			FinancialStatus:   orDefault(item.Text("PaymentStatus"), "pending"),
			FulfillmentStatus: orDefault(item.Text("FulfillmentStatus"), "unfulfilled"),
			Customer: models.OrderCustomer{
				ID:        orDefault(firstOf(item.Text("CustomerId"), customer.Text("Id")), fmt.Sprintf("customer-%d", i)),
				FirstName: orDefault(firstOf(item.Text("CustomerFirstName"), customer.Text("FirstName")), "Unknown"),
				LastName:  orDefault(firstOf(item.Text("CustomerLastName"), customer.Text("LastName")), "Customer"),
				Email:     firstOf(item.Text("CustomerEmail"), customer.Text("Email")),
			},
			LineItems: lineItems(item.Child("Items"), i),
			Source:    models.SourceUpstream,
		}
		created := toTime(item.First("OrderDate", "CreatedAt"))
		if created.IsZero() {
			created = now
		}
		order.CreatedAt = &created
		orders = append(orders, order)
	}
	return orders
}

func lineItems(container Node, orderIndex int) []models.OrderLineItem {
	var items []Node
	for _, name := range []string{"Item", "OrderLine", "LineItem"} {
		if items = container.All(name); len(items) > 0 {
			break
		}
	}

	out := make([]models.OrderLineItem, 0, len(items))
	for j, item := range items {
		qty := toInt(item.Text("Quantity"))
		if qty == 0 {
			qty = 1
		}
		out = append(out, models.OrderLineItem{
			ID:       orDefault(item.First("ItemId", "Id"), fmt.Sprintf("item-%d-%d", orderIndex, j)),
			SKU:      orDefault(item.First("SKU", "ProductCode"), "N/A"),
			Title:    orDefault(item.First("ProductName", "Title"), "Unknown Product"),
			Quantity: qty,
			Price:    firstDecimal(item, "UnitPrice", "Price"),
		})
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// toInt parses a whole or fractional number, truncating the fraction. Bad
// input yields zero.
func toInt(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// firstInt returns the first non-zero integer among names.
func firstInt(n Node, names ...string) int {
	for _, name := range names {
		if v := toInt(n.Text(name)); v != 0 {
			return v
		}
	}
	return 0
}

// firstDecimal returns the first non-zero decimal among names.
func firstDecimal(n Node, names ...string) decimal.Decimal {
	for _, name := range names {
		d, err := decimal.NewFromString(strings.TrimSpace(n.Text(name)))
		if err == nil && !d.IsZero() {
			return d
		}
	}
	return decimal.Zero
}

func toBoolPtr(s string) *bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &b
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func toTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
