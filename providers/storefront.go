package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yashrajoria/inventory-service/classifier"
	"github.com/yashrajoria/inventory-service/models"
)

const (
	DefaultVendor = "Secondary Store"

	storefrontTimeout = 30 * time.Second
	maxResponseSize   = 50 << 20
)

// ErrMissingProductID is returned when an update does not name a product.
var ErrMissingProductID = errors.New("product id is required")

// StorefrontProvider implements SecondaryProvider against a REST storefront
// exposing GET /products.
type StorefrontProvider struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	now         func() time.Time
}

func NewStorefrontProvider(baseURL, accessToken string) *StorefrontProvider {
	return &StorefrontProvider{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: storefrontTimeout},
		now:         time.Now,
	}
}

// ---- storefront wire types ----

// flexID accepts both numeric and string identifiers.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	*id = flexID(strings.Trim(s, `"`))
	return nil
}

// flexDecimal accepts a price sent as a number, a numeric string or an
// empty string. Anything unparseable is zero.
type flexDecimal struct{ decimal.Decimal }

func (d *flexDecimal) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	v, err := decimal.NewFromString(s)
	if err != nil {
		d.Decimal = decimal.Zero
		return nil
	}
	d.Decimal = v
	return nil
}

type Variant struct {
	ID                flexID      `json:"id"`
	SKU               string      `json:"sku"`
	Price             flexDecimal `json:"price"`
	InventoryQuantity int         `json:"inventory_quantity"`
}

type Product struct {
	ID          flexID    `json:"id"`
	Title       string    `json:"title"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"product_type"`
	UpdatedAt   string    `json:"updated_at"`
	Variants    []Variant `json:"variants"`
}

type productsResponse struct {
	Products []Product `json:"products"`
}

type variantUpdateRequest struct {
	VariantID         string           `json:"variant_id,omitempty"`
	InventoryQuantity *int             `json:"inventory_quantity,omitempty"`
	Price             *decimal.Decimal `json:"price,omitempty"`
}

// ---- SecondaryProvider implementation ----

// ListProducts returns the raw product listing.
func (p *StorefrontProvider) ListProducts(ctx context.Context) ([]Product, error) {
	var resp productsResponse
	if err := p.doRequest(ctx, http.MethodGet, "/products", nil, &resp); err != nil {
		return nil, fmt.Errorf("storefront ListProducts: %w", err)
	}
	return resp.Products, nil
}

// Inventory lists products and normalizes them.
func (p *StorefrontProvider) Inventory(ctx context.Context) ([]models.InventoryRecord, error) {
	products, err := p.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return ToRecords(products, p.now()), nil
}

// UpdateVariant sends PUT /products/{productID}.
func (p *StorefrontProvider) UpdateVariant(ctx context.Context, productID, variantID string, quantity *int, price *decimal.Decimal) error {
	if productID == "" {
		return ErrMissingProductID
	}
	body := variantUpdateRequest{
		VariantID:         variantID,
		InventoryQuantity: quantity,
		Price:             price,
	}
	if err := p.doRequest(ctx, http.MethodPut, "/products/"+url.PathEscape(productID), body, nil); err != nil {
		return fmt.Errorf("storefront UpdateVariant: %w", err)
	}
	return nil
}

// ToRecords maps products to inventory records using each product's first
// variant. Products without a SKU get SECONDARY-<id>.
func ToRecords(products []Product, now time.Time) []models.InventoryRecord {
	records := make([]models.InventoryRecord, 0, len(products))
	for _, prod := range products {
		var v Variant
		if len(prod.Variants) > 0 {
			v = prod.Variants[0]
		}

		sku := v.SKU
		if sku == "" {
			sku = "SECONDARY-" + string(prod.ID)
		}
		vendor := prod.Vendor
		if vendor == "" {
			vendor = DefaultVendor
		}
		category := prod.ProductType
		if category == "" {
			category = models.DefaultCategory
		}
		updated := now
		if t, err := time.Parse(time.RFC3339, prod.UpdatedAt); err == nil {
			updated = t
		}

		r := models.InventoryRecord{
			ID:              string(prod.ID),
			SKU:             sku,
			ProductName:     prod.Title,
			Vendor:          vendor,
			Category:        category,
			CurrentStock:    v.InventoryQuantity,
			Price:           v.Price.Decimal,
			Cost:            decimal.Zero,
			ReorderPoint:    models.DefaultReorderPoint,
			IsMasterProduct: classifier.IsMasterProduct(prod.Title, sku, nil),
			Source:          models.SourceSecondary,
			DataSource:      models.DataSourceReal,
			LastUpdated:     updated,
		}
		r.Normalize()
		records = append(records, r)
	}
	return records
}

// ---- HTTP helper ----

func (p *StorefrontProvider) doRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if p.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.accessToken)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("storefront API error (status %d): %s", resp.StatusCode, string(respBytes))
	}

	if out != nil {
		if err := json.Unmarshal(respBytes, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
