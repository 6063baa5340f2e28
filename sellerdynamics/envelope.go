package sellerdynamics

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Upstream operations with a dedicated envelope layout.
const (
	OpGetStockLevels            = "GetStockLevels"
	OpGetOrders                 = "GetOrders"
	OpGetOrderHistory           = "GetOrderHistory"
	OpGetSalesOrders            = "GetSalesOrders"
	OpGetCustomerOrders         = "GetCustomerOrders"
	OpGetCustomerOrdersExtended = "GetCustomerOrdersExtended"
	OpGetInvoices               = "GetInvoices"
	OpGetSalesReport            = "GetSalesReport"
	OpGetRetailerMarketplaces   = "GetRetailerMarketplaces"
	OpGetSettlementData         = "GetSettlementData"
	OpUpdateStockLevel          = "UpdateStockLevel"
)

const (
	stockPageSize = 100
	orderPageSize = 200

	paramLogin    = "encryptedLogin"
	paramRetailer = "retailerId"
)

var orderOperations = map[string]bool{
	OpGetOrders:                 true,
	OpGetOrderHistory:           true,
	OpGetSalesOrders:            true,
	OpGetCustomerOrders:         true,
	OpGetCustomerOrdersExtended: true,
	OpGetInvoices:               true,
}

// operations that expect an AuthHeader with the API key
var headerOperations = map[string]bool{
	OpGetSalesOrders:          true,
	OpGetSalesReport:          true,
	OpGetRetailerMarketplaces: true,
	OpGetSettlementData:       true,
}

var (
	xmlEscaper  = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
	elementName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)
)

// Params are the caller-supplied operation parameters.
type Params map[string]any

// EnvelopeBuilder renders SOAP request envelopes. Credentials always come
// from the builder's configuration; values under encryptedLogin or
// retailerId in Params are ignored.
type EnvelopeBuilder struct {
	namespace  string
	login      string
	retailerID string
	apiKey     string
}

func NewEnvelopeBuilder(cfg Config) *EnvelopeBuilder {
	cfg = cfg.withDefaults()
	return &EnvelopeBuilder{
		namespace:  cfg.Namespace,
		login:      cfg.EncryptedLogin,
		retailerID: cfg.RetailerID,
		apiKey:     cfg.APIKey,
	}
}

// Build renders the envelope for operation. Operations without a dedicated
// layout get a generic body with one element per parameter, in key order;
// slice values repeat the element and keys that are not valid XML names are
// skipped.
func (b *EnvelopeBuilder) Build(operation string, params Params) string {
	var body strings.Builder
	b.writeCredentials(&body)

	switch {
	case operation == OpGetStockLevels:
		writePaging(&body, params, stockPageSize)
	case orderOperations[operation]:
		writePaging(&body, params, orderPageSize)
	case operation == OpGetSalesReport || operation == OpGetSettlementData:
		writeElement(&body, "startDate", stringify(params["startDate"]))
		writeElement(&body, "endDate", stringify(params["endDate"]))
	case operation == OpGetRetailerMarketplaces:
	case operation == OpUpdateStockLevel:
		writeElement(&body, "sku", stringify(params["sku"]))
		writeElement(&body, "quantity", strconv.Itoa(countParam(params, "quantity")))
		writeElement(&body, "allocatedQuantity", strconv.Itoa(countParam(params, "allocatedQuantity")))
	default:
		writeGeneric(&body, params)
	}

	return b.wrap(operation, body.String())
}

func (b *EnvelopeBuilder) writeCredentials(sb *strings.Builder) {
	writeElement(sb, paramLogin, b.login)
	writeElement(sb, paramRetailer, b.retailerID)
}

func (b *EnvelopeBuilder) wrap(operation, inner string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	sb.WriteString("\n")
	sb.WriteString(`<soap:Envelope xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">`)
	if headerOperations[operation] && b.apiKey != "" {
		fmt.Fprintf(&sb, `<soap:Header><AuthHeader xmlns="%s">`, escapeXML(b.namespace))
		writeElement(&sb, "ApiKey", b.apiKey)
		sb.WriteString(`</AuthHeader></soap:Header>`)
	}
	fmt.Fprintf(&sb, `<soap:Body><%s xmlns="%s">`, operation, escapeXML(b.namespace))
	sb.WriteString(inner)
	fmt.Fprintf(&sb, `</%s></soap:Body></soap:Envelope>`, operation)
	return sb.String()
}

func writePaging(sb *strings.Builder, params Params, defaultSize int) {
	writeElement(sb, "pageNumber", strconv.Itoa(intParam(params, "pageNumber", 1)))
	writeElement(sb, "pageSize", strconv.Itoa(intParam(params, "pageSize", defaultSize)))
}

func writeGeneric(sb *strings.Builder, params Params) {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == paramLogin || k == paramRetailer || !elementName.MatchString(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := params[k]
		rv := reflect.ValueOf(v)
		if v != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
			for i := 0; i < rv.Len(); i++ {
				writeElement(sb, k, stringify(rv.Index(i).Interface()))
			}
			continue
		}
		writeElement(sb, k, stringify(v))
	}
}

func writeElement(sb *strings.Builder, name, value string) {
	sb.WriteString("<")
	sb.WriteString(name)
	sb.WriteString(">")
	sb.WriteString(escapeXML(value))
	sb.WriteString("</")
	sb.WriteString(name)
	sb.WriteString(">")
}

// intParam reads a positive integer parameter, falling back to def when the
// value is missing, malformed or below one.
func intParam(params Params, key string, def int) int {
	n, ok := parseInt(params[key])
	if !ok || n < 1 {
		return def
	}
	return n
}

// countParam reads a non-negative quantity, defaulting to zero.
func countParam(params Params, key string) int {
	n, ok := parseInt(params[key])
	if !ok || n < 0 {
		return 0
	}
	return n
}

func parseInt(v any) (int, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	}
	n, err := cast.ToIntE(v)
	return n, err == nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format(time.RFC3339)
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}

// escapeXML escapes the five XML special characters.
func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
