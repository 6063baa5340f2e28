package sellerdynamics_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yashrajoria/inventory-service/sellerdynamics"
)

func soapResponse(operation, result string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <soap:Body>
    <%[1]sResponse xmlns="https://my.sellerdynamics.com/">
      <%[1]sResult>%[2]s</%[1]sResult>
    </%[1]sResponse>
  </soap:Body>
</soap:Envelope>`, operation, result)
}

func stockItem(sku string, qty, allocated int) string {
	return fmt.Sprintf(`<StockLevelItem><SKU>%s</SKU><ProductName>Product %s</ProductName><Quantity>%d</Quantity><QuantityAllocated>%d</QuantityAllocated><Price>9.99</Price></StockLevelItem>`,
		sku, sku, qty, allocated)
}

func stockPage(items ...string) string {
	return soapResponse(sellerdynamics.OpGetStockLevels,
		"<IsError>false</IsError><StockLevels>"+strings.Join(items, "")+"</StockLevels>")
}

var pageNumberRe = regexp.MustCompile(`<pageNumber>(\d+)</pageNumber>`)

func requestedPage(body string) int {
	m := pageNumberRe.FindStringSubmatch(body)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// upstreamServer serves total stock items split into pages of pageSize.
type upstreamServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []string
	actions  []string
}

func newUpstreamServer(t *testing.T, total, pageSize int) *upstreamServer {
	t.Helper()
	us := &upstreamServer{}
	us.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body := string(b)
		us.mu.Lock()
		us.requests = append(us.requests, body)
		us.actions = append(us.actions, r.Header.Get("SOAPAction"))
		us.mu.Unlock()

		page := requestedPage(body)
		var items []string
		for i := (page - 1) * pageSize; i < page*pageSize && i < total; i++ {
			items = append(items, stockItem(fmt.Sprintf("SKU-%04d", i), 10, 2))
		}
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		_, _ = io.WriteString(w, stockPage(items...))
	}))
	t.Cleanup(us.Close)
	return us
}

func (us *upstreamServer) requestCount() int {
	us.mu.Lock()
	defer us.mu.Unlock()
	return len(us.requests)
}

func testConfig(endpoint string) sellerdynamics.Config {
	return sellerdynamics.Config{
		Endpoint:       endpoint,
		EncryptedLogin: "login-token",
		RetailerID:     "retailer-42",
		RetryAttempts:  3,
		BackoffBase:    time.Millisecond,
		Timeout:        2 * time.Second,
		PageSize:       100,
		MaxPages:       100,
	}
}
