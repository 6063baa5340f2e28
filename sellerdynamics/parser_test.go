package sellerdynamics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/inventory-service/models"
	"github.com/yashrajoria/inventory-service/sellerdynamics"
)

func TestParse_SingleAndRepeatedChildren(t *testing.T) {
	root, err := sellerdynamics.Parse([]byte(`<Root><One>1</One><Many>a</Many><Many>b</Many><Nested><Leaf>x</Leaf></Nested></Root>`))
	require.NoError(t, err)

	r := root.Child("Root")
	require.NotNil(t, r)
	assert.Equal(t, "1", r.Text("One"))
	assert.IsType(t, "", r["One"])
	assert.Len(t, r["Many"], 2)
	assert.Len(t, r.All("One"), 1)
	assert.Len(t, r.All("Many"), 2)
	assert.Equal(t, "x", r.Path("Nested").Text("Leaf"))
	assert.Nil(t, r.Child("Missing"))
	assert.Empty(t, r.All("Missing"))
}

func TestParse_DropsNamespacePrefixesAndKeepsAttributes(t *testing.T) {
	root, err := sellerdynamics.Parse([]byte(`<s:Envelope xmlns:s="urn:x"><s:Body><Item code="7">text</Item></s:Body></s:Envelope>`))
	require.NoError(t, err)

	item := root.Path("Envelope", "Body", "Item")
	require.NotNil(t, item)
	assert.Equal(t, "text", root.Path("Envelope", "Body").Text("Item"))
	assert.Equal(t, map[string]string{"code": "7"}, item["$"])
}

func TestParse_Malformed(t *testing.T) {
	for _, doc := range []string{"", "<open>", "not xml at all"} {
		_, err := sellerdynamics.Parse([]byte(doc))
		var pe *sellerdynamics.ParseError
		assert.True(t, errors.As(err, &pe), doc)
	}
}

func TestParseResult_SingleStockLevelCoercedToList(t *testing.T) {
	doc := soapResponse(sellerdynamics.OpGetStockLevels, `<IsError>false</IsError>
		<StockLevels>
		  <StockLevelItem>
		    <SKU>BG-EVOLVE-WHITE</SKU>
		    <ProductTitle>  Evolve Socket  </ProductTitle>
		    <Quantity>25</Quantity>
		    <AllocatedQuantity>5</AllocatedQuantity>
		    <UnitPrice>12.50</UnitPrice>
		    <UnitCost>7.25</UnitCost>
		    <Brand>BG</Brand>
		    <Category>Sockets</Category>
		    <DateCreated>2024-03-01T10:00:00</DateCreated>
		  </StockLevelItem>
		</StockLevels>`)

	result, err := sellerdynamics.ParseResult([]byte(doc), sellerdynamics.OpGetStockLevels)
	require.NoError(t, err)
	require.NoError(t, result.Err())

	levels := result.StockLevels()
	require.Len(t, levels, 1)

	l := levels[0]
	assert.Equal(t, "BG-EVOLVE-WHITE", l.SKU)
	assert.Equal(t, "Evolve Socket", l.ProductName)
	assert.Equal(t, 25, l.Quantity)
	assert.Equal(t, 5, l.Allocated)
	assert.True(t, decimal.RequireFromString("12.50").Equal(l.Price))
	assert.True(t, decimal.RequireFromString("7.25").Equal(l.Cost))
	assert.Equal(t, "BG", l.Vendor)
	assert.Equal(t, "Sockets", l.Category)
	assert.Nil(t, l.IsKit)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), l.CreatedAt)
}

func TestParseResult_StockLevelLayoutAndDefaults(t *testing.T) {
	doc := soapResponse(sellerdynamics.OpGetStockLevels, `<StockLevels>
		<StockLevel><SKU>A-1</SKU><Quantity>abc</Quantity><IsKit>true</IsKit></StockLevel>
		<StockLevel><SKU>B</SKU><Title>Bee</Title><Quantity>4</Quantity><QuantityAllocated>1</QuantityAllocated></StockLevel>
	</StockLevels>`)

	result, err := sellerdynamics.ParseResult([]byte(doc), sellerdynamics.OpGetStockLevels)
	require.NoError(t, err)

	levels := result.StockLevels()
	require.Len(t, levels, 2)
	assert.Equal(t, "A-1", levels[0].ProductName)
	assert.Equal(t, 0, levels[0].Quantity)
	assert.Equal(t, models.UnknownVendor, levels[0].Vendor)
	assert.Equal(t, models.DefaultCategory, levels[0].Category)
	require.NotNil(t, levels[0].IsKit)
	assert.True(t, *levels[0].IsKit)
	assert.True(t, levels[0].CreatedAt.IsZero())
	assert.Equal(t, "Bee", levels[1].ProductName)
}

func TestParseResult_BusinessErrorIsData(t *testing.T) {
	doc := soapResponse(sellerdynamics.OpGetStockLevels, `<IsError>true</IsError><ErrorMessage>Invalid retailer</ErrorMessage>`)

	result, err := sellerdynamics.ParseResult([]byte(doc), sellerdynamics.OpGetStockLevels)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Empty(t, result.StockLevels())

	var pe *sellerdynamics.ProtocolError
	require.True(t, errors.As(result.Err(), &pe))
	assert.Equal(t, "Invalid retailer", pe.Message)
}

func TestParseResult_EmptyResult(t *testing.T) {
	doc := soapResponse(sellerdynamics.OpGetStockLevels, "")

	result, err := sellerdynamics.ParseResult([]byte(doc), sellerdynamics.OpGetStockLevels)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Empty(t, result.StockLevels())
}

func TestParseResult_UnexpectedShape(t *testing.T) {
	doc := soapResponse(sellerdynamics.OpGetOrders, "")

	_, err := sellerdynamics.ParseResult([]byte(doc), sellerdynamics.OpGetStockLevels)
	var pe *sellerdynamics.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, sellerdynamics.OpGetStockLevels, pe.Operation)

	_, err = sellerdynamics.ParseResult([]byte("<html>oops</html>"), sellerdynamics.OpGetStockLevels)
	assert.True(t, errors.As(err, &pe))
}

func TestStockLevelRecord(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	level := sellerdynamics.StockLevel{
		SKU:         "CABLE-10X",
		ProductName: "Cable 10x",
		Vendor:      "Acme",
		Category:    "Cables",
		Quantity:    8,
		Allocated:   3,
		Price:       decimal.RequireFromString("4.99"),
	}

	r := level.Record(7, now)
	assert.Equal(t, "SD-CABLE-10X-7", r.ID)
	assert.Equal(t, 5, r.AvailableStock)
	assert.False(t, r.IsMasterProduct)
	assert.Equal(t, models.ProductTypeKit, r.ProductType)
	assert.Equal(t, models.SourceUpstream, r.Source)
	assert.Equal(t, models.DefaultReorderPoint, r.ReorderPoint)
	assert.Equal(t, now, r.LastUpdated)

	notKit := false
	level.IsKit = &notKit
	assert.True(t, level.Record(0, now).IsMasterProduct)
}

func TestParseResult_Orders(t *testing.T) {
	doc := soapResponse(sellerdynamics.OpGetCustomerOrders, `<IsError>false</IsError>
		<Orders>
		  <Order>
		    <OrderId>1001</OrderId>
		    <OrderDate>2024-05-05T12:00:00Z</OrderDate>
		    <TotalAmount>59.90</TotalAmount>
		    <Customer><FirstName>Sam</FirstName><Email>sam@example.com</Email></Customer>
		    <Items><Item><SKU>A</SKU><Title>Thing</Title><Quantity>2</Quantity><UnitPrice>29.95</UnitPrice></Item></Items>
		  </Order>
		</Orders>`)

	result, err := sellerdynamics.ParseResult([]byte(doc), sellerdynamics.OpGetCustomerOrders)
	require.NoError(t, err)

	orders := result.Orders(time.Now())
	require.Len(t, orders, 1)

	o := orders[0]
	assert.Equal(t, "1001", o.ID)
	assert.Equal(t, "#1001", o.OrderNumber)
	assert.Equal(t, "pending", o.FinancialStatus)
	assert.Equal(t, "unfulfilled", o.FulfillmentStatus)
	assert.True(t, decimal.RequireFromString("59.90").Equal(o.TotalPrice))
	assert.Equal(t, "Sam", o.Customer.FirstName)
	assert.Equal(t, "Customer", o.Customer.LastName)
	assert.Equal(t, "sam@example.com", o.Customer.Email)
	require.NotNil(t, o.CreatedAt)
	assert.Equal(t, 2024, o.CreatedAt.Year())
	require.Len(t, o.LineItems, 1)
	assert.Equal(t, 2, o.LineItems[0].Quantity)
	assert.Equal(t, "A", o.LineItems[0].SKU)
}
