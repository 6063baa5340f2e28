// Package fixtures provides the placeholder dataset served when the upstream
// platform is unreachable, and a deterministic record generator for tests.
package fixtures

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yashrajoria/inventory-service/classifier"
	"github.com/yashrajoria/inventory-service/models"
)

type seed struct {
	sku, name, vendor, category string
	current, allocated          int
	price, cost                 string
	reorder                     int
}

var placeholderSeeds = []seed{
	{"BG-NAB12", "BG Electrical 1-Gang 2-Way Metal Antique Brass Light Switch", "BG Electrical", "Lighting Controls", 96, 5, "3.10", "1.55", 10},
	{"WAGO-51253135", "WAGO 512-53135 3-Way Terminal Block", "WAGO", "Terminal Blocks", 150, 10, "2.50", "1.25", 25},
	{"GRID-SWITCH-1G", "Grid Switch 1-Gang 2-Way White", "Grid Systems", "Grid Switches", 85, 8, "4.50", "2.25", 15},
	{"BG-NAB12-10X", "BG Electrical Light Switch 10x Trade Pack", "BG Electrical", "Lighting Controls", 12, 2, "28.00", "15.50", 10},
}

// Placeholder returns a small fixed set of upstream-shaped records tagged as
// mock data.
func Placeholder() []models.InventoryRecord {
	now := time.Now().UTC()
	records := make([]models.InventoryRecord, 0, len(placeholderSeeds))
	for i, s := range placeholderSeeds {
		r := models.InventoryRecord{
			ID:              fmt.Sprintf("SD-%s-%03d", s.sku, i+1),
			SKU:             s.sku,
			ProductName:     s.name,
			Vendor:          s.vendor,
			Category:        s.category,
			CurrentStock:    s.current,
			AllocatedStock:  s.allocated,
			Price:           decimal.RequireFromString(s.price),
			Cost:            decimal.RequireFromString(s.cost),
			ReorderPoint:    s.reorder,
			IsMasterProduct: classifier.IsMasterProduct(s.name, s.sku, nil),
			Source:          models.SourceUpstream,
			DataSource:      models.DataSourceMock,
			LastUpdated:     now,
		}
		r.Normalize()
		records = append(records, r)
	}
	return records
}

var (
	vendors    = []string{"BG-EVOLVE", "BG-NEXUS", "WAGO", "Astroflame", "Aqualisa", "Masterplug"}
	categories = []string{"Electrical", "Lighting", "Security", "HVAC", "Plumbing", "General"}
)

// Generate builds n deterministic records for source. Every fourth record is
// a multi-pack kit; the rest are master products.
func Generate(n int, source string, now time.Time) []models.InventoryRecord {
	prefix := "SD"
	if source == models.SourceSecondary {
		prefix = "SEC"
	}

	records := make([]models.InventoryRecord, 0, n)
	for i := 0; i < n; i++ {
		vendor := vendors[i%len(vendors)]
		category := categories[i%len(categories)]
		name := fmt.Sprintf("%s %s Product %d", vendor, category, i+1)
		sku := fmt.Sprintf("%s-%s-%s", prefix, strings.ToUpper(category), letters(i))
		if i%4 == 3 {
			name += " 5x Pack"
			sku += "-5X"
		}

		r := models.InventoryRecord{
			ID:              fmt.Sprintf("%s-%d", prefix, i),
			SKU:             sku,
			ProductName:     name,
			Vendor:          vendor,
			Category:        category,
			CurrentStock:    10 + i%90,
			AllocatedStock:  i % 7,
			Price:           decimal.NewFromInt(int64(20 + i%80)),
			Cost:            decimal.NewFromInt(int64(10 + i%40)),
			ReorderPoint:    models.DefaultReorderPoint,
			IsMasterProduct: classifier.IsMasterProduct(name, sku, nil),
			Source:          source,
			DataSource:      models.DataSourceReal,
			LastUpdated:     now,
		}
		r.Normalize()
		records = append(records, r)
	}
	return records
}

// letters encodes i as a base-26 letter string so generated SKUs never end
// in a dash-number suffix.
func letters(i int) string {
	s := ""
	for {
		s = string(rune('A'+i%26)) + s
		i = i/26 - 1
		if i < 0 {
			return s
		}
	}
}
