// Package classifier decides whether a product is a master (stock-bearing)
// product or a kit built from other products.
package classifier

import (
	"regexp"
	"strings"

	"github.com/yashrajoria/inventory-service/models"
)

var (
	// a quantity token such as "10x" or "2x" anywhere in the text
	quantityToken = regexp.MustCompile(`\d+x`)
	leadingQty    = regexp.MustCompile(`^\d+x.*$`)
	dashNumber    = regexp.MustCompile(`-\d+$`)

	kitWords = []string{"kit", "bundle", "pack"}

	masterFamilies = []*regexp.Regexp{
		regexp.MustCompile(`bg-evolve`),
		regexp.MustCompile(`bg-nexus`),
		regexp.MustCompile(`custom-appliance`),
		regexp.MustCompile(`wago.*connector`),
		regexp.MustCompile(`grid-switch`),
	}
	threeWordSKU = regexp.MustCompile(`^[a-z]+-[a-z]+-[a-z]+$`)
	digitX       = regexp.MustCompile(`\dx`)
)

// IsMasterProduct classifies a product from its name and SKU. Kit signals
// win over master signals. A non-nil explicitIsKit overrides every rule.
// Without both a name and a SKU the product cannot be placed in a master
// family and is reported as a kit.
func IsMasterProduct(productName, sku string, explicitIsKit *bool) bool {
	if explicitIsKit != nil {
		return !*explicitIsKit
	}
	if productName == "" || sku == "" {
		return false
	}

	name := strings.ToLower(productName)
	code := strings.ToLower(sku)

	if isKit(name, code) {
		return false
	}
	if isMaster(name, code) {
		return true
	}
	return !quantityToken.MatchString(name) && !quantityToken.MatchString(code)
}

// ProductType maps the classification to its display label.
func ProductType(isMaster bool) string {
	if isMaster {
		return models.ProductTypeMaster
	}
	return models.ProductTypeKit
}

func isKit(name, sku string) bool {
	for _, s := range []string{name, sku} {
		if quantityToken.MatchString(s) || leadingQty.MatchString(s) {
			return true
		}
		for _, w := range kitWords {
			if strings.Contains(s, w) {
				return true
			}
		}
	}
	return dashNumber.MatchString(sku) && !strings.Contains(sku, "wago")
}

func isMaster(name, sku string) bool {
	for _, s := range []string{name, sku} {
		for _, re := range masterFamilies {
			if re.MatchString(s) {
				return true
			}
		}
		if threeWordSKU.MatchString(s) || !digitX.MatchString(s) {
			return true
		}
	}
	return false
}
