package catalog

import "github.com/shopspring/decimal"

// Product mirrors one row of the products table. The storefront owns the
// table; this service only reads it to price and name line items.
type Product struct {
	ProductID string `dynamodbav:"product_id"` // PK
	Name      string `dynamodbav:"name"`
	Price     string `dynamodbav:"price"` // 2-decimal string
	HasSizes  bool   `dynamodbav:"has_sizes"`
}

// PriceDecimal parses the stored price for arithmetic.
func (p *Product) PriceDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(p.Price)
}
