package dialog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation limits for admin form inputs.
const (
	ProductNameMin    = 5
	ProductNameMax    = 150
	DescriptionMin    = 5
	KeyNameMax        = 150
	KeyValueMax       = 1500
	BannerCaptionMax  = 1024
	ProductPriceScale = 2
)

// ValidateProductName checks the product name length bounds.
func ValidateProductName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if n := len([]rune(s)); n < ProductNameMin || n > ProductNameMax {
		return "", fmt.Errorf("name must be %d to %d characters long", ProductNameMin, ProductNameMax)
	}
	return s, nil
}

// ValidateDescription checks the product description minimum length.
func ValidateDescription(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len([]rune(s)) < DescriptionMin {
		return "", fmt.Errorf("description must be at least %d characters long", DescriptionMin)
	}
	return s, nil
}

// ParsePrice parses a positive decimal price.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price must be a number, e.g. 9.99")
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("price must be greater than zero")
	}
	return d.Round(ProductPriceScale), nil
}

// ValidateKeyName checks the key name length bound.
func ValidateKeyName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("key name is required")
	}
	if len([]rune(s)) > KeyNameMax {
		return "", fmt.Errorf("key name must be at most %d characters long", KeyNameMax)
	}
	return s, nil
}

// ValidateKeyValue checks the inline key payload length bound.
func ValidateKeyValue(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("key value is required")
	}
	if len([]rune(s)) > KeyValueMax {
		return "", fmt.Errorf("key value must be at most %d characters long", KeyValueMax)
	}
	return s, nil
}
