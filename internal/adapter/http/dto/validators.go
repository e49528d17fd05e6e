package dto

import (
	"html"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	currencyCodeRe = regexp.MustCompile(`^[A-Za-z]{3}$`)
	amountRe       = regexp.MustCompile(`^[0-9]{1,12}(\.[0-9]{1,8})?$`)
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("currency_code", validateCurrencyCode)
		_ = v.RegisterValidation("decimal_amount", validateDecimalAmount)
	}
}

// validateCurrencyCode accepts a three-letter code in any case.
func validateCurrencyCode(fl validator.FieldLevel) bool {
	return currencyCodeRe.MatchString(strings.TrimSpace(fl.Field().String()))
}

// validateDecimalAmount accepts a non-negative plain decimal such as "12" or
// "12.345". Exponents, signs and thousands separators are rejected.
func validateDecimalAmount(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	if !amountRe.MatchString(raw) {
		return false
	}
	_, err := decimal.NewFromString(raw)
	return err == nil
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field of a struct pointer, following pointers, nested structs and slices.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		sanitizeValue(f)
	}
}

func sanitizeValue(f reflect.Value) {
	switch f.Kind() {
	case reflect.String:
		f.SetString(sanitize(f.String()))
	case reflect.Struct:
		sanitizeFields(f)
	case reflect.Ptr:
		if f.IsNil() {
			return
		}
		sanitizeValue(f.Elem())
	case reflect.Slice:
		for j := 0; j < f.Len(); j++ {
			sanitizeValue(f.Index(j))
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
