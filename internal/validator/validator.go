// Package validator provides custom validation functions for Gin's binding
// engine and for the service layer's standalone validator instances.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// tickerRegex matches exchange symbols like NVDA, BRK.B, or RDS-A.
var tickerRegex = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterWith(v)
	}
}

// RegisterWith registers the custom validators on a standalone instance.
func RegisterWith(v *validator.Validate) {
	_ = v.RegisterValidation("ticker", validateTicker)
	_ = v.RegisterValidation("confidence", validateConfidence)
}

func validateTicker(fl validator.FieldLevel) bool {
	return tickerRegex.MatchString(fl.Field().String())
}

// validateConfidence accepts probabilities strictly between 0 and 1; the
// boundary values make both VaR methods degenerate.
func validateConfidence(fl validator.FieldLevel) bool {
	c := fl.Field().Float()
	return c > 0 && c < 1
}
