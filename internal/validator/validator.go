// Package validator registers BudgetWise's custom validation tags, both on
// Gin's binding engine and on a standalone instance used by client code.
package validator

import (
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"budgetwise/internal/currency"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		register(v)
	}
}

// New returns a validator that reads `validate` tags and knows the custom tags.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	register(v)
	return v
}

func register(v *validator.Validate) {
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("transaction_kind", validateTransactionKind)
	_ = v.RegisterValidation("budget_period", validateBudgetPeriod)
	_ = v.RegisterValidation("investment_type", validateInvestmentType)
	_ = v.RegisterValidation("currency_code", validateCurrencyCode)
}

// decimalValue lets numeric tags such as gt=0 apply to decimal amounts.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func validateTransactionKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateBudgetPeriod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "monthly", "yearly":
		return true
	}
	return false
}

func validateInvestmentType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "sip", "stock", "mutual_fund", "crypto", "other":
		return true
	}
	return false
}

func validateCurrencyCode(fl validator.FieldLevel) bool {
	_, ok := currency.DefaultRates.Lookup(fl.Field().String())
	return ok
}
