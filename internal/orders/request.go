package orders

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/greensolartech/storefront/internal/cart"
	pkgerrors "github.com/greensolartech/storefront/pkg/errors"
)

// CustomerFields are the checkout form inputs.
type CustomerFields struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"required,max=32"`
	Email   string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

// Trimmed returns a copy with surrounding whitespace removed.
func (c CustomerFields) Trimmed() CustomerFields {
	return CustomerFields{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Email:   strings.TrimSpace(c.Email),
		Comment: strings.TrimSpace(c.Comment),
	}
}

type OrderItem struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Image    string      `json:"image,omitempty"`
	Quantity int         `json:"quantity"`
}

// OrderRequest is the body posted to the order endpoint.
type OrderRequest struct {
	Items    []OrderItem    `json:"items"`
	Total    json.Number    `json:"total"`
	Customer CustomerFields `json:"customer"`
}

// NewOrderRequest builds the request body from a snapshot. The total is
// recomputed from the snapshot items.
func NewOrderRequest(snapshot cart.Snapshot, customer CustomerFields) OrderRequest {
	items := make([]OrderItem, 0, snapshot.Len())
	for _, it := range snapshot.Items {
		items = append(items, OrderItem{
			ID:       it.ID,
			Name:     it.Name,
			Price:    json.Number(it.Price.String()),
			Image:    it.Image,
			Quantity: it.Quantity,
		})
	}
	return OrderRequest{
		Items:    items,
		Total:    json.Number(snapshot.TotalPrice().String()),
		Customer: customer,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// ValidateCustomer checks the form fields and returns a CodeValidation error
// with per-field details.
func ValidateCustomer(c CustomerFields) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer details")
	}
	details := map[string]string{}
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = validationMessage(fieldErr)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid customer details").WithDetails(details)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}
