package cart

import (
	"github.com/greensolartech/storefront/api/validators"
	cartmodel "github.com/greensolartech/storefront/internal/cart"
	"github.com/greensolartech/storefront/internal/orders"
)

type addItemRequest struct {
	ID       validators.Scalar `json:"id" validate:"required,max=128"`
	Name     string            `json:"name" validate:"required,max=300"`
	Price    validators.Scalar `json:"price" validate:"required,max=64"`
	Image    string            `json:"image,omitempty" validate:"max=2048"`
	Quantity int               `json:"quantity,omitempty" validate:"min=0,max=999"`
}

func (r addItemRequest) toInput() cartmodel.ProductInput {
	return cartmodel.ProductInput{
		ID:       r.ID.String(),
		Name:     r.Name,
		Price:    r.Price.String(),
		Image:    r.Image,
		Quantity: r.Quantity,
	}
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=999"`
}

type checkoutRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Comment string `json:"comment,omitempty"`
}

func (r checkoutRequest) toCustomer() orders.CustomerFields {
	return orders.CustomerFields{
		Name:    r.Name,
		Phone:   r.Phone,
		Email:   r.Email,
		Comment: r.Comment,
	}
}
