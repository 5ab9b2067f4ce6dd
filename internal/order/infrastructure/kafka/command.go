package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	catalogapp "github.com/dmehra2102/order-consistency-engine/internal/catalog/application"
	customerapp "github.com/dmehra2102/order-consistency-engine/internal/customer/application"
	customer "github.com/dmehra2102/order-consistency-engine/internal/customer/domain"
	"github.com/dmehra2102/order-consistency-engine/internal/order/application"
	"github.com/dmehra2102/order-consistency-engine/internal/order/domain"
	"github.com/dmehra2102/order-consistency-engine/pkg/fault"
)

const (
	CommandPlaceOrder       = "place_order"
	CommandCancelOrder      = "cancel_order"
	CommandSelectPayment    = "select_payment"
	CommandAdvanceOrder     = "advance_order"
	CommandRegisterCustomer = "register_customer"
	CommandAddAddress       = "add_address"
	CommandAddProduct       = "add_product"
)

var ErrMalformedCommand = fault.New(fault.Validation, "malformed command")

// Command is the wire shape of an inbound command. Tags and commandRules
// only check shape; business rules stay in the domain.
type Command struct {
	ID         string        `json:"command_id"`
	Type       string        `json:"type" validate:"required,oneof=place_order cancel_order select_payment advance_order register_customer add_address add_product"`
	CustomerID string        `json:"customer_id"`
	OrderID    string        `json:"order_id"`
	Items      []CommandItem `json:"items" validate:"dive"`
	Payment    *Payment      `json:"payment" validate:"omitempty"`
	Target     string        `json:"target_status"`
	Customer   *Customer     `json:"customer" validate:"omitempty"`
	Address    *Address      `json:"address" validate:"omitempty"`
	Product    *Product      `json:"product" validate:"omitempty"`
}

type CommandItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"`
}

type Payment struct {
	Kind       string `json:"kind" validate:"required,oneof=credit_card cash_on_delivery digital_wallet"`
	CardNumber string `json:"card_number" validate:"required_if=Kind credit_card"`
	Expiry     string `json:"expiry" validate:"required_if=Kind credit_card"`
	AccountID  string `json:"account_id" validate:"required_if=Kind digital_wallet"`
}

type Customer struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Rank     string `json:"rank" validate:"required"`
}

type Address struct {
	PostalCode string `json:"postal_code" validate:"required"`
	Prefecture string `json:"prefecture" validate:"required"`
	City       string `json:"city"`
	Street     string `json:"street"`
}

type Product struct {
	ID        string `json:"product_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	UnitPrice int64  `json:"unit_price"`
	Stock     int    `json:"stock"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(commandRules, Command{})
	return v
}

// commandRules reports the fields each command type cannot do without.
func commandRules(sl validator.StructLevel) {
	c := sl.Current().Interface().(Command)
	need := func(present bool, field any, name string) {
		if !present {
			sl.ReportError(field, name, name, "required_for", c.Type)
		}
	}
	switch c.Type {
	case CommandPlaceOrder:
		need(c.CustomerID != "", c.CustomerID, "CustomerID")
	case CommandCancelOrder:
		need(c.OrderID != "", c.OrderID, "OrderID")
	case CommandSelectPayment:
		need(c.OrderID != "", c.OrderID, "OrderID")
		need(c.Payment != nil, c.Payment, "Payment")
	case CommandAdvanceOrder:
		need(c.OrderID != "", c.OrderID, "OrderID")
		need(c.Target != "", c.Target, "Target")
	case CommandRegisterCustomer:
		need(c.Customer != nil, c.Customer, "Customer")
	case CommandAddAddress:
		need(c.CustomerID != "", c.CustomerID, "CustomerID")
		need(c.Address != nil, c.Address, "Address")
	case CommandAddProduct:
		need(c.Product != nil, c.Product, "Product")
	}
}

func decodeCommand(raw []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return cmd, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}
	if err := validate.Struct(cmd); err != nil {
		return cmd, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}
	return cmd, nil
}

func (p *Payment) method() (domain.PaymentMethod, error) {
	switch domain.PaymentKind(p.Kind) {
	case domain.KindCreditCard:
		return domain.NewCreditCard(p.CardNumber, p.Expiry)
	case domain.KindDigitalWallet:
		return domain.NewDigitalWallet(p.AccountID)
	case domain.KindCashOnDelivery:
		return domain.CashOnDelivery{}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPaymentMethod, p.Kind)
}

func (c Command) placeOrder() (application.PlaceOrderCommand, error) {
	out := application.PlaceOrderCommand{
		CustomerID: c.CustomerID,
		Items:      make([]application.PlaceOrderItem, 0, len(c.Items)),
	}
	for _, it := range c.Items {
		out.Items = append(out.Items, application.PlaceOrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	if c.Payment != nil {
		m, err := c.Payment.method()
		if err != nil {
			return out, err
		}
		out.Payment = m
	}
	if c.ID != "" {
		out.Headers = map[string]string{"command_id": c.ID}
	}
	return out, nil
}

func (c Command) registerCustomer() customerapp.RegisterCommand {
	return customerapp.RegisterCommand{
		ID:       c.CustomerID,
		Name:     c.Customer.Name,
		Email:    c.Customer.Email,
		Password: c.Customer.Password,
		Rank:     c.Customer.Rank,
	}
}

func (c Command) address() (customer.Address, error) {
	return customer.NewAddress(c.Address.PostalCode, c.Address.Prefecture, c.Address.City, c.Address.Street)
}

func (c Command) addProduct() catalogapp.AddProductCommand {
	return catalogapp.AddProductCommand{
		ID:        c.Product.ID,
		Name:      c.Product.Name,
		UnitPrice: c.Product.UnitPrice,
		Stock:     c.Product.Stock,
	}
}
