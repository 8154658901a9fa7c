package domain

import "fmt"

// ErrorKind identifies which business rule a request violated.
type ErrorKind string

const (
	KindNotFound             ErrorKind = "not_found"
	KindInsufficientStock    ErrorKind = "insufficient_stock"
	KindInvalidPaymentMethod ErrorKind = "invalid_payment_method"
	KindInvalidDiscount      ErrorKind = "invalid_discount"
	KindRefundWindowExpired  ErrorKind = "refund_window_expired"
	KindTagsRequired         ErrorKind = "tags_required"
	KindAlreadyRefunded      ErrorKind = "already_refunded"
	KindInvalidRefundAmount  ErrorKind = "invalid_refund_amount"
	KindForbidden            ErrorKind = "forbidden"
	KindInvalidRequest       ErrorKind = "invalid_request"
	KindConflict             ErrorKind = "conflict"
)

const (
	EntityCustomer = "Customer"
	EntityEmployee = "Employee"
	EntityProduct  = "Product"
	EntitySale     = "Sale"
	EntityRefund   = "Refund"
	EntitySupplier = "Supplier"
	EntityUser     = "User"
)

// Error is a business rule violation. Anything that is not an *Error is an
// infrastructure failure.
type Error struct {
	Kind        ErrorKind
	Entity      string
	ProductCode string
	Message     string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Entity)
	}
	return string(e.Kind)
}

// Is matches on kind, and on entity when the target names one, so that
// errors.Is(err, ErrNotFound) and errors.Is(err, NotFoundEntity(EntitySale))
// both work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Entity == "" || t.Entity == e.Entity
}

var (
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrInsufficientStock    = &Error{Kind: KindInsufficientStock}
	ErrInvalidPaymentMethod = &Error{Kind: KindInvalidPaymentMethod}
	ErrInvalidDiscount      = &Error{Kind: KindInvalidDiscount}
	ErrRefundWindowExpired  = &Error{Kind: KindRefundWindowExpired}
	ErrTagsRequired         = &Error{Kind: KindTagsRequired}
	ErrAlreadyRefunded      = &Error{Kind: KindAlreadyRefunded}
	ErrInvalidRefundAmount  = &Error{Kind: KindInvalidRefundAmount}
	ErrForbidden            = &Error{Kind: KindForbidden}
	ErrInvalidRequest       = &Error{Kind: KindInvalidRequest}
	ErrConflict             = &Error{Kind: KindConflict}
)

// NotFoundEntity is a matcher for errors.Is against a specific entity.
func NotFoundEntity(entity string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity}
}

func NotFound(entity string, id any) error {
	return &Error{
		Kind:    KindNotFound,
		Entity:  entity,
		Message: fmt.Sprintf("%s not found with id: %v", entity, id),
	}
}

func InsufficientStock(productCode string, available int, requested int) error {
	return &Error{
		Kind:        KindInsufficientStock,
		Entity:      EntityProduct,
		ProductCode: productCode,
		Message:     fmt.Sprintf("insufficient stock for product %s: available %d, requested %d", productCode, available, requested),
	}
}

func InvalidPaymentMethod(method string) error {
	return &Error{
		Kind:    KindInvalidPaymentMethod,
		Message: fmt.Sprintf("invalid payment method %q: must be Cash or Card", method),
	}
}

func InvalidDiscount() error {
	return &Error{Kind: KindInvalidDiscount, Message: "discount cannot be greater than total amount"}
}

func RefundWindowExpired(windowDays int) error {
	return &Error{
		Kind:    KindRefundWindowExpired,
		Message: fmt.Sprintf("refunds are only allowed within %d days of purchase", windowDays),
	}
}

func TagsRequired() error {
	return &Error{Kind: KindTagsRequired, Message: "items must have tags to be eligible for a refund"}
}

func AlreadyRefunded(saleID int64) error {
	return &Error{
		Kind:    KindAlreadyRefunded,
		Entity:  EntitySale,
		Message: fmt.Sprintf("sale %d has already been refunded", saleID),
	}
}

func InvalidRefundAmount() error {
	return &Error{
		Kind:    KindInvalidRefundAmount,
		Message: "refund amount must be greater than zero and must not exceed the sale net amount",
	}
}

func AdminRequired() error {
	return &Error{Kind: KindForbidden, Message: "only an ADMIN employee can process refunds"}
}

func Forbidden(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

func InvalidRequest(message string) error {
	return &Error{Kind: KindInvalidRequest, Message: message}
}

func Conflict(entity string, message string) error {
	return &Error{Kind: KindConflict, Entity: entity, Message: message}
}
