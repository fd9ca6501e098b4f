// Package supplier provides the Supplier catalog and supplier price lists.
package supplier

import (
	"context"
	"regexp"
	"strings"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Supplier is a vendor purchase orders are placed with.
type Supplier struct {
	entity.BaseCatalog

	// Contact is the contact person
	Contact string  `db:"contact" json:"contact"`
	Phone   *string `db:"phone" json:"phone,omitempty"`
	Email   *string `db:"email" json:"email,omitempty"`

	// TelegramID is the chat id purchase orders are sent to
	TelegramID *string `db:"telegram_id" json:"telegramId,omitempty"`
}

// NewSupplier creates an active supplier.
func NewSupplier(name, contact string) *Supplier {
	return &Supplier{
		BaseCatalog: entity.NewBaseCatalog(strings.TrimSpace(name)),
		Contact:     strings.TrimSpace(contact),
	}
}

// Validate implements entity.Validatable interface.
func (s *Supplier) Validate(_ context.Context) error {
	if strings.TrimSpace(s.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if strings.TrimSpace(s.Contact) == "" {
		return apperror.NewValidation("contact is required").WithDetail("field", "contact")
	}
	if s.Email != nil && *s.Email != "" && !emailRE.MatchString(*s.Email) {
		return apperror.NewValidation("invalid email format").WithDetail("field", "email")
	}
	return nil
}

// EmailAddress returns the email channel address, or "".
func (s *Supplier) EmailAddress() string {
	if s.Email == nil {
		return ""
	}
	return strings.TrimSpace(*s.Email)
}

// ChatID returns the chat channel address, or "".
func (s *Supplier) ChatID() string {
	if s.TelegramID == nil {
		return ""
	}
	return strings.TrimSpace(*s.TelegramID)
}

// Patch carries the optional fields of an update.
type Patch struct {
	Name       *string
	Contact    *string
	Phone      *string
	Email      *string
	TelegramID *string
	IsActive   *bool
}

// Apply copies set fields onto s.
func (p Patch) Apply(s *Supplier) {
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		s.Name = strings.TrimSpace(*p.Name)
	}
	if p.Contact != nil && strings.TrimSpace(*p.Contact) != "" {
		s.Contact = strings.TrimSpace(*p.Contact)
	}
	if p.Phone != nil {
		s.Phone = p.Phone
	}
	if p.Email != nil {
		s.Email = p.Email
	}
	if p.TelegramID != nil {
		s.TelegramID = p.TelegramID
	}
	if p.IsActive != nil {
		s.IsActive = *p.IsActive
	}
}

// Price is a supplier's current price for a product.
type Price struct {
	SupplierID id.ID       `db:"supplier_id" json:"supplierId"`
	ProductID  id.ID       `db:"product_id" json:"productId"`
	Price      types.Money `db:"price" json:"price"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updatedAt"`

	// Filled by list queries
	ProductName  string `db:"product_name" json:"productName,omitempty"`
	Unit         string `db:"unit" json:"unit,omitempty"`
	CategoryName string `db:"category_name" json:"categoryName,omitempty"`
}
