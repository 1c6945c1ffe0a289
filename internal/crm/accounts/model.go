package accounts

import "time"

// Account is a company or household the business does work for.
type Account struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Industry     *string   `json:"industry,omitempty"`
	Website      *string   `json:"website,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Email        *string   `json:"email,omitempty"`
	AddressLine1 *string   `json:"address_line1,omitempty"`
	AddressLine2 *string   `json:"address_line2,omitempty"`
	City         *string   `json:"city,omitempty"`
	State        *string   `json:"state,omitempty"`
	PostalCode   *string   `json:"postal_code,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedBy    int64     `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
