package customers

// CreateCustomerRequest registers a new buyer. Code is optional; a suggestion
// is generated when empty.
type CreateCustomerRequest struct {
	Code    string  `json:"code" validate:"omitempty,max=32"`
	Name    string  `json:"name" validate:"required,max=200"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Notes   *string `json:"notes,omitempty"`
}

// UpdateCustomerRequest patches an existing customer. Nil fields are left
// untouched. TotalDebt is deliberately absent: debt only moves through the
// ledger.
type UpdateCustomerRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=500"`
	IsActive *bool   `json:"is_active,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// ListCustomersRequest filters the customer listing.
type ListCustomersRequest struct {
	IsActive *bool
	Search   *string
	Limit    int
	Offset   int
}
