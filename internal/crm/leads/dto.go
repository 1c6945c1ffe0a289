package leads

type CreateLeadRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Company *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Source  *string `json:"source,omitempty" validate:"omitempty,max=100"`
	Notes   *string `json:"notes,omitempty"`
}

type UpdateLeadRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Company *string `json:"company,omitempty" validate:"omitempty,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Source  *string `json:"source,omitempty" validate:"omitempty,max=100"`
	Status  *string `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified lost"`
	Notes   *string `json:"notes,omitempty"`
}

type ListLeadsRequest struct {
	Status *string `json:"status,omitempty"`
	Search *string `json:"search,omitempty"`
	Limit  int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset int     `json:"offset" validate:"gte=0"`
}

// ConvertResult reports the records produced by converting a lead.
type ConvertResult struct {
	Lead      *Lead  `json:"lead"`
	ContactID int64  `json:"contact_id"`
	AccountID *int64 `json:"account_id,omitempty"`
}
