package clients

type CreateClientRequest struct {
	Code    string  `json:"code" validate:"required,max=50"`
	Name    string  `json:"name" validate:"required,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Country string  `json:"country" validate:"required,len=2"`
	Notes   *string `json:"notes,omitempty"`
}

type UpdateClientRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Country   *string `json:"country,omitempty" validate:"omitempty,len=2"`
	ManagerID *int64  `json:"manager_id,omitempty" validate:"omitempty,gt=0"`
	Notes     *string `json:"notes,omitempty"`
}

type ListClientsRequest struct {
	TenantID int64   `json:"tenant_id" validate:"required,gt=0"`
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=active archived"`
	Search   *string `json:"search,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int     `json:"offset" validate:"gte=0"`
}
