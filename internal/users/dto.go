package users

type CreateAccountRequest struct {
	Email    string `json:"email" validate:"required,email,max=200"`
	Name     string `json:"name" validate:"required,max=200"`
	Password string `json:"password" validate:"required,min=12"`
	Role     string `json:"role" validate:"required"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type ListAccountsRequest struct {
	TenantID int64 `json:"tenant_id" validate:"required,gt=0"`
	Limit    int   `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int   `json:"offset" validate:"gte=0"`
}
