package dto

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"` // client / freelancer
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateProjectRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Budget      string  `json:"budget"`
	Deadline    *string `json:"deadline,omitempty"` // RFC 3339
}

type PlaceBidRequest struct {
	ProjectID    string  `json:"project_id"`
	Amount       string  `json:"amount"`
	Proposal     *string `json:"proposal,omitempty"`
	DeliveryDays int     `json:"delivery_days"`
}

type CreateMilestoneRequest struct {
	ContractID  string  `json:"contract_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Amount      *string `json:"amount,omitempty"`
	DueDate     *string `json:"due_date,omitempty"` // RFC 3339
}

type UpdateMilestoneStatusRequest struct {
	Status string `json:"status"` // in_progress / completed
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type InitiateDepositRequest struct {
	Amount string `json:"amount"`
}

// ConfirmDepositRequest carries the gateway callback fields. The credited
// amount comes from the recorded order, not the request.
type ConfirmDepositRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

type WithdrawRequest struct {
	Amount string `json:"amount"`
}
