package app

import "time"

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type Seat struct {
	Id            int        `json:"id"`
	SeatNumber    string     `json:"seatNumber"`
	Status        string     `json:"status"`
	HeldByYou     bool       `json:"heldByYou"`
	HoldExpiresAt *time.Time `json:"holdExpiresAt,omitempty"`
}

type Quote struct {
	SeatCount  int    `json:"seatCount"`
	UnitPrice  string `json:"unitPrice"`
	TotalPrice string `json:"totalPrice"`
	Currency   string `json:"currency"`
}

type SeatMapResponse struct {
	MovieId int    `json:"movieId"`
	Title   string `json:"title"`
	Seats   []Seat `json:"seats"`
	Quote   Quote  `json:"quote"`
}

type HoldSeatsRequest struct {
	SeatIdList []int `json:"seatIdList" validate:"required,min=1,max=10,dive,gt=0"`
}

type HoldResponse struct {
	Seats []Seat `json:"seats"`
	Quote Quote  `json:"quote"`
}

type ToggleResponse struct {
	Seat  Seat  `json:"seat"`
	Held  bool  `json:"held"`
	Quote Quote `json:"quote"`
}

type CartResponse struct {
	Seats []Seat `json:"seats"`
	Quote Quote  `json:"quote"`
}

type CheckoutSessionResponse struct {
	RedirectUrl string `json:"redirectUrl"`
	Handle      string `json:"handle"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}
