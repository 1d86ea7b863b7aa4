package order

import "time"

type Status string

const (
	Pending Status = "PENDING"
	Paid    Status = "PAID"
	// Expired is only set by the opt-in sweep. A late payment still moves
	// the order to Paid.
	Expired Status = "EXPIRED"
)

type Provider string

const (
	ProviderStripe Provider = "stripe"
	ProviderPaypal Provider = "paypal"
)

// Order snapshots a purchase attempt. Amount and item prices are frozen when
// the order is created.
type Order struct {
	ID         string    `json:"id" db:"order_id"`
	UserID     string    `json:"userId" db:"user_id"`
	Amount     int       `json:"amount" db:"amount"`
	Status     Status    `json:"status" db:"status"`
	Provider   Provider  `json:"provider" db:"provider"`
	ProviderID string    `json:"providerId" db:"provider_id"`
	PaymentRef string    `json:"paymentRef,omitempty" db:"payment_ref"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
	Items      []Item    `json:"items,omitempty" db:"-"`
}

type StatusUp struct {
	ID        string    `db:"order_id"`
	Status    Status    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

type ProviderUp struct {
	ID         string    `db:"order_id"`
	ProviderID string    `db:"provider_id"`
	PaymentRef string    `db:"payment_ref"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type Item struct {
	OrderID   string    `json:"orderId" db:"order_id"`
	CourseID  string    `json:"courseId" db:"course_id"`
	Price     int       `json:"price" db:"price"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Checkout is returned to the client, which redirects to CheckoutURL.
type Checkout struct {
	OrderID     string `json:"orderId"`
	CheckoutURL string `json:"checkoutUrl"`
}

// Fulfillment describes what a completed payment changed.
type Fulfillment struct {
	OrderID   string
	UserID    string
	CourseIDs []string
	Granted   []string

	// IgnoredUserID is the requested user when it was not the order owner.
	IgnoredUserID string
}
