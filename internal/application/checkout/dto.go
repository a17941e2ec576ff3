package checkout

// ConfirmationStatus reports the outcome of a payment confirmation attempt
type ConfirmationStatus string

const (
	// ConfirmationSuccess means the payment is verified and an order exists
	ConfirmationSuccess ConfirmationStatus = "success"
	// ConfirmationPending means the payment is not (yet) completed
	ConfirmationPending ConfirmationStatus = "pending"
)

// CreateCheckoutRequest carries everything needed to open a checkout session
type CreateCheckoutRequest struct {
	SKU             string  `json:"sku" binding:"required"`
	ProductName     string  `json:"product_name" binding:"required"`
	Cost            float64 `json:"cost" binding:"required,price"`
	Price           float64 `json:"price" binding:"required,price"`
	SupplierURL     string  `json:"supplier_url" binding:"required,url"`
	ImageURL        string  `json:"image_url" binding:"omitempty,url"`
	CustomerName    string  `json:"customer_name" binding:"required"`
	CustomerEmail   string  `json:"customer_email" binding:"required,email"`
	ShippingStreet  string  `json:"shipping_street" binding:"required"`
	ShippingCity    string  `json:"shipping_city" binding:"required"`
	ShippingState   string  `json:"shipping_state" binding:"required"`
	ShippingZip     string  `json:"shipping_zip" binding:"required"`
	ShippingCountry string  `json:"shipping_country"`
	SuccessURL      string  `json:"success_url" binding:"omitempty,url"`
	CancelURL       string  `json:"cancel_url" binding:"omitempty,url"`
}

// CheckoutResponse points the buyer at the hosted payment page
type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// ConfirmationResult is returned to the buyer-facing success page.
// OrderID, AmountPaid and Profit are only set on success.
type ConfirmationResult struct {
	Status     ConfirmationStatus `json:"status"`
	OrderID    string             `json:"order_id,omitempty"`
	AmountPaid float64            `json:"amount_paid,omitempty"`
	Profit     float64            `json:"profit,omitempty"`
}
