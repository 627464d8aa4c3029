package payments

type CartItem struct {
	ProductID string
	Title     string
	Image     string
	Color     string
	Size      string
	Quantity  int64
	// UnitAmount is in USD.
	UnitAmount float64
}

type CheckoutRequest struct {
	CustomerID string
	Email      string
	Items      []CartItem
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Address struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

type PurchasedItem struct {
	ProductID  string
	Title      string
	Color      string
	Size       string
	Quantity   int64
	UnitAmount float64
}

// CompletedCheckout is what a paid session tells us about the order.
type CompletedCheckout struct {
	EventID      string
	SessionID    string
	CustomerID   string
	Name         string
	Email        string
	Shipping     Address
	ShippingRate string
	AmountTotal  float64
	Items        []PurchasedItem
}
