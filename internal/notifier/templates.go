package notifier

import "fmt"

// Message is a rendered notification ready for delivery.
type Message struct {
	Subject string
	Body    string
}

// WelcomeEmail greets a freshly registered user.
func WelcomeEmail(userName string) Message {
	return Message{
		Subject: "Welcome to GrocEazy!",
		Body: fmt.Sprintf(`Hello %s,

Welcome to GrocEazy! We are thrilled to have you on board.
Explore our fresh groceries and enjoy seamless shopping.

Happy Shopping,
The GrocEazy Team
`, userName),
	}
}

// OrderConfirmedEmail confirms a successfully placed order.
func OrderConfirmedEmail(userName, orderID string, total float64) Message {
	return Message{
		Subject: fmt.Sprintf("Order Confirmed: #%s", orderID),
		Body: fmt.Sprintf(`Hello %s,

Your order #%s has been confirmed!
Total Amount: %.2f

We will notify you when it ships.

Regards,
GrocEazy
`, userName, orderID, total),
	}
}

// OrderStatusUpdateEmail tells a customer their order moved to a new status.
func OrderStatusUpdateEmail(userName, orderID, status string) Message {
	hint := "Track your order in the app."
	if status == "Out for Delivery" {
		hint = "Get ready!"
	}
	return Message{
		Subject: fmt.Sprintf("Order Update: #%s is %s", orderID, status),
		Body: fmt.Sprintf(`Hello %s,

Your order #%s is now %s.

%s

Regards,
GrocEazy
`, userName, orderID, status, hint),
	}
}

// OrderCancelledEmail confirms a cancellation.
func OrderCancelledEmail(userName, orderID string) Message {
	return Message{
		Subject: fmt.Sprintf("Order Cancelled: #%s", orderID),
		Body: fmt.Sprintf(`Hello %s,

Your order #%s has been cancelled.
If you have any questions, please contact support.

Regards,
GrocEazy
`, userName, orderID),
	}
}

// LowStockEmail alerts managers that a product needs restocking.
func LowStockEmail(productName string, currentStock int, productID string) Message {
	return Message{
		Subject: fmt.Sprintf("Low Stock Alert: %s", productName),
		Body: fmt.Sprintf(`Alert: Low Stock for Product

Product: %s
ID: %s
Current Stock: %d

Please restock immediately.

Regards,
GrocEazy System
`, productName, productID, currentStock),
	}
}
