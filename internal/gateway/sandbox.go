package gateway

// SandboxProfile is the test card and payer charged by the sandbox payment
// route. It only works against test credentials.
type SandboxProfile struct {
	Card            Card
	PaymentMethodID string
	PayerEmail      string
}
