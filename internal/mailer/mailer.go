package mailer

import "embed"

const (
	FromName                  = "Storefront"
	maxRetires                = 3
	OrderConfirmationTemplate = "order_confirmation.tmpl"
	OrderStatusTemplate       = "order_status.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}

// NopClient is wired when no SMTP host is configured.
type NopClient struct{}

func (NopClient) Send(string, string, string, any) (int, error) { return 0, nil }
