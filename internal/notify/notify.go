// Package notify sends order confirmation emails through SES. Delivery is
// best-effort: callers log failures and move on, an undeliverable email never
// changes how the payment event was settled.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/mcalderon/go-checkout-reconciler/internal/aws"
	"github.com/mcalderon/go-checkout-reconciler/internal/orders"
)

// EmailNotifier sends confirmations from a single verified address.
type EmailNotifier struct {
	client aws.SESAPI
	from   string
}

// NewEmailNotifier returns a configured EmailNotifier.
func NewEmailNotifier(client aws.SESAPI, from string) *EmailNotifier {
	return &EmailNotifier{client: client, from: from}
}

// SendConfirmation emails the confirmation for an order. The recipient is
// the first non-empty of the order's email, the override supplied in the
// checkout metadata, and the profile account email.
func (n *EmailNotifier) SendConfirmation(ctx context.Context, order orders.Order, overrideEmail, profileEmail string) error {
	recipient := order.Email
	if recipient == "" {
		recipient = overrideEmail
	}
	if recipient == "" {
		recipient = profileEmail
	}
	if recipient == "" {
		return errors.New("no recipient email on order, event, or profile")
	}

	subject := fmt.Sprintf("Confirmation for Order Number %s", order.OrderNumber)
	body := fmt.Sprintf(
		"Hello %s!\n\n"+
			"This is a confirmation of your order. Your order information is below:\n\n"+
			"Order Number: %s\n"+
			"Order Date: %s\n\n"+
			"Grand Total: $%s\n\n"+
			"Your order will be shipped to %s in %s, %s.\n\n"+
			"We've got your phone number on file as %s.\n\n"+
			"If you have any questions, feel free to contact us at %s.\n\n"+
			"Thank you for your order!",
		order.FullName,
		order.OrderNumber,
		order.CreatedAt.Format("2 January 2006"),
		order.GrandTotal,
		order.StreetAddress1,
		order.TownOrCity,
		order.Country,
		order.PhoneNumber,
		n.from,
	)

	_, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &n.from,
		Destination: &sestypes.Destination{
			ToAddresses: []string{recipient},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: &subject},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: &body},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	return nil
}
