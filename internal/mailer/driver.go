package mailer

import "context"

// Driver sends a single email and returns the provider-assigned email id used
// to correlate webhook events back to the stored history record.
type Driver interface {
	Send(ctx context.Context, out Outbound) (providerEmailID string, err error)
}
