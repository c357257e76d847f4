package engine

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/dcaf-go/dcaf/internal/version"
	"github.com/dcaf-go/dcaf/storage/model"
	"github.com/dcaf-go/dcaf/wire"
)

// Notifier informs a resource server about a revoked ticket
type Notifier interface {
	NotifyRevocation(ctx context.Context, revocation model.RevocationTicket) error
}

// HTTPNotifier posts revoked tickets to the revoke endpoint of the resource
// server the ticket was issued for
type HTTPNotifier struct {
	client *resty.Client
	scheme string
}

// NewHTTPNotifier creates a new HTTPNotifier; scheme defaults to https
func NewHTTPNotifier(scheme string, timeout time.Duration, tlsConfig *tls.Config) *HTTPNotifier {
	if scheme == "" {
		scheme = "https"
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", version.UserAgent("sam")).
		SetHeader("Content-Type", wire.ContentType)
	if tlsConfig != nil {
		client.SetTLSClientConfig(tlsConfig)
	}
	return &HTTPNotifier{
		client: client,
		scheme: scheme,
	}
}

// RevokeURL returns the url revocations for server are posted to
func (n *HTTPNotifier) RevokeURL(server string) string {
	return n.scheme + "://" + server + "/revoke"
}

// NotifyRevocation implements the Notifier interface
func (n *HTTPNotifier) NotifyRevocation(ctx context.Context, revocation model.RevocationTicket) error {
	body, err := wire.Marshal(revocation.Ticket.Grant().Stripped())
	if err != nil {
		return err
	}
	res, err := n.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(n.RevokeURL(revocation.ServerHost))
	if err != nil {
		return errors.Wrap(err, "could not deliver revocation")
	}
	if !res.IsSuccess() {
		return errors.Errorf("server %s answered revocation with %s", revocation.ServerHost, res.Status())
	}
	return nil
}
