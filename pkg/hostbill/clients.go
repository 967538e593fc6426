package hostbill

import (
	"context"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
)

// ClientFilter narrows getClients. HostBill may ignore the email filter, so
// callers still compare emails themselves.
type ClientFilter struct {
	Email string
	Page  int
}

func (c *Client) GetClients(ctx context.Context, filter ClientFilter) ([]ClientRecord, error) {
	params := url.Values{}
	if email := strings.TrimSpace(filter.Email); email != "" {
		params.Set("filter[email]", email)
	}
	if filter.Page > 0 {
		params.Set("page", itoa(filter.Page))
	}
	resp, err := c.Call(ctx, MethodGetClients, params)
	if err != nil {
		return nil, err
	}
	return decodeCollection(resp, "clients", func(key string, rec *ClientRecord) {
		if rec.ID == "" {
			rec.ID = FlexString(key)
		}
	})
}

// AddClient creates a client account and returns its id.
func (c *Client) AddClient(ctx context.Context, client ClientInput) (string, error) {
	params := url.Values{}
	setIf(params, "email", client.Email)
	setIf(params, "password", client.Password)
	setIf(params, "password2", client.Password)
	setIf(params, "firstname", client.FirstName)
	setIf(params, "lastname", client.LastName)
	setIf(params, "companyname", client.CompanyName)
	setIf(params, "phonenumber", client.Phone)
	setIf(params, "address1", client.Address1)
	setIf(params, "city", client.City)
	setIf(params, "postcode", client.PostCode)
	setIf(params, "country", client.Country)
	setIf(params, "currency", client.Currency)

	resp, err := c.Call(ctx, MethodAddClient, params)
	if err != nil {
		return "", err
	}
	id := resp.String("client_id", "id", "clientid")
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeInvalidResponse, "hostbill addClient returned no client id").
			WithDetails(map[string]any{"method": MethodAddClient})
	}
	return id, nil
}
