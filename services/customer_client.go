package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yashrajoria/order-saga-service/models"
)

type CustomerProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CustomerGateway is the synchronous contract with the customer service.
type CustomerGateway interface {
	GetCustomer(ctx context.Context, customerID string) (*CustomerProfile, error)
	GetAddresses(ctx context.Context, customerID string) ([]models.Address, error)
}

// CustomerClient communicates with the customer service via HTTP
type CustomerClient struct {
	gatewayClient
}

func NewCustomerClient(baseURL, token string) *CustomerClient {
	return &CustomerClient{gatewayClient: newGatewayClient(baseURL, token)}
}

func (c *CustomerClient) GetCustomer(ctx context.Context, customerID string) (*CustomerProfile, error) {
	var profile CustomerProfile
	path := fmt.Sprintf("/users/internal/%s", customerID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *CustomerClient) GetAddresses(ctx context.Context, customerID string) ([]models.Address, error) {
	var addresses []models.Address
	path := fmt.Sprintf("/users/internal/%s/addresses", customerID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}
