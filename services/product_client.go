package services

import (
	"context"
	"fmt"
	"net/http"
)

type ProductSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	SellerID string `json:"seller_id"`
	ImageURL string `json:"image_url"`
}

// ProductGateway is the synchronous contract with the product service.
type ProductGateway interface {
	GetProduct(ctx context.Context, productID string) (*ProductSummary, error)
}

type ProductClient struct {
	gatewayClient
}

func NewProductClient(baseURL, token string) *ProductClient {
	return &ProductClient{gatewayClient: newGatewayClient(baseURL, token)}
}

func (c *ProductClient) GetProduct(ctx context.Context, productID string) (*ProductSummary, error) {
	var product ProductSummary
	path := fmt.Sprintf("/products/internal/%s", productID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}
