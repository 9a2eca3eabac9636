package catalog

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/storefront-eng/salesync/internal/model"
)

// APISale is the wire representation of a flash sale. The service is not
// consistent about the id field name ("saleId" in push payloads, "id" in
// REST bodies), so both are accepted.
type APISale struct {
	ID                 string    `json:"id"`
	SaleID             string    `json:"saleId"`
	Name               string    `json:"name"`
	DiscountPercentage float64   `json:"discountPercentage"`
	StartTime          time.Time `json:"startTime"`
	EndTime            time.Time `json:"endTime"`
	Priority           int       `json:"priority"`
	ProductIDs         []string  `json:"productIds"`
}

// ToModel converts an APISale to the internal model.
func (a APISale) ToModel() model.Sale {
	id := a.SaleID
	if id == "" {
		id = a.ID
	}
	return model.Sale{
		ID:                 id,
		Name:               a.Name,
		DiscountPercentage: a.DiscountPercentage,
		StartTime:          a.StartTime,
		EndTime:            a.EndTime,
		Priority:           a.Priority,
		ProductIDs:         a.ProductIDs,
	}
}

// ListActiveSales fetches all currently active (running or upcoming) sales.
func (c *Client) ListActiveSales(ctx context.Context) ([]model.Sale, error) {
	var wire []APISale
	if err := c.getEnveloped(ctx, "/flash-sales/active", url.Values{}, &wire); err != nil {
		return nil, fmt.Errorf("list active sales: %w", err)
	}

	sales := make([]model.Sale, 0, len(wire))
	for _, a := range wire {
		sales = append(sales, a.ToModel())
	}
	return sales, nil
}

// GetSale fetches a single sale with its products.
func (c *Client) GetSale(ctx context.Context, saleID string) (*model.Sale, error) {
	var wire APISale
	path := "/flash-sales/" + url.PathEscape(saleID)
	if err := c.getEnveloped(ctx, path, url.Values{}, &wire); err != nil {
		return nil, fmt.Errorf("get sale %s: %w", saleID, err)
	}

	sale := wire.ToModel()
	return &sale, nil
}
