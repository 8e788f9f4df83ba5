package storefront_api

import (
	"context"
	"net/http"
	"storefront-service/internal/core/domain"
	"storefront-service/internal/core/port"
)

// RecordVisit реализует VisitRecorderPort.
func (c *Client) RecordVisit(ctx context.Context, visit domain.Visit) error {
	logger := c.logger(ctx, "RecordVisit").WithFields(port.Fields{"item_id": visit.ItemID, "item_type": visit.ItemType})

	_, err := c.call(ctx, logger, http.MethodPost, "/visits/", nil, visitRequest{
		ItemID:    visit.ItemID,
		ItemType:  visit.ItemType,
		Timestamp: visit.Timestamp,
	}, "")
	return err
}
