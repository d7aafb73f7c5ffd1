package inventory

import (
	"context"
	"fmt"

	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Alert types
const (
	AlertTypeLowStock   = "low_stock"
	AlertTypeOutOfStock = "out_of_stock"
)

// StockAlertNotifier delivers stock alerts. Delivery channels live outside this service.
type StockAlertNotifier interface {
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockAlert represents a stock level alert
type StockAlert struct {
	ShopID          string `json:"shop_id"`
	ProductID       string `json:"product_id"`
	SKU             string `json:"sku"`
	ProductName     string `json:"product_name"`
	CurrentStock    int64  `json:"current_stock"`
	Threshold       int64  `json:"threshold"`
	ReorderQuantity int64  `json:"reorder_quantity"`
	AlertType       string `json:"alert_type"`
}

// StockBelowThresholdHandler turns StockBelowThreshold events into alerts
type StockBelowThresholdHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
}

// NewStockBelowThresholdHandler creates a new handler for stock below threshold events
func NewStockBelowThresholdHandler(logger *zap.Logger) *StockBelowThresholdHandler {
	return &StockBelowThresholdHandler{
		logger: logger,
	}
}

// WithNotifier sets the notifier for sending alerts
func (h *StockBelowThresholdHandler) WithNotifier(notifier StockAlertNotifier) *StockBelowThresholdHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *StockBelowThresholdHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowThreshold}
}

// Handle processes a StockBelowThresholdEvent
func (h *StockBelowThresholdHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	thresholdEvent, ok := event.(*inventory.StockBelowThresholdEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockBelowThreshold, event.EventType())
	}

	alertType := AlertTypeLowStock
	if thresholdEvent.OutOfStock() {
		alertType = AlertTypeOutOfStock
	}

	alert := StockAlert{
		ShopID:          event.ShopID().String(),
		ProductID:       thresholdEvent.ProductID.String(),
		SKU:             thresholdEvent.SKU,
		ProductName:     thresholdEvent.ProductName,
		CurrentStock:    thresholdEvent.CurrentStock,
		Threshold:       thresholdEvent.Threshold,
		ReorderQuantity: thresholdEvent.ReorderQuantity,
		AlertType:       alertType,
	}

	h.logger.Warn("stock below threshold detected",
		zap.String("shop_id", alert.ShopID),
		zap.String("product_id", alert.ProductID),
		zap.String("sku", alert.SKU),
		zap.Int64("current_stock", alert.CurrentStock),
		zap.Int64("threshold", alert.Threshold),
		zap.String("alert_type", alertType),
	)

	if h.notifier == nil {
		return nil
	}
	// a failed delivery does not fail event handling
	if err := h.notifier.SendAlert(ctx, alert); err != nil {
		h.logger.Error("failed to send stock alert notification",
			zap.String("product_id", alert.ProductID),
			zap.Error(err),
		)
	}
	return nil
}

var _ shared.EventHandler = (*StockBelowThresholdHandler)(nil)

// LoggingStockAlertNotifier is a notifier that only logs alerts
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{
		logger: logger,
	}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(_ context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("shop_id", alert.ShopID),
		zap.String("product_id", alert.ProductID),
		zap.String("product_name", alert.ProductName),
		zap.Int64("current_stock", alert.CurrentStock),
		zap.Int64("reorder_quantity", alert.ReorderQuantity),
	)
	return nil
}

var _ StockAlertNotifier = (*LoggingStockAlertNotifier)(nil)
