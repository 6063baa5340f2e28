package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/yashrajoria/inventory-service/models"
	"github.com/yashrajoria/inventory-service/sellerdynamics"
	"go.uber.org/zap"
)

const DefaultOrdersLimit = 50

// orderOperations are tried in order until one returns orders.
var orderOperations = []string{
	sellerdynamics.OpGetCustomerOrders,
	sellerdynamics.OpGetCustomerOrdersExtended,
}

// OrdersService lists upstream orders.
type OrdersService interface {
	ListOrders(ctx context.Context, page, limit int) (*models.OrderPage, *ServiceError)
}

type ordersServiceImpl struct {
	upstream UpstreamSource
	logger   *zap.Logger
}

func NewOrdersService(upstream UpstreamSource, logger *zap.Logger) OrdersService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ordersServiceImpl{upstream: upstream, logger: logger}
}

// ListOrders falls through to the next operation when one is rejected by the
// upstream or comes back empty. Transport failures end the search.
func (s *ordersServiceImpl) ListOrders(ctx context.Context, page, limit int) (*models.OrderPage, *ServiceError) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultOrdersLimit
	}
	if limit > models.MaxPageLimit {
		limit = models.MaxPageLimit
	}

	out := &models.OrderPage{Success: true, Data: []models.Order{}, Page: page, PageSize: limit}
	var lastErr error
	for _, op := range orderOperations {
		orders, err := s.upstream.Orders(ctx, op, page, limit)
		if errors.Is(err, sellerdynamics.ErrNotConfigured) {
			return nil, &ServiceError{StatusCode: http.StatusServiceUnavailable, Message: "Upstream platform is not configured"}
		}
		var pe *sellerdynamics.ProtocolError
		if errors.As(err, &pe) {
			s.logger.Warn("order operation rejected, trying next",
				zap.String("operation", op),
				zap.String("message", pe.Message))
			lastErr = err
			continue
		}
		if err != nil {
			s.logger.Error("order fetch failed", zap.String("operation", op), zap.Error(err))
			return nil, &ServiceError{StatusCode: http.StatusBadGateway, Message: "Failed to fetch orders: " + err.Error()}
		}

		if out.Operation == "" {
			out.Operation = op
		}
		if len(orders) > 0 {
			out.Operation = op
			out.Data = orders
			return out, nil
		}
	}

	if out.Operation == "" && lastErr != nil {
		return nil, &ServiceError{StatusCode: http.StatusBadGateway, Message: "Failed to fetch orders: " + lastErr.Error()}
	}
	return out, nil
}
