package devserver

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/example/delivery-rider/internal/domain/models"
	"github.com/example/delivery-rider/pkg/logger"
	wrap "github.com/example/delivery-rider/pkg/logger/wrapper"
	"github.com/example/delivery-rider/pkg/uuid"
)

// Generator periodically publishes made-up orders to connected riders.
type Generator struct {
	store    *Store
	hub      *Hub
	interval time.Duration
	log      logger.Logger
}

func NewGenerator(store *Store, hub *Hub, interval time.Duration, log logger.Logger) *Generator {
	return &Generator{
		store:    store,
		hub:      hub,
		interval: interval,
		log:      log,
	}
}

func (g *Generator) Run(ctx context.Context) {
	ctx = wrap.WithAction(ctx, "devserver.Generator.Run")

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.log.Info(ctx, "order generator stopped")
			return
		case <-ticker.C:
			order := randomOrder()
			g.store.AddOrder(order)
			g.hub.Broadcast(wrap.WithOrderID(ctx, order.OrderID), models.OrderEvent{
				Type:  models.EventOrderCreated,
				Order: &order,
			}, "")
		}
	}
}

func randomOrder() models.Order {
	start := randomPoint()
	end := randomPoint()
	return models.Order{
		OrderID: uuid.NewString(),
		Rider:   fmt.Sprintf("customer-%03d", rand.Intn(1000)),
		Start:   start,
		End:     end,
		Price:   500 + rand.Intn(4500),
	}
}

// randomPoint returns coordinates roughly within Almaty.
func randomPoint() models.GeoPoint {
	return models.GeoPoint{
		Latitude:  43.2 + rand.Float64()*0.1,
		Longitude: 76.85 + rand.Float64()*0.1,
	}
}
