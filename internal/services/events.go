package services

import "go.uber.org/zap"

// Routing keys of the catalog events.
const (
	EventUserRegistered  = "user.registered"
	EventCategoryDeleted = "category.deleted"
	EventProductCreated  = "product.created"
	EventProductDeleted  = "product.deleted"
)

// EventPublisher delivers catalog events to a message broker.
type EventPublisher interface {
	Publish(routingKey string, payload interface{}) error
}

// publish sends an event if a publisher is configured. Failures are logged
// and never fail the request that produced the event.
func publish(p EventPublisher, routingKey string, payload interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(routingKey, payload); err != nil {
		zap.S().Warnf("failed to publish %s event: %v", routingKey, err)
	}
}
