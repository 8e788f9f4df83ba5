package constants

// Обменник событий витрины
const (
	ExchangeStorefrontEvents = "storefront.events"
	ExchangeTypeTopic        = "topic"
)

// Ключи маршрутизации
const (
	RoutingKeyVisitRecorded = "storefront.visit.recorded"
)

// Версии событий (заголовки x-event-type / x-event-version)
const (
	EventTypeVisitRecorded    = "VisitRecordedEvent"
	EventVersionVisitRecorded = "1.0.0"
)
