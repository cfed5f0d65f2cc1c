package event

type EventType string

const (
	ServerDiscoveryStarted EventType = "server-discovery-started"
	ServerDiscoveryDone    EventType = "server-discovery-done"
)

// Event data structure representing any event we may want to react to
type Event struct {
	Type    EventType
	Payload any
}
