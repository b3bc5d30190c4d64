package mqtt

import "fmt"

// Topic prefixes.
const (
	TopicPrefixDoorlock = "graylogic/doorlock"
	TopicPrefixSystem   = "graylogic/system"
)

// Topics builds topic names. Per-unit topics need UnitID; SystemStatus does
// not.
//
//	topics := mqtt.Topics{UnitID: "door-01"}
//	topics.Event() // graylogic/doorlock/door-01/event
type Topics struct {
	UnitID string
}

// Event is where lock events are published, QoS 1, not retained.
func (t Topics) Event() string {
	return fmt.Sprintf("%s/%s/event", TopicPrefixDoorlock, t.UnitID)
}

// State carries the retained status snapshot.
func (t Topics) State() string {
	return fmt.Sprintf("%s/%s/state", TopicPrefixDoorlock, t.UnitID)
}

// SimMotion drives the simulated motion sensor with "true" or "false".
func (t Topics) SimMotion() string {
	return fmt.Sprintf("%s/%s/sim/motion", TopicPrefixDoorlock, t.UnitID)
}

// AllEvents matches the event topic of every unit.
func (Topics) AllEvents() string {
	return TopicPrefixDoorlock + "/+/event"
}

// SystemStatus is the retained online/offline topic shared with the rest of
// the building.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
