// Package mqtt connects the door lock to the building's MQTT bus.
//
// The authority publishes lock events and a retained state snapshot under
// graylogic/doorlock/{unit_id}, announces itself on graylogic/system/status
// with a Last Will for crash detection, and in simulation mode subscribes to
// .../sim/motion to drive the motion sensor.
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Unit.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{UnitID: cfg.Unit.ID}
//	err = client.PublishJSON(topics.State(), status, true)
//
// TLS is recommended outside a bench setup (mqtt.broker.tls).
package mqtt
