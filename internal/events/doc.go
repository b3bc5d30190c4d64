// Package events models what happened at the door and fans it out to the
// building: the structured log, the MQTT bus and InfluxDB history.
//
// The authority publishes one Event per notable step of an exchange
// (credential rejected, door unlocked, lockout started, ...). Publishers
// never see credential digits.
//
//	pub := events.NewAsync(events.Multi{
//	    events.NewLogPublisher(logger),
//	    events.NewMQTTPublisher(mqttClient, cfg.Unit.ID, 1, state),
//	    events.NewInfluxRecorder(influxClient),
//	}, 64, logger)
//	defer pub.Close()
package events
