// Package influxdb records door lock history in InfluxDB v2.
//
// Each lock event becomes one point in the doorlock_events measurement, so
// failed attempts, lockouts and door hold times can be graphed per unit.
// Writes are batched by the client library and never block the authority.
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // history is optional
//	}
//	client.SetOnError(func(err error) { logger.Warn("influx write", "error", err) })
package influxdb
