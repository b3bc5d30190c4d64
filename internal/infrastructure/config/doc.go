// Package config loads the door lock configuration shared by the authority
// (doorlockd) and the front end (doorpanel).
//
// Values are resolved in three layers: built-in defaults, the YAML file, then
// DOORLOCK_* environment variables. Validate collects every problem and
// reports them together so a bad file is fixed in one pass.
//
//	cfg, err := config.Load("configs/doorlock.yaml")
//	if err != nil {
//	    return err
//	}
//	hold := cfg.GetLockingTime()
//
// Secrets (MQTT password, InfluxDB token) should come from the environment
// rather than the file.
package config
