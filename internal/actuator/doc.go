// Package actuator drives the door hardware owned by the authority.
//
// The Sequencer runs the unlock, hold-for-clear and relock cycle after a
// verified OpenDoor:
//
//  1. Motor opens for the hold duration, then stops.
//  2. The motion sensor is sampled. While it reports motion the sequencer
//     reports PIRDetected once and re-samples at the poll interval; when it
//     reads clear it reports PIRNotDetected. With no motion at all,
//     PIRNotDetected is reported once, immediately.
//  3. Motor closes for the hold duration, then stops.
//
// The door never relocks while the sensor reads motion. The clear wait has no
// timeout; an obstruction that never clears holds the door open until the
// context is cancelled. An optional obstruction warning fires once after a
// configured interval so the condition can be surfaced without changing the
// interlock.
//
// Motor, MotionSensor and Alarm are the hardware boundary. The Sim types in
// sim.go implement them in memory for the simulator and for tests.
package actuator
