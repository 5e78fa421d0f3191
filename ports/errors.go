package ports

import "errors"

// Sentinel errors returned by Registry.Define* and Registry.RequestLines.
var (
	// ErrDuplicateName is returned when a port name is registered twice.
	ErrDuplicateName = errors.New("ports: duplicate port name")
	// ErrDuplicateLine is returned when a BCM line number is registered twice.
	ErrDuplicateLine = errors.New("ports: duplicate line number")
	// ErrUnknownPort is returned by operations that name an unregistered port.
	ErrUnknownPort = errors.New("ports: unknown port")
	// ErrNotSensor is returned when a sensor-only operation targets an actuator.
	ErrNotSensor = errors.New("ports: port is not a sensor")
	// ErrNotActuator is returned when an actuator-only operation targets a sensor.
	ErrNotActuator = errors.New("ports: port is not an actuator")
	// ErrHardwareUnavailable is returned when the GPIO chip cannot be opened.
	ErrHardwareUnavailable = errors.New("ports: hardware unavailable")
)
