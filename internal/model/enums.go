package model

// VehicleCommand is the command surface of the reservation engine.
type VehicleCommand string

const (
	CommandStart VehicleCommand = "START"
	CommandStop  VehicleCommand = "STOP"
)

// Valid reports whether the command is one of the known values.
func (c VehicleCommand) Valid() bool {
	return c == CommandStart || c == CommandStop
}
