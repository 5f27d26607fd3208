package service

import "time"

// Clock supplies the current instant. Engines never sample the wall clock
// directly so reservation timing is controllable in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall-clock implementation used in production wiring.
func SystemClock() Clock { return systemClock{} }
