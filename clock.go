package brewsvc

import "time"

// Clock abstracts time so the settle delay can be driven from tests
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the part of *time.Timer the engine uses
type Timer interface {
	Stop() bool
}

// realClock implements Clock using the real time package
type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
