// Package domain holds the entities shared by the client, the session layer and the development backend.
package domain

import "time"

// Clock abstracts time so that the development backend can be tested with fixed timestamps.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
