package geometry

import (
	"math"
	"time"
)

// J2000 is the epoch from which instants are counted.
var J2000 = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

// Instant is a point in time, in seconds since J2000 on a uniform time scale.
type Instant float64

// Duration is the difference between two instants, in seconds.
type Duration float64

// FromTime converts a wall-clock time to an Instant. Leap seconds are ignored.
func FromTime(t time.Time) Instant {
	return Instant(t.Sub(J2000).Seconds())
}

// Time converts the instant back to a UTC time, rounded to the nanosecond.
func (t Instant) Time() time.Time {
	return J2000.Add(time.Duration(math.Round(float64(t) * float64(time.Second))))
}

// Sub returns t - u.
func (t Instant) Sub(u Instant) Duration { return Duration(t - u) }

// Add returns t + d.
func (t Instant) Add(d Duration) Instant { return t + Instant(d) }

// Before reports whether t is strictly earlier than u.
func (t Instant) Before(u Instant) bool { return t < u }

// After reports whether t is strictly later than u.
func (t Instant) After(u Instant) bool { return t > u }

// Seconds returns the duration as a floating-point number of seconds.
func (d Duration) Seconds() float64 { return float64(d) }

// FromDuration converts a time.Duration to a Duration.
func FromDuration(d time.Duration) Duration { return Duration(d.Seconds()) }
