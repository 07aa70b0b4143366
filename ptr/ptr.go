package ptr

import "time"

func Int(i int) *int {
	return &i
}

func Int32(i int32) *int32 {
	return &i
}

func String(s string) *string {
	return &s
}

func Time(t time.Time) *time.Time {
	return &t
}

// Deref returns the value p points to, or the zero value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
