package notification

import "math/rand/v2"

// Picker chooses an index in [0, n) among eligible records. It is only
// called with n >= 1.
type Picker func(n int) int

// NewRandomPicker returns the default uniform-random picker.
func NewRandomPicker() Picker {
	return func(n int) int {
		return rand.IntN(n)
	}
}
