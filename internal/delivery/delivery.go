// Package delivery sends finished bulletins to a messaging webhook.
package delivery

import (
	"context"
	"fmt"
)

// Channel delivers text and images to a destination such as a phone number.
type Channel interface {
	SendText(ctx context.Context, dest, text string) error
	SendImage(ctx context.Context, dest string, image []byte, caption string) error
}

// Error reports a failed transmission. It is never retried.
type Error struct {
	Dest string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", mask(e.Dest), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// mask hides all but the last four characters of a destination.
func mask(dest string) string {
	r := []rune(dest)
	if len(r) <= 4 {
		return dest
	}
	for i := 0; i < len(r)-4; i++ {
		if r[i] != '+' {
			r[i] = '*'
		}
	}
	return string(r)
}
