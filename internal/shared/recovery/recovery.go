// Package recovery runs units of work with panic recovery.
package recovery

import (
	"fmt"
	"runtime/debug"

	"github.com/orris-inc/cloudbilling/internal/shared/logger"
)

// Run calls fn and converts a panic into an error so a single bad entity
// cannot take down a driver tick. The stack is logged under name.
func Run(log logger.Interface, name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("recovered from panic",
				"unit", name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("%s panicked: %v", name, r)
		}
	}()
	return fn()
}
