// Package log is a clumsy switch around the standard library's log
// package, in the spirit of a debug flag you flip on locally.
package log

import "log"

// Enabled controls whether Logf calls log.Printf.
var Enabled = false

// Logf calls log.Printf if Enabled is true. Otherwise it's a no-op.
func Logf(format string, args ...interface{}) {
	if !Enabled {
		return
	}
	log.Printf(format, args...)
}
