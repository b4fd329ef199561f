// Package logging contains the singleton logger that we use globally.
// It imports nothing else from this module so that every package can depend on it.
package logging

import (
	"gopkg.in/op/go-logging.v1"
)

// Log is the logger shared by all blazesync packages.
var Log = logging.MustGetLogger("blazesync")
