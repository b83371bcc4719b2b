//go:build tools

package tools

// Pins the mock generator used by go:generate in pkg/registry.
import (
	_ "github.com/vektra/mockery/v2"
)
