//go:build tools

package readerbridge

import (
	_ "github.com/boumenot/gocover-cobertura"
)
