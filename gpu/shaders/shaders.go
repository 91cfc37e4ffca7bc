// Package shaders embeds the WGSL compute kernels used by the
// headless GPU Capability backend.
package shaders

import (
	_ "embed"
)

//go:embed update.wgsl
var UpdateWGSL string
