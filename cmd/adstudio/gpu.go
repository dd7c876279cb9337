//go:build gpu

package main

// The GPU accelerator registers itself with gg on import; rendering falls
// back to the CPU rasterizer when no adapter is available.
import _ "github.com/gogpu/gg/gpu"
