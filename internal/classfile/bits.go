package classfile

import "math"

func float32FromBits(b uint32) float32 { return math.Float32frombits(b) }

func float64FromBits(b uint64) float64 { return math.Float64frombits(b) }
