package shared

const (
	MaxValue16 = 32768.0      // 2^15 — 16-bit signed PCM normalization divisor
	MaxValue24 = 8388608.0    // 2^23 — 24-bit signed PCM normalization divisor
	MaxValue32 = 2147483648.0 // 2^31 — 32-bit signed PCM normalization divisor
)
