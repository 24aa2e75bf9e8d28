package domain

// CompressionTier is one fixed compression preset selected by source
// file size.
type CompressionTier struct {
	Name        string
	Quality     float64
	MaxWidth    int
	MaxHeight   int
	BitrateKbps int
	Compress    bool
}

var (
	// TierLarge applies to sources over the large threshold.
	TierLarge = CompressionTier{Name: "large", Quality: 0.5, MaxWidth: 720, MaxHeight: 1280, BitrateKbps: 1500, Compress: true}
	// TierMedium applies to sources over the medium threshold.
	TierMedium = CompressionTier{Name: "medium", Quality: 0.6, MaxWidth: 1080, MaxHeight: 1920, BitrateKbps: 2000, Compress: true}
	// TierSmall applies to everything else and skips compression.
	TierSmall = CompressionTier{Name: "small", Quality: 0.8, Compress: false}
)

// ProcessingResult is the ephemeral output of one pipeline run. It is
// never persisted; ownership of the produced files transfers to the
// consumer.
type ProcessingResult struct {
	VideoPath     string
	ThumbnailPath string
	SizeBytes     int64
	DurationSec   float64
}
