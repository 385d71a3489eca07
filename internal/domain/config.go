package domain

// VectorConfig holds the default model and size of one dense space.
type VectorConfig struct {
	Model      string
	Dimensions int
}

// DefaultTextVectorConfig returns the defaults for the text space.
func DefaultTextVectorConfig() VectorConfig {
	return VectorConfig{Model: "text-embedding-3-small", Dimensions: 1536}
}

// DefaultImageVectorConfig returns the defaults for the CLIP image space.
func DefaultImageVectorConfig() VectorConfig {
	return VectorConfig{Model: "clip-vit-base-patch32", Dimensions: 512}
}
