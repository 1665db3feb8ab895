package ai

// Embedding backends understood by Config.Backend.
const (
	// BackendOpenAI talks to an OpenAI-compatible embeddings endpoint
	// (OpenAI, Ollama, LocalAI, vLLM).
	BackendOpenAI = "openai"

	// BackendLocal uses the in-process hashing embedder. No network access.
	BackendLocal = "local"
)

// DefaultLocalDimension is the vector length of the local embedder when
// Config.Dimension is zero.
const DefaultLocalDimension = 384

// Backends lists the accepted values of Config.Backend.
var Backends = []string{BackendOpenAI, BackendLocal}
