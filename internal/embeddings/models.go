package embeddings

// Supported embedding models and their dimensions
const (
	ModelTextEmbedding3Small = "openai/text-embedding-3-small"
	ModelTextEmbedding3Large = "openai/text-embedding-3-large"
	ModelTextEmbeddingAda002 = "openai/text-embedding-ada-002"

	DimTextEmbedding3Small = 1536
	DimTextEmbedding3Large = 3072
	DimTextEmbeddingAda002 = 1536

	DefaultModel = ModelTextEmbedding3Small
)

// GetEmbeddingDimension returns the dimension for a given model
func GetEmbeddingDimension(model string) int {
	switch model {
	case ModelTextEmbedding3Large:
		return DimTextEmbedding3Large
	case ModelTextEmbeddingAda002:
		return DimTextEmbeddingAda002
	default:
		return DimTextEmbedding3Small
	}
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Model string          `json:"model"`
}

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}
