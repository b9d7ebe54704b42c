package externalsvc

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/newsroom-systems/chief/pkg/chieferrors"
)

// OpenAIEmbedder implements Embedder against OpenAI's embeddings
// endpoint. The original system's ingestion/embeddings.py ran a local
// sentence-transformers model; no Go port of that library appears
// anywhere in the retrieval pack, so this substitutes the nearest
// real ecosystem client for the same role — a hosted embeddings API —
// rather than hand-rolling a vector model in Go.
type OpenAIEmbedder struct {
	client openai.Client
	model  openai.EmbeddingModel
	dim    int
	res    *Resilient[[]float32]
}

// NewOpenAIEmbedder builds an OpenAIEmbedder using apiKey, producing
// dim-wide vectors with model (defaulting to text-embedding-3-small,
// 1536 dimensions, if model is empty).
func NewOpenAIEmbedder(apiKey, model string, dim int) *OpenAIEmbedder {
	if model == "" {
		model = openai.EmbeddingModelTextEmbedding3Small
	}
	if dim <= 0 {
		dim = 1536
	}
	return &OpenAIEmbedder{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.EmbeddingModel(model),
		dim:    dim,
		res:    NewResilient[[]float32]("openai-embeddings"),
	}
}

// Embed computes text's embedding vector, truncated/padded to dim via
// the API's own "dimensions" parameter.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.res.Call(ctx, func(ctx context.Context) ([]float32, error) {
		resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input:      openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
			Model:      string(e.model),
			Dimensions: openai.Int(int64(e.dim)),
		})
		if err != nil {
			return nil, classifyOpenAIError(err)
		}
		if len(resp.Data) == 0 {
			return nil, chieferrors.New(chieferrors.Unavailable, "externalsvc.openai_embedder", errors.New("empty embeddings response"))
		}

		raw := resp.Data[0].Embedding
		out := make([]float32, len(raw))
		for i, v := range raw {
			out[i] = float32(v)
		}
		return out, nil
	})
}

// classifyOpenAIError maps SDK errors onto the substrate's taxonomy,
// the same rate-limit/server-error split classifyAnthropicError uses.
func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusInternalServerError:
			return chieferrors.New(chieferrors.Transient, "externalsvc.openai_embedder", err)
		}
	}
	return chieferrors.New(chieferrors.Unavailable, "externalsvc.openai_embedder", err)
}
