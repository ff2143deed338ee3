package embedding

import "context"

// ProviderInfo identifies the configuration vectors were produced with. It is
// stamped onto every stored embedding for reconciliation.
type ProviderInfo struct {
	Provider string
	Model    string
	Dim      int
}

// Provider generates embeddings for batches of texts. Implementations must
// return one vector per input, in input order.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Info() ProviderInfo
}
