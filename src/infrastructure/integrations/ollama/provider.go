package ollama

import (
	"context"
)

// Provider binds a Client to one generation model, satisfying the
// orchestrator's Generator port.
type Provider struct {
	client *Client
	model  string
}

func NewProvider(client *Client, model string) *Provider {
	return &Provider{
		client: client,
		model:  model,
	}
}

func (p *Provider) Generate(ctx context.Context, system string, prompt string) (string, error) {
	return p.client.Generate(ctx, p.model, system, prompt, map[string]interface{}{
		"temperature": 0.7,
		"top_p":       0.9,
	})
}
