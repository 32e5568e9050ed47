package llm

import (
	"log/slog"
	"net/http"

	"genui-gateway/internal/domain"
	"genui-gateway/internal/infra/config"
)

var (
	_ domain.CompletionProvider = (*OpenAIProvider)(nil)
	_ domain.CompletionProvider = (*OpenRouterProvider)(nil)
)

const (
	openrouterBaseURL = "https://openrouter.ai/api/v1"
	openrouterReferer = "https://github.com/genui-gateway/genui-gateway"
	openrouterTitle   = "genui-gateway"
)

// headerTransport sets fixed headers on a clone of every outgoing request.
type headerTransport struct {
	base    http.RoundTripper
	headers http.Header
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for k, v := range t.headers {
		clone.Header[k] = v
	}
	return t.base.RoundTrip(clone)
}

// openrouterHeaders are the attribution headers OpenRouter ranks apps by.
func openrouterHeaders() http.Header {
	h := make(http.Header)
	h.Set("HTTP-Referer", openrouterReferer)
	h.Set("X-Title", openrouterTitle)
	return h
}

// OpenRouterProvider is an OpenAIProvider pointed at OpenRouter.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider defaults the base URL and name for OpenRouter and
// adds its attribution headers to every request.
func NewOpenRouterProvider(cfg config.ProviderConfig, logger *slog.Logger) *OpenRouterProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = openrouterBaseURL
	}
	if cfg.Name == "" {
		cfg.Name = "openrouter"
	}
	p := NewOpenAIProvider(cfg, logger)
	p.client.Transport = &headerTransport{base: p.client.Transport, headers: openrouterHeaders()}
	return &OpenRouterProvider{OpenAIProvider: p}
}
