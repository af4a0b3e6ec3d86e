package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/chative-sei/agent/contract"
	openrouterx "github.com/tanpawarit/chative-sei/pkg/openrouter"
)

// Base URLs of the OpenAI-compatible providers accepted by LLM_PROVIDER.
var providerBaseURLs = map[string]string{
	"openrouter": "https://openrouter.ai/api/v1",
	"openai":     "https://api.openai.com/v1",
	"groq":       "https://api.groq.com/openai/v1",
	"ollama":     "http://localhost:11434/v1",
}

type Config struct {
	Provider           string        `envconfig:"PROVIDER" split_words:"true" default:"openrouter"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	SupervisorModel       string  `envconfig:"SUPERVISOR_MODEL" split_words:"true"`
	WorkerModel           string  `envconfig:"WORKER_MODEL" split_words:"true"`
	SupervisorTemperature float32 `envconfig:"SUPERVISOR_TEMPERATURE" split_words:"true" default:"-1"`
	WorkerTemperature     float32 `envconfig:"WORKER_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	provider := strings.ToLower(strings.TrimSpace(c.Provider))
	if provider == "" {
		provider = "openrouter"
	}
	if _, ok := providerBaseURLs[provider]; !ok && strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: unknown provider %q and no base url", contractx.ErrValidation, c.Provider)
	}
	// Local ollama needs no key.
	if provider != "ollama" && strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: api key is required for provider %s", contractx.ErrValidation, provider)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// ResolvedBaseURL returns BaseURL when set, otherwise the provider default.
func (c Config) ResolvedBaseURL() string {
	if v := strings.TrimSpace(c.BaseURL); v != "" {
		return v
	}
	provider := strings.ToLower(strings.TrimSpace(c.Provider))
	if v, ok := providerBaseURLs[provider]; ok {
		return v
	}
	return providerBaseURLs["openrouter"]
}

func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch agentType {
	case contractx.AgentTypeSupervisor:
		if v := strings.TrimSpace(c.SupervisorModel); v != "" {
			modelName = v
		}
		if c.SupervisorTemperature >= 0 {
			temp = c.SupervisorTemperature
		}
	case contractx.AgentTypeResearcher:
		if v := strings.TrimSpace(c.WorkerModel); v != "" {
			modelName = v
		}
		if c.WorkerTemperature >= 0 {
			temp = c.WorkerTemperature
		}
	}

	apiKey := strings.TrimSpace(c.APIKey)
	if apiKey == "" {
		apiKey = "ollama"
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            c.ResolvedBaseURL(),
		APIKey:             apiKey,
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
