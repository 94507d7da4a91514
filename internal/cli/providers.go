package cli

import (
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	openaisdk "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"

	"github.com/hupe1980/stepchain/config"
	"github.com/hupe1980/stepchain/gateway"
	"github.com/hupe1980/stepchain/logging"
	"github.com/hupe1980/stepchain/model"
	"github.com/hupe1980/stepchain/model/anthropic"
	"github.com/hupe1980/stepchain/model/ollama"
	"github.com/hupe1980/stepchain/model/openai"
)

// newModel builds the provider adapter for name. API keys are picked up by
// the SDKs from their usual environment variables.
func newModel(cfg *config.Config, name string) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		var opts []openaiopt.RequestOption
		if cfg.Endpoint != "" {
			opts = append(opts, openaiopt.WithBaseURL(cfg.Endpoint))
		}
		client := openaisdk.NewClient(opts...)
		return openai.NewModelFromClient(&client, func(o *openai.Options) {
			o.Model = name
			if cfg.Temperature != nil {
				o.Temperature = *cfg.Temperature
			}
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxTokens
			}
		}), nil
	case config.ProviderAnthropic:
		var opts []anthropicopt.RequestOption
		if cfg.Endpoint != "" {
			opts = append(opts, anthropicopt.WithBaseURL(cfg.Endpoint))
		}
		client := anthropicsdk.NewClient(opts...)
		return anthropic.NewModelFromClient(&client, func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(name)
			if cfg.Temperature != nil {
				o.Temperature = *cfg.Temperature
			}
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
		}), nil
	case config.ProviderOllama:
		return ollama.NewModel(func(o *ollama.Options) {
			o.Model = name
			o.Endpoint = cfg.Endpoint
			if cfg.Temperature != nil {
				o.Temperature = *cfg.Temperature
			}
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.Provider)
	}
}

func newGateway(cfg *config.Config, name string, logger logging.Logger) (*gateway.ModelGateway, error) {
	m, err := newModel(cfg, name)
	if err != nil {
		return nil, err
	}
	return gateway.New(m, func(o *gateway.Options) {
		o.Logger = logger
	}), nil
}
