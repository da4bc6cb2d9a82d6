package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dileep-u-k/weather-companion/internal/agent"
	"github.com/dileep-u-k/weather-companion/internal/config"
	"github.com/dileep-u-k/weather-companion/internal/conversation"
	"github.com/dileep-u-k/weather-companion/internal/llm"
	"github.com/dileep-u-k/weather-companion/internal/tools"
	"github.com/dileep-u-k/weather-companion/internal/weather"
)

// app holds what the commands share. The backend is created lazily so the
// data commands work without an API key.
type app struct {
	geocoder weather.Geocoder
	gateway  weather.Gateway
	backend  func(ctx context.Context) (llm.LLMClient, error)
	agentCfg agent.Config
}

func wireApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	geocoder, gateway := cfg.NewWeather()
	return &app{
		geocoder: geocoder,
		gateway:  gateway,
		backend:  cfg.NewBackend,
		agentCfg: cfg.Agent,
	}, nil
}

func (a *app) toolManager() *tools.ToolManager {
	return tools.NewWeatherToolManager(tools.NewService(a.geocoder, a.gateway))
}

// newAgent builds an assistant over an in-memory session store.
func (a *app) newAgent(ctx context.Context) (*agent.Agent, error) {
	backend, err := a.backend(ctx)
	if err != nil {
		return nil, err
	}
	return agent.New(backend, conversation.NewMemoryStore(), a.geocoder, a.gateway, a.agentCfg), nil
}

func Execute() error {
	return newRootCmd(wireApp).Execute()
}

func newRootCmd(wire func() (*app, error)) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "weatherctl",
		Short:         "Weather dashboard from the terminal",
		Long:          "weatherctl fetches dashboards and forecasts from Open-Meteo and chats with the weather assistant without running the HTTP server.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wire()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newDashboardCmd(app),
		newToolCmd(app),
		newChatCmd(app),
	)
	return rootCmd
}
