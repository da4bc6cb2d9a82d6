package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dileep-u-k/weather-companion/internal/tools"
	"github.com/dileep-u-k/weather-companion/internal/version"
	"github.com/dileep-u-k/weather-companion/internal/weather"
)

// toolNames maps the command-line kind to the tool that fetches it.
var toolNames = map[string]string{
	weather.KindCurrent: tools.NameCurrentWeather,
	weather.KindHourly:  tools.NameHourlyForecast,
	weather.KindDaily:   tools.NameDailyForecast,
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.GetBuildInfo())
			return err
		},
	}
}

func newDashboardCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard <location>",
		Short: "Fetch the full dashboard for a location",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			location := weather.DisplayName(strings.Join(args, " "))
			dash, err := weather.FetchDashboard(cmd.Context(), app.geocoder, app.gateway, location)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dash)
		},
	}
}

func newToolCmd(app *app) *cobra.Command {
	kinds := make([]string, 0, len(toolNames))
	for kind := range toolNames {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	return &cobra.Command{
		Use:       fmt.Sprintf("tool <%s> <location>", strings.Join(kinds, "|")),
		Short:     "Run one assistant tool and print what the backend would receive",
		ValidArgs: kinds,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("tool requires a kind and a location")
			}
			if _, ok := toolNames[args[0]]; !ok {
				return fmt.Errorf("unknown kind %q (want %s)", args[0], strings.Join(kinds, ", "))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			location := weather.DisplayName(strings.Join(args[1:], " "))
			result, err := app.toolManager().Execute(cmd.Context(), toolNames[args[0]], tools.EncodeLocationArgs(location))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Content)
			if err == nil && result.Failed {
				err = fmt.Errorf("%s for %s failed", args[0], location)
			}
			return err
		},
	}
}
