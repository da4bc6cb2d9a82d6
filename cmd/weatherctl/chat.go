package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dileep-u-k/weather-companion/internal/agent"
)

func newChatCmd(app *app) *cobra.Command {
	var location string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the weather assistant about a location",
		Long: "Starts a session pinned to --location and reads one message per line. " +
			"\"/search <location>\" pins a new location; \"/exit\" quits.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			assistant, err := app.newAgent(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			st, _, err := assistant.Start(ctx, location, "")
			if err != nil {
				return fmt.Errorf("search %s: %w", location, err)
			}
			session := st.ID
			printPinned(cmd, st.PinnedLocation)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				switch {
				case line == "":
					continue
				case line == "/exit" || line == "/quit":
					return nil
				case strings.HasPrefix(line, "/search "):
					st, _, err := assistant.Start(ctx, strings.TrimPrefix(line, "/search "), session)
					if err != nil {
						fmt.Fprintf(out, "error: %v\n", err)
						continue
					}
					printPinned(cmd, st.PinnedLocation)
					continue
				}

				result, err := assistant.Respond(ctx, session, line)
				if err != nil {
					return err
				}
				for _, call := range result.ToolCalls {
					fmt.Fprintf(out, "  [%s %s: %s]\n", call.Name, call.Location, call.Status)
				}
				fmt.Fprintln(out, result.Reply)
			}
			fmt.Fprintln(out)
			return scanner.Err()
		},
	}

	cmd.Flags().StringVarP(&location, "location", "l", "", "Location to pin the session to")
	_ = cmd.MarkFlagRequired("location")
	return cmd
}

func printPinned(cmd *cobra.Command, location string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dashboard pinned to %s. Try:\n", location)
	for _, action := range agent.QuickActions(location) {
		fmt.Fprintf(out, "  - %s\n", action)
	}
}
