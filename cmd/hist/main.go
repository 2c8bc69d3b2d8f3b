package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/alfredjeanlab/history/internal/client"
	"github.com/alfredjeanlab/history/internal/ui"
	"github.com/spf13/cobra"
)

var (
	httpURL    string
	serverAddr string
	transport  string
	authToken  string
	jsonOutput bool
	actor      string

	historyClient client.HistoryClient
	// taskReader serves the read-only commands and honours --transport.
	taskReader client.TaskReader
)

func defaultActor() string {
	if s := os.Getenv("HISTORY_ACTOR"); s != "" {
		return s
	}
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		return strings.TrimSpace(string(out))
	}
	return ""
}

func defaultHTTPURL() string {
	if s := os.Getenv("HISTORY_URL"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultServer() string {
	if s := os.Getenv("HISTORY_SERVER"); s != "" {
		return s
	}
	if s := activeRemoteGRPCAddr(); s != "" {
		return s
	}
	return "localhost:9090"
}

func defaultToken() string {
	if s := os.Getenv("HISTORY_TOKEN"); s != "" {
		return s
	}
	return activeRemoteToken()
}

var rootCmd = &cobra.Command{
	Use:   "hist <command>",
	Short: "Serve and drive access-gated research sessions",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		httpClient := client.NewHTTPClient(httpURL, client.WithToken(authToken), client.WithActor(actor))
		historyClient = httpClient
		switch transport {
		case "http":
			taskReader = httpClient
		case "grpc":
			c, err := client.NewGRPCClient(serverAddr, authToken)
			if err != nil {
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			taskReader = c
		default:
			return fmt.Errorf("unknown transport %q (must be http or grpc)", transport)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if taskReader != nil {
			taskReader.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", defaultServer(), "gRPC server address")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "http", "transport for research show and health (http or grpc)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultToken(), "bearer token")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor(), "signed-in actor; empty browses anonymously")

	rootCmd.AddGroup(
		&cobra.Group{ID: "views", Title: "Views:"},
		&cobra.Group{ID: "research", Title: "Research:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	ui.Configure()
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Views
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(watchCmd)

	// Research
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(inquiryCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
