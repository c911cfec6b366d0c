package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jiaofangliang/datahub/internal/client"
	"github.com/jiaofangliang/datahub/internal/ui"
	"github.com/spf13/cobra"
)

var (
	serverAddr string
	httpURL    string
	transport  string
	token      string
	jsonOutput bool
	noColor    bool
	actor      string

	apiClient client.Client
)

func defaultActor() string {
	if u := os.Getenv("DHC_ACTOR"); u != "" {
		return u
	}
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		if name := strings.TrimSpace(string(out)); name != "" {
			return name
		}
	}
	return "unknown"
}

func defaultHTTPURL() string {
	if s := os.Getenv("DHC_HTTP_URL"); s != "" {
		return s
	}
	if u := activeRemote().URL; u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultServer() string {
	if s := os.Getenv("DHC_SERVER"); s != "" {
		return s
	}
	addr, _ := activeRemote().grpcTarget()
	return addr
}

func defaultTransport() string {
	if s := os.Getenv("DHC_TRANSPORT"); s != "" {
		return s
	}
	return activeRemote().transport()
}

func defaultToken() string {
	if s := os.Getenv("DHC_TOKEN"); s != "" {
		return s
	}
	return activeRemote().Token
}

// noClient is used by commands that never talk to the API.
func noClient(*cobra.Command, []string) error { return nil }

var rootCmd = &cobra.Command{
	Use:           "dhc <command>",
	Short:         "Dataset compliance metadata service and CLI",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor || !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		switch transport {
		case "http":
			apiClient = client.NewHTTPClient(httpURL, token)
		case "grpc":
			c, err := client.NewGRPCClient(serverAddr, token)
			if err != nil {
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			apiClient = c
		default:
			return fmt.Errorf("unknown transport %q (must be http or grpc)", transport)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if apiClient != nil {
			_ = apiClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", defaultServer(), "gRPC server address")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", defaultTransport(), "transport protocol, http or grpc (default from DHC_TRANSPORT or the active remote)")
	rootCmd.PersistentFlags().StringVar(&token, "token", defaultToken(), "bearer token (default from DHC_TOKEN or the active remote)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor(), "actor name recorded on changes")

	rootCmd.AddGroup(
		&cobra.Group{ID: "compliance", Title: "Compliance tables:"},
		&cobra.Group{ID: "datasets", Title: "Datasets:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Compliance tables
	rootCmd.AddCommand(classificationsCmd)
	rootCmd.AddCommand(logicalTypesCmd)
	rootCmd.AddCommand(identifierCmd)

	// Datasets
	rootCmd.AddCommand(datasetCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(complianceCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(watchCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
