package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/jiaofangliang/datahub/internal/ui"
	"github.com/spf13/cobra"
)

// remoteView is a remote with the settings dhc derives from it filled in.
type remoteView struct {
	Name        string `json:"name"`
	Active      bool   `json:"active"`
	Transport   string `json:"transport"`
	HTTPURL     string `json:"http_url"`
	GRPCAddr    string `json:"grpc_addr"`
	GRPCDerived bool   `json:"grpc_addr_derived,omitempty"`
	Events      string `json:"events"`
	EventsURL   string `json:"events_url"`
	Token       string `json:"token,omitempty"`
}

func newRemoteView(name string, r Remote, active bool) remoteView {
	addr, derived := r.grpcTarget()
	kind, src := r.eventSource()
	return remoteView{
		Name:        name,
		Active:      active,
		Transport:   r.transport(),
		HTTPURL:     r.URL,
		GRPCAddr:    addr,
		GRPCDerived: derived,
		Events:      kind,
		EventsURL:   src,
		Token:       redactToken(r.Token),
	}
}

// endpoint is the address commands use under the remote's transport.
func (v remoteView) endpoint() string {
	if v.Transport == "grpc" {
		return v.GRPCAddr
	}
	return v.HTTPURL
}

// redactToken keeps the first and last four characters of long tokens.
func redactToken(tok string) string {
	if len(tok) <= 8 {
		return strings.Repeat("*", len(tok))
	}
	return tok[:4] + "****" + tok[len(tok)-4:]
}

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Manage named datahub servers",
	Long: `Remotes are stored in $DHC_STATE_DIR/remotes.toml (default
~/.local/state/datahub). The active remote supplies the defaults for
--http-url, --server, --transport, --token, and the dhc watch event source.`,
	GroupID: "system",
	// Remote subcommands only touch the local file.
	PersistentPreRunE: noClient,
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <http-url>",
	Short: "Add or replace a remote; the first remote becomes active",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		r := Remote{URL: args[1]}
		r.Transport, _ = cmd.Flags().GetString("transport")
		r.GRPCAddr, _ = cmd.Flags().GetString("grpc")
		r.Token, _ = cmd.Flags().GetString("token")
		r.NATSURL, _ = cmd.Flags().GetString("nats")
		if err := r.validate(); err != nil {
			return err
		}

		cfg, err := loadRemotesConfig()
		if err != nil {
			return err
		}
		cfg.Remotes[name] = r
		if cfg.Active == "" {
			cfg.Active = name
		}
		if err := saveRemotesConfig(cfg); err != nil {
			return err
		}
		v := newRemoteView(name, r, cfg.Active == name)
		fmt.Fprintf(cmd.OutOrStdout(), "saved remote %s (%s %s)\n", ui.RenderAccent(name), v.Transport, v.endpoint())
		return nil
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a remote",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRemotesConfig()
		if err != nil {
			return err
		}
		name, _, err := cfg.lookup(args[0])
		if err != nil {
			return err
		}
		delete(cfg.Remotes, name)
		if cfg.Active == name {
			cfg.Active = ""
		}
		if err := saveRemotesConfig(cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed remote %s\n", name)
		return nil
	},
}

var remoteUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Make a remote the default for later commands",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRemotesConfig()
		if err != nil {
			return err
		}
		name, _, err := cfg.lookup(args[0])
		if err != nil {
			return err
		}
		cfg.Active = name
		if err := saveRemotesConfig(cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "now using remote %s\n", ui.RenderAccent(name))
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List remotes with their transport and event source",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRemotesConfig()
		if err != nil {
			return err
		}
		views := make([]remoteView, 0, len(cfg.Remotes))
		for _, name := range slices.Sorted(maps.Keys(cfg.Remotes)) {
			views = append(views, newRemoteView(name, cfg.Remotes[name], name == cfg.Active))
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(w, views)
		}
		if len(views) == 0 {
			fmt.Fprintln(w, ui.RenderMuted("no remotes; add one with 'dhc remote add <name> <http-url>'"))
			return nil
		}
		printRemoteList(w, views)
		return nil
	},
}

func printRemoteList(w io.Writer, views []remoteView) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tNAME\tTRANSPORT\tENDPOINT\tEVENTS\tTOKEN")
	for _, v := range views {
		marker := ""
		if v.Active {
			marker = "*"
		}
		tok := v.Token
		if tok == "" {
			tok = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", marker, v.Name, v.Transport, v.endpoint(), v.Events, tok)
	}
	tw.Flush()
}

var remoteShowCmd = &cobra.Command{
	Use:   "show [<name>]",
	Short: "Show the settings dhc resolves from a remote (default: active)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRemotesConfig()
		if err != nil {
			return err
		}
		var name string
		if len(args) == 1 {
			name = args[0]
		}
		name, r, err := cfg.lookup(name)
		if err != nil {
			return err
		}

		v := newRemoteView(name, r, name == cfg.Active)
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), v)
		}
		printRemote(cmd.OutOrStdout(), v)
		return nil
	},
}

func printRemote(w io.Writer, v remoteView) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	title := ui.RenderAccent(v.Name)
	if v.Active {
		title += " (active)"
	}
	fmt.Fprintf(tw, "Remote:\t%s\n", title)
	fmt.Fprintf(tw, "Transport:\t%s\n", v.Transport)
	fmt.Fprintf(tw, "HTTP URL:\t%s\n", v.HTTPURL)
	grpc := v.GRPCAddr
	if v.GRPCDerived {
		grpc += " " + ui.RenderMuted("(derived)")
	}
	fmt.Fprintf(tw, "gRPC address:\t%s\n", grpc)
	fmt.Fprintf(tw, "Events:\t%s %s\n", v.Events, v.EventsURL)
	tok := v.Token
	if tok == "" {
		tok = ui.RenderMuted("(none)")
	}
	fmt.Fprintf(tw, "Token:\t%s\n", tok)
	tw.Flush()
}

func init() {
	remoteAddCmd.Flags().String("transport", "", "preferred transport for this remote (http or grpc)")
	remoteAddCmd.Flags().String("grpc", "", "gRPC address (default: URL host on port "+defaultGRPCPort+")")
	remoteAddCmd.Flags().String("token", "", "bearer token sent to the server")
	remoteAddCmd.Flags().String("nats", "", "NATS URL for dhc watch (default: the server's SSE stream)")

	remoteCmd.AddCommand(remoteAddCmd, remoteUseCmd, remoteListCmd, remoteShowCmd, remoteRemoveCmd)
}
