package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jiaofangliang/datahub/internal/events"
	"github.com/jiaofangliang/datahub/internal/ui"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream dataset, schema, and compliance change events",
	Long: `Stream change events as they happen. Events come from NATS when a NATS URL
is configured (--nats, DHC_NATS_URL, or the active remote), otherwise from
the server's /v1/events/stream endpoint.`,
	GroupID:           "datasets",
	Args:              cobra.NoArgs,
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		if noColor || !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		topic, _ := cmd.Flags().GetString("topic")
		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			natsURL = os.Getenv("DHC_NATS_URL")
		}
		if natsURL == "" {
			natsURL = activeRemote().NATSURL
		}

		ctx := cmd.Context()
		emit := func(topic string, data []byte) {
			if jsonOutput {
				fmt.Fprintf(os.Stdout, "{\"topic\":%q,\"data\":%s}\n", topic, data)
				return
			}
			fmt.Fprintln(os.Stdout, formatEvent(time.Now(), topic, data))
		}

		if natsURL != "" {
			return watchNATS(ctx, natsURL, topic, emit)
		}
		return watchSSE(ctx, httpURL, token, topic, emit)
	},
}

// watchNATS prints every message on topic until ctx is cancelled.
func watchNATS(ctx context.Context, natsURL, topic string, emit func(string, []byte)) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats: disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			slog.Info("nats: reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(topic)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			emit(msg.Topic, msg.Data)
		}
	}
}

// streamURL is the server-sent event endpoint under baseURL.
func streamURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/v1/events/stream"
}

// watchSSE reads the server event stream until ctx is cancelled or the
// server closes the connection.
func watchSSE(ctx context.Context, baseURL, tok, topic string, emit func(string, []byte)) error {
	u := streamURL(baseURL)
	if topic != "" && topic != events.AllTopics {
		u += "?" + url.Values{"topics": {topic}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connecting to event stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("event stream: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	err = readSSE(resp.Body, func(ev sseMessage) {
		emit(ev.Event, []byte(ev.Data))
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// sseMessage is one dispatched server-sent event.
type sseMessage struct {
	ID    string
	Event string
	Data  string
}

// readSSE parses a text/event-stream body and calls fn for every event that
// carries data. Comment lines (keepalives) are skipped.
func readSSE(r io.Reader, fn func(sseMessage)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var cur sseMessage
	var data []string
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			if len(data) > 0 {
				cur.Data = strings.Join(data, "\n")
				fn(cur)
			}
			cur, data = sseMessage{}, nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "id":
			cur.ID = value
		case "event":
			cur.Event = value
		case "data":
			data = append(data, value)
		}
	}
	return sc.Err()
}

// formatEvent renders one event payload as a single human-readable line.
func formatEvent(at time.Time, topic string, data []byte) string {
	var p struct {
		DatasetID string `json:"dataset_id"`
		URN       string `json:"urn"`
		Dataset   *struct {
			ID  string `json:"id"`
			URN string `json:"urn"`
		} `json:"dataset"`
		Compliance *struct {
			DatasetID             string            `json:"dataset_id"`
			DatasetClassification string            `json:"dataset_classification"`
			Annotations           []json.RawMessage `json:"annotations"`
		} `json:"compliance"`
		PreviousClassification string `json:"previous_classification"`
	}
	_ = json.Unmarshal(data, &p)

	id, detail := p.DatasetID, p.URN
	switch {
	case p.Dataset != nil:
		id, detail = p.Dataset.ID, p.Dataset.URN
	case p.Compliance != nil:
		id = p.Compliance.DatasetID
		prev := p.PreviousClassification
		if prev == "" {
			prev = "none"
		}
		detail = fmt.Sprintf("%d annotations, %s -> %s", len(p.Compliance.Annotations), prev, p.Compliance.DatasetClassification)
	}

	line := fmt.Sprintf("%s  %-28s %s", at.Format("15:04:05"), topic, ui.RenderAccent(id))
	if detail != "" {
		line += "  " + ui.RenderMuted(detail)
	}
	return line
}

func init() {
	watchCmd.Flags().String("topic", events.AllTopics, "topic or wildcard to watch")
	watchCmd.Flags().String("nats", "", "NATS URL (default from DHC_NATS_URL or the active remote)")
}
