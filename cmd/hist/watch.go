package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/alfredjeanlab/history/internal/client"
	"github.com/alfredjeanlab/history/internal/events"
	"github.com/alfredjeanlab/history/internal/ui"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

// watchTopics are the view events printed by watch.
var watchTopics = []string{
	events.TopicSessionChosen,
	events.TopicSessionClosed,
	events.TopicGateChanged,
	events.TopicNotify,
}

var watchCmd = &cobra.Command{
	Use:     "watch <view-id>",
	Short:   "Follow a view's gate and session changes",
	GroupID: "views",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		interval, _ := cmd.Flags().GetDuration("interval")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		v, err := historyClient.GetView(ctx, id)
		if err != nil {
			return fmt.Errorf("getting view: %w", err)
		}
		printView(v)

		natsURL := os.Getenv("HISTORY_NATS_URL")
		if natsURL == "" {
			natsURL = activeRemoteNATSURL()
		}
		if natsURL != "" {
			return watchNATS(ctx, natsURL, id)
		}
		return watchPoll(ctx, interval, v)
	},
}

type topicEvent struct {
	topic string
	data  []byte
}

// watchNATS prints view events for id as they are published.
func watchNATS(ctx context.Context, natsURL, id string) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	merged := make(chan topicEvent, 64)
	for _, topic := range watchTopics {
		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return fmt.Errorf("subscribing to events: %w", err)
		}
		defer cancel()
		go func() {
			for data := range ch {
				select {
				case merged <- topicEvent{topic: topic, data: data}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt := <-merged:
			line, viewID, err := describeEvent(evt.topic, evt.data)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error decoding %s: %v\n", evt.topic, err)
				continue
			}
			if viewID != id {
				continue
			}
			if jsonOutput {
				fmt.Println(string(evt.data))
			} else {
				fmt.Printf("%s  %s\n", ui.RenderMuted(time.Now().Format("15:04:05")), line)
			}
		}
	}
}

// describeEvent renders a view event payload as one line and reports the
// view it belongs to.
func describeEvent(topic string, data []byte) (line, viewID string, err error) {
	switch topic {
	case events.TopicSessionChosen:
		var e events.SessionChosen
		if err := json.Unmarshal(data, &e); err != nil {
			return "", "", err
		}
		line = "session " + e.Session.Location.String()
		if e.Session.Token != "" {
			line += " [" + e.Session.Token + "]"
		}
		return line, e.ViewID, nil
	case events.TopicSessionClosed:
		var e events.SessionClosed
		if err := json.Unmarshal(data, &e); err != nil {
			return "", "", err
		}
		return "session closed", e.ViewID, nil
	case events.TopicGateChanged:
		var e events.GateChanged
		if err := json.Unmarshal(data, &e); err != nil {
			return "", "", err
		}
		line = "gate " + ui.RenderGate(e.State)
		if e.ResetAt != nil {
			line += " until " + e.ResetAt.Local().Format(timeLayout)
		}
		return line, e.ViewID, nil
	case events.TopicNotify:
		var e events.Notified
		if err := json.Unmarshal(data, &e); err != nil {
			return "", "", err
		}
		if e.Notification == nil {
			return "notification cleared", e.ViewID, nil
		}
		return fmt.Sprintf("[%s] %s", ui.RenderSeverity(e.Notification.Severity), e.Notification.Message), e.ViewID, nil
	}
	return "", "", fmt.Errorf("unexpected topic %q", topic)
}

// watchPoll re-fetches the view at interval and prints it when it changes.
func watchPoll(ctx context.Context, interval time.Duration, last *client.View) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
		v, err := historyClient.GetView(ctx, last.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("getting view: %w", err)
		}
		if viewChanged(last, v) {
			fmt.Println()
			printView(v)
		}
		last = v
	}
}

// viewChanged compares two snapshots by their JSON encoding.
func viewChanged(a, b *client.View) bool {
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	return string(ja) != string(jb)
}

func init() {
	watchCmd.Flags().Duration("interval", 2*time.Second, "polling interval when NATS is not configured")
}
