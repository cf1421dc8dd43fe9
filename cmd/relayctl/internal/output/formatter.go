// Package output renders relayctl listings as tables or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/internal/topicmgr"
)

// TopicDisplay represents a topic for display purposes
type TopicDisplay struct {
	Name        string         `json:"name"`
	Scope       string         `json:"scope"`
	Module      string         `json:"module"`
	Description string         `json:"description"`
	Pattern     string         `json:"pattern"`
	Example     string         `json:"example"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func newTopicDisplay(topic topicmgr.Topic) TopicDisplay {
	return TopicDisplay{
		Name:        topic.Name(),
		Scope:       string(topic.Scope()),
		Module:      topic.Module(),
		Description: topic.Description(),
		Pattern:     topic.Pattern(),
		Example:     topic.Example(),
		Metadata:    topic.Metadata(),
	}
}

// TopicsTable writes topics as an aligned table.
func TopicsTable(out io.Writer, topics []topicmgr.Topic) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "NAME\tSCOPE\tMODULE\tDESCRIPTION\tEXAMPLE")
	fmt.Fprintln(w, "----\t-----\t------\t-----------\t-------")

	if len(topics) == 0 {
		fmt.Fprintln(w, "No topics found")
		return
	}
	for _, topic := range topics {
		module := topic.Module()
		if module == "" {
			module = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			topic.Name(),
			topic.Scope(),
			module,
			truncateString(topic.Description(), 40),
			truncateString(topic.Example(), 30))
	}
}

// TopicsJSON writes topics as a JSON document with a count.
func TopicsJSON(out io.Writer, topics []topicmgr.Topic) error {
	displays := make([]TopicDisplay, len(topics))
	for i, topic := range topics {
		displays[i] = newTopicDisplay(topic)
	}

	return encode(out, struct {
		Topics []TopicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}{
		Topics: displays,
		Count:  len(displays),
	})
}

// TopicDetails writes everything known about one topic.
func TopicDetails(out io.Writer, topic topicmgr.Topic, format string) error {
	if format == "json" {
		return encode(out, newTopicDisplay(topic))
	}

	fmt.Fprintf(out, "Name:        %s\n", topic.Name())
	fmt.Fprintf(out, "Scope:       %s\n", topic.Scope())
	fmt.Fprintf(out, "Module:      %s\n", topic.Module())
	fmt.Fprintf(out, "Description: %s\n", topic.Description())
	fmt.Fprintf(out, "Pattern:     %s\n", topic.Pattern())
	fmt.Fprintf(out, "Example:     %s\n", topic.Example())
	return nil
}

// WireEvent describes one event clients can receive.
type WireEvent struct {
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	ActionKey string   `json:"action_key,omitempty"`
	Actions   []string `json:"actions,omitempty"`
}

// WireEvents lists the connection events followed by one update event per
// category. Category labels are title-cased for display.
func WireEvents() []WireEvent {
	title := cases.Title(language.English)
	events := []WireEvent{
		{Name: domain.EventConnectionConfirmed, Category: "Connection"},
		{Name: domain.EventError, Category: "Connection"},
	}
	for _, c := range domain.Categories() {
		events = append(events, WireEvent{
			Name:      c.EventName(),
			Category:  title.String(c.String()),
			ActionKey: c.ActionKey(),
			Actions:   c.Actions(),
		})
	}
	return events
}

// EventsTable writes events as an aligned table.
func EventsTable(out io.Writer, events []WireEvent) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "EVENT\tCATEGORY\tKEY\tACTIONS")
	fmt.Fprintln(w, "-----\t--------\t---\t-------")
	for _, e := range events {
		key, actions := e.ActionKey, strings.Join(e.Actions, ", ")
		if key == "" {
			key, actions = "-", "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, e.Category, key, actions)
	}
}

// EventsJSON writes events as a JSON document with a count.
func EventsJSON(out io.Writer, events []WireEvent) error {
	return encode(out, struct {
		Events []WireEvent `json:"events"`
		Count  int         `json:"count"`
	}{
		Events: events,
		Count:  len(events),
	})
}

func encode(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// truncateString truncates a string to maxLen characters, adding "..." if truncated
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
