package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/nfrund/relay/internal/topicmgr"
)

// Event[T] wraps a topic name and provides type-safe publishing and
// subscribing. Its topic is registered with the default topic manager.
type Event[T any] struct {
	topic topicmgr.Topic
}

// NewEvent creates a typed module event. The module is the first segment
// of name ("updates.requested" belongs to "updates").
func NewEvent[T any](name, description string) Event[T] {
	module, _, _ := strings.Cut(name, ".")
	cfg := eventConfig[T](name, description)
	cfg.Module = module
	return register[T](topicmgr.DefineModule(cfg))
}

// NewFrameworkEvent creates a typed event owned by the connection layer.
func NewFrameworkEvent[T any](name, description string) Event[T] {
	return register[T](topicmgr.DefineFramework(eventConfig[T](name, description)))
}

func register[T any](topic topicmgr.Topic) Event[T] {
	// Events are defined at package level, so a failure here is a
	// programming error that should stop startup.
	topicmgr.Default().MustRegister(topic)
	return Event[T]{topic: topic}
}

// eventConfig documents the payload fields of T from its json tags.
func eventConfig[T any](name, description string) topicmgr.TopicConfig {
	var zero T
	t := reflect.TypeOf(zero)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	fields := make([]string, 0)
	typeName := ""
	example := map[string]any{}
	if t != nil {
		typeName = t.Name()
		if t.Kind() == reflect.Struct {
			for i := 0; i < t.NumField(); i++ {
				tag, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
				if tag != "" && tag != "-" {
					fields = append(fields, tag)
					example[tag] = "..."
				}
			}
		}
	}
	ex, _ := json.Marshal(example)

	return topicmgr.TopicConfig{
		Name:        name,
		Description: description,
		Pattern:     name,
		Example:     string(ex),
		Metadata: map[string]any{
			"payload_fields": fields,
			"type_name":      typeName,
			"is_typed":       true,
		},
	}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topic.Name()
}

// Topic returns the registered topic definition.
func (e Event[T]) Topic() topicmgr.Topic {
	return e.topic
}

// Publish sends a typed event. The compiler ensures 'payload' matches 'T'.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.Name(), err)
	}
	return p.Publish(ctx, Message{
		Topic:   event.Name(),
		Payload: data,
	})
}

// Subscribe decodes every message of event into T before calling fn.
// Messages that do not decode are reported as handler errors.
func Subscribe[T any](ctx context.Context, s Subscriber, event Event[T], fn func(ctx context.Context, payload T) error) error {
	return s.Subscribe(ctx, event.Name(), func(ctx context.Context, msg Message) error {
		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", event.Name(), err)
		}
		return fn(ctx, payload)
	})
}
