package topicmgr

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

type entry struct {
	topic        Topic
	registeredAt time.Time
}

// Manager is the central topic catalogue.
type Manager struct {
	mu        sync.RWMutex
	entries   map[string]entry
	validator *Validator
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		entries:   make(map[string]entry),
		validator: NewValidator(),
	}
}

// DefineFramework creates a topic owned by the connection layer.
func DefineFramework(config TopicConfig) Topic {
	config.Scope = ScopeFramework
	config.Module = ""
	return newTypedTopic(config)
}

// DefineModule creates a topic owned by a domain module.
func DefineModule(config TopicConfig) Topic {
	config.Scope = ScopeModule
	return newTypedTopic(config)
}

func newTypedTopic(config TopicConfig) *TypedTopic {
	return &TypedTopic{
		name:        config.Name,
		module:      config.Module,
		description: config.Description,
		pattern:     config.Pattern,
		example:     config.Example,
		metadata:    config.Metadata,
		scope:       config.Scope,
	}
}

// Register validates topic and adds it to the catalogue.
func (m *Manager) Register(topic Topic) error {
	if err := m.validator.ValidateDefinition(topic); err != nil {
		te := &TopicError{
			Type:    ErrorValidationFailed,
			Message: "topic validation failed",
			Cause:   err,
		}
		if topic != nil {
			te.Topic = topic.Name()
			te.Module = topic.Module()
		}
		return te
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	name := topic.Name()
	if _, exists := m.entries[name]; exists {
		return &TopicError{
			Type:    ErrorDuplicateRegistration,
			Topic:   name,
			Module:  topic.Module(),
			Message: fmt.Sprintf("topic already registered: %s", name),
		}
	}
	m.entries[name] = entry{topic: topic, registeredAt: time.Now()}
	return nil
}

// MustRegister registers a topic and panics on error. It is meant for
// package-level topic definitions.
func (m *Manager) MustRegister(topic Topic) {
	if err := m.Register(topic); err != nil {
		panic(fmt.Sprintf("failed to register topic %s: %v", topic.Name(), err))
	}
}

// Get retrieves a topic by name.
func (m *Manager) Get(name string) (Topic, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[name]
	if !ok {
		return nil, false
	}
	return e.topic, true
}

// List returns every registered topic ordered by name.
func (m *Manager) List() []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	topics := make([]Topic, 0, len(m.entries))
	for _, e := range m.entries {
		topics = append(topics, e.topic)
	}
	slices.SortFunc(topics, func(a, b Topic) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return topics
}

// ListByScope returns the registered topics of one scope ordered by name.
func (m *Manager) ListByScope(scope TopicScope) []Topic {
	var out []Topic
	for _, t := range m.List() {
		if t.Scope() == scope {
			out = append(out, t)
		}
	}
	return out
}

// Count returns the number of registered topics.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// Default returns the process-wide manager.
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

// List returns all topics from the default manager.
func List() []Topic {
	return Default().List()
}

// Get retrieves a topic from the default manager.
func Get(name string) (Topic, bool) {
	return Default().Get(name)
}
