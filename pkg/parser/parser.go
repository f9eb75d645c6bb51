package parser

import (
	"sort"
	"sync"
)

// Parser turns one raw telemetry frame into named field values
type Parser interface {
	// Format returns the frame format identifier, e.g. "maiota"
	Format() string

	// Parse converts a frame into field values. Malformed input yields an
	// empty or partial map, never an error.
	Parse(frame string) map[string]float64

	// Fields returns the field table the parser maps keys through
	Fields() FieldMap
}

// Registry holds all registered parsers
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// NewRegistry creates a new parser registry
func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string]Parser),
	}
}

// Register adds a parser to the registry
func (r *Registry) Register(p Parser) {
	if p == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.parsers[p.Format()] = p
}

// Get retrieves a parser by frame format
func (r *Registry) Get(format string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.parsers[format]
	return p, ok
}

// All returns all registered parsers ordered by format
func (r *Registry) All() []Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parsers := make([]Parser, 0, len(r.parsers))
	for _, p := range r.parsers {
		parsers = append(parsers, p)
	}
	sort.Slice(parsers, func(i, j int) bool {
		return parsers[i].Format() < parsers[j].Format()
	})
	return parsers
}
