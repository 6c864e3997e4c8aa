package events

import (
	"context"
	"sync"

	"github.com/Samuel871933/buylav2-sub001/internal/contracts"
)

// MemoryDomainPublisher captures published envelopes for tests.
type MemoryDomainPublisher struct {
	mu     sync.Mutex
	Events []contracts.EventEnvelope
}

func NewMemoryDomainPublisher() *MemoryDomainPublisher {
	return &MemoryDomainPublisher{}
}

func (p *MemoryDomainPublisher) PublishDomain(_ context.Context, envelope contracts.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, envelope)
	return nil
}

func (p *MemoryDomainPublisher) ByType(eventType string) []contracts.EventEnvelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]contracts.EventEnvelope, 0)
	for _, evt := range p.Events {
		if evt.EventType == eventType {
			out = append(out, evt)
		}
	}
	return out
}

type MemoryOpsPublisher struct {
	mu     sync.Mutex
	Events []contracts.EventEnvelope
}

func NewMemoryOpsPublisher() *MemoryOpsPublisher {
	return &MemoryOpsPublisher{}
}

func (p *MemoryOpsPublisher) PublishOps(_ context.Context, envelope contracts.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, envelope)
	return nil
}

type MemoryDLQPublisher struct {
	mu      sync.Mutex
	Records []contracts.DLQRecord
}

func NewMemoryDLQPublisher() *MemoryDLQPublisher {
	return &MemoryDLQPublisher{}
}

func (p *MemoryDLQPublisher) PublishDLQ(_ context.Context, record contracts.DLQRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Records = append(p.Records, record)
	return nil
}
