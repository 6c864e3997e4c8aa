package ports

import (
	"context"

	"github.com/Samuel871933/buylav2-sub001/internal/contracts"
)

type DomainPublisher interface {
	PublishDomain(ctx context.Context, envelope contracts.EventEnvelope) error
}

type OpsPublisher interface {
	PublishOps(ctx context.Context, envelope contracts.EventEnvelope) error
}

type DLQPublisher interface {
	PublishDLQ(ctx context.Context, record contracts.DLQRecord) error
}
