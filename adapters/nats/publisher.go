package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	natsgo "github.com/nats-io/nats.go"
)

type PublisherConfig struct {
	Connect Connector
	// Subject receives every published value as JSON.
	Subject string
}

// Publisher sends values of type T as JSON messages to a core NATS subject.
type Publisher[T any] struct {
	nc      *natsgo.Conn
	subject string
	close   closeFunc
}

func NewPublisher[T any](cfg PublisherConfig) (*Publisher[T], error) {
	if cfg.Subject == "" {
		return nil, errors.New("subject is required")
	}
	doConnect := cfg.Connect
	if doConnect == nil {
		doConnect = ConnectDefault()
	}
	nc, closeConn, err := doConnect()
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &Publisher[T]{nc: nc, subject: cfg.Subject, close: closeConn}, nil
}

func (p *Publisher[T]) Publish(ctx context.Context, v T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}

func (p *Publisher[T]) Close() error {
	p.close()
	return nil
}
