// Package natsutil provides typed NATS publish/subscribe/request helpers
// with OpenTelemetry trace propagation.
package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

// natsHeaderCarrier adapts nats.Msg headers for OTel TextMapCarrier.
type natsHeaderCarrier nats.Msg

func (c *natsHeaderCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *natsHeaderCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *natsHeaderCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// Connect dials url with reconnects enabled and connection events logged.
func Connect(url, name string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	return nc, nil
}

func newMsg[T any](ctx context.Context, subject string, v T) (*nats.Msg, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	msg := &nats.Msg{Subject: subject, Data: data}
	otel.GetTextMapPropagator().Inject(ctx, (*natsHeaderCarrier)(msg))
	return msg, nil
}

// Publish serializes v as JSON and publishes to the given subject.
// Trace context from ctx is injected into NATS message headers.
func Publish[T any](ctx context.Context, nc *nats.Conn, subject string, v T) error {
	msg, err := newMsg(ctx, subject, v)
	if err != nil {
		return err
	}
	return nc.PublishMsg(msg)
}

// Subscribe registers a handler that deserializes JSON messages of type T.
// Trace context is extracted from NATS message headers and passed to the
// handler. Malformed messages are dropped and reported to onBad, if set.
func Subscribe[T any](nc *nats.Conn, subject string, handler func(context.Context, T), onBad func(*nats.Msg, error)) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		var v T
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			if onBad != nil {
				onBad(msg, err)
			}
			return
		}
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*natsHeaderCarrier)(msg))
		handler(ctx, v)
	})
}

// Request sends a JSON-encoded request and decodes the response. The wait is
// bounded by ctx's deadline, or nats.DefaultTimeout when ctx has none.
func Request[Req, Resp any](ctx context.Context, nc *nats.Conn, subject string, req Req) (Resp, error) {
	var zero Resp
	msg, err := newMsg(ctx, subject, req)
	if err != nil {
		return zero, err
	}
	timeout := nats.DefaultTimeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	resp, err := nc.RequestMsg(msg, timeout)
	if err != nil {
		return zero, err
	}
	if e := resp.Header.Get(errorHeader); e != "" {
		return zero, &RemoteError{Subject: subject, Msg: e}
	}
	var result Resp
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return zero, err
	}
	return result, nil
}

const errorHeader = "Kashf-Error"

// RemoteError is a failure reported by the responder of a Request.
type RemoteError struct {
	Subject string
	Msg     string
}

func (e *RemoteError) Error() string { return fmt.Sprintf("%s: %s", e.Subject, e.Msg) }

// IsRemote reports whether err was returned by a responder.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// Respond serves JSON requests on subject. Handler errors travel back to the
// requester in a header and surface there as *RemoteError.
func Respond[Req, Resp any](nc *nats.Conn, subject string, handler func(context.Context, Req) (Resp, error)) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*natsHeaderCarrier)(msg))
		reply := &nats.Msg{Subject: msg.Reply, Header: nats.Header{}}

		var req Req
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			reply.Header.Set(errorHeader, "malformed request: "+err.Error())
			_ = msg.RespondMsg(reply)
			return
		}
		resp, err := handler(ctx, req)
		if err == nil {
			reply.Data, err = json.Marshal(resp)
		}
		if err != nil {
			reply.Header.Set(errorHeader, err.Error())
			reply.Data = nil
		}
		_ = msg.RespondMsg(reply)
	})
}
