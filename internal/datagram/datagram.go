// Package datagram implements the Datagram Service (spec.md §4.7): a
// UDP accept loop that decodes, dispatches, and answers device requests.
package datagram

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/fleetfw/backend/internal/aead"
	"github.com/fleetfw/backend/internal/dispatcher"
	"github.com/fleetfw/backend/internal/envelope"
	"github.com/fleetfw/backend/internal/pkg/goroutine"
)

// MaxDatagramSize bounds a single inbound read (spec.md §4.7).
const MaxDatagramSize = 2048

// Service binds one net.PacketConn and answers device datagrams.
type Service struct {
	conn     net.PacketConn
	resolver envelope.KeyResolver
	dispatch *dispatcher.Dispatcher
	async    *goroutine.Manager
}

// New constructs a Service. conn is expected to already be bound (e.g.
// via net.ListenPacket("udp", addr)).
func New(conn net.PacketConn, resolver envelope.KeyResolver, dispatch *dispatcher.Dispatcher, async *goroutine.Manager) *Service {
	return &Service{conn: conn, resolver: resolver, dispatch: dispatch, async: async}
}

// Serve runs the accept loop until ctx is canceled or the connection
// fails. Each datagram is dispatched on the bounded goroutine manager so
// a slow catalog/blob-store call never blocks the next ReadFrom.
func (s *Service) Serve(ctx context.Context) error {
	buf := make([]byte, MaxDatagramSize)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, addr, err := s.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return ctx.Err()
			}
			slog.ErrorContext(ctx, "datagram read failed", "error", err)
			continue
		}

		msg := make([]byte, n)
		copy(msg, buf[:n])

		s.async.Go(ctx, func(ctx context.Context) error {
			s.handle(ctx, addr, msg)
			return nil
		})
	}
}

// handle decodes-and-decrypts one datagram, dispatches it, and sends the
// matching encrypted response. Any decode/decrypt failure is a silent
// drop (spec.md §4.7 step 2): logged with the remote address only, never
// the payload or key material.
func (s *Service) handle(ctx context.Context, addr net.Addr, msg []byte) {
	decoded, err := envelope.Decode(ctx, s.resolver, msg)
	if err != nil {
		slog.WarnContext(ctx, "dropping undecodable datagram", "remote", addr.String(), "error", err)
		return
	}
	defer aead.Zero(decoded.Key)

	respOpcode, respPlaintext := s.dispatch.Dispatch(ctx, decoded.DeviceID, decoded.Opcode, decoded.Plaintext)

	respMsg, err := envelope.Encode(decoded.Algorithm, decoded.Key, decoded.DeviceID, respOpcode, respPlaintext)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode response envelope", "remote", addr.String(), "device_id", decoded.DeviceID, "error", err)
		return
	}

	if _, err := s.conn.WriteTo(respMsg, addr); err != nil {
		slog.WarnContext(ctx, "failed to send response datagram", "remote", addr.String(), "error", err)
	}
}
