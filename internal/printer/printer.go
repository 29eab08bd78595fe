// Package printer sends receipts to network thermal printers over the raw
// port 9100 protocol.
package printer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/engine/receipt"
	"github.com/corray333/backend-labs/pos/internal/service/models/shopsettings"
	"github.com/spf13/viper"
)

// ErrPrinterNotConfigured is returned when the shop settings carry no printer address.
var ErrPrinterNotConfigured = errors.New("printer is not configured")

// RawPort is the port of the raw printing protocol.
const RawPort = "9100"

// feedAndCut feeds four lines and performs a partial cut (ESC d 4, GS V 1).
var feedAndCut = []byte{0x1b, 'd', 4, 0x1d, 'V', 1}

type dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// NetworkDispatcher prints receipts on the printer named in the shop settings.
type NetworkDispatcher struct {
	dialer  dialer
	timeout time.Duration
	width   int
	port    string
}

// option is a function that configures the NetworkDispatcher.
type option func(*NetworkDispatcher)

// NewNetworkDispatcher creates a dispatcher. The timeout defaults to printer.timeout.
func NewNetworkDispatcher(opts ...option) *NetworkDispatcher {
	timeout := viper.GetDuration("printer.timeout")
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	d := &NetworkDispatcher{
		dialer:  &net.Dialer{},
		timeout: timeout,
		width:   receipt.DefaultWidth,
		port:    RawPort,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// WithTimeout bounds dialing and writing.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithTimeout(timeout time.Duration) option {
	return func(d *NetworkDispatcher) {
		d.timeout = timeout
	}
}

// WithWidth sets the paper width in characters.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithWidth(width int) option {
	return func(d *NetworkDispatcher) {
		d.width = width
	}
}

// WithPort overrides the printer port.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPort(port string) option {
	return func(d *NetworkDispatcher) {
		d.port = port
	}
}

// Dispatch opens a connection to the printer, writes the receipt and closes it.
func (d *NetworkDispatcher) Dispatch(
	ctx context.Context,
	doc receipt.Document,
	settings shopsettings.ShopSettings,
) error {
	if settings.PrinterIP == "" {
		return ErrPrinterNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	addr := net.JoinHostPort(settings.PrinterIP, d.port)
	conn, err := d.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to printer %s: %w", addr, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Warn("Failed to close printer connection", "printer", addr, "error", err)
		}
	}()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("failed to set printer deadline: %w", err)
		}
	}

	payload := append([]byte(doc.Text(d.width)), feedAndCut...)
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("failed to write to printer %s: %w", addr, err)
	}

	slog.Info("Receipt sent to printer", "printer", addr, "printer_name", settings.PrinterName, "bytes", len(payload))

	return nil
}
