package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"go.bug.st/serial"
)

// PortOptions describes how to configure a serial port.
type PortOptions struct {
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 115200
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	switch parity {
	case "", "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}

	opts.Parity = parity
	return opts, nil
}

// SerialMode converts the port options into the mode used to open a port.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: serial.OneStopBit,
	}
	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}

	switch opts.Parity {
	case "N":
		mode.Parity = serial.NoParity
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	}

	return mode, nil
}

// openFunc opens a serial port; replaced in tests.
type openFunc func(path string, mode *serial.Mode) (io.ReadCloser, error)

func openPort(path string, mode *serial.Mode) (io.ReadCloser, error) {
	return serial.Open(path, mode)
}

// SerialSource reads CSV gyroscope lines from a serial port.
type SerialSource struct {
	path string
	opts PortOptions
	sink Sink
	now  func() time.Time
	open openFunc
}

// NewSerialSource creates a source reading from the port at path.
func NewSerialSource(path string, opts PortOptions, sink Sink) *SerialSource {
	return &SerialSource{
		path: path,
		opts: opts,
		sink: sink,
		now:  time.Now,
		open: openPort,
	}
}

// Path returns the serial device path.
func (s *SerialSource) Path() string {
	return s.path
}

// Run opens the port and feeds every reading to the sink until ctx is
// cancelled or the port fails. It returns nil after cancellation.
func (s *SerialSource) Run(ctx context.Context) error {
	mode, err := s.opts.SerialMode()
	if err != nil {
		return err
	}

	port, err := s.open(s.path, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	log.Printf("ingest: reading samples from %s at %d baud", s.path, mode.BaudRate)

	// Closing the port unblocks the pending read
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		port.Close()
	}()

	_, err = s.consume(port)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// consume reads lines from r until EOF and returns how many samples were fed.
func (s *SerialSource) consume(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	fed := 0

	for scanner.Scan() {
		sample, err := ParseLine(scanner.Text(), s.now())
		if err != nil {
			if !errors.Is(err, ErrBlankLine) {
				log.Printf("ingest: %s: skipping line: %v", s.path, err)
			}
			continue
		}
		feed(s.sink, sample)
		fed++
	}

	if err := scanner.Err(); err != nil {
		return fed, fmt.Errorf("read %s: %w", s.path, err)
	}
	return fed, nil
}
