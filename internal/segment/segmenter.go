// Package segment routes the lines of one connection to its channels.
//
// Lines outside any block go to the connection's static channel; a block,
// from its open marker to the matching close marker, is collected and sent
// to the connection's dynamic channel as one submission.
package segment

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/bft-labs/bulkd/internal/batch"
	"github.com/bft-labs/bulkd/internal/ports"
	"github.com/bft-labs/bulkd/internal/registry"
)

// Ingress is the channel API the segmenter drives.
// *registry.Registry satisfies this interface.
type Ingress interface {
	Connect(capacity int, kind batch.Kind) (registry.Handle, error)
	Receive(h registry.Handle, data []byte) error
	Disconnect(h registry.Handle) error
}

// Segmenter splits one connection's lines between a static and a dynamic channel.
// A Segmenter is owned by a single connection goroutine.
type Segmenter struct {
	ingress  Ingress
	capacity int
	logger   ports.Logger

	tracker batch.Tracker

	static      strings.Builder
	staticCount int
	staticH     registry.Handle

	dynamic  strings.Builder
	dynamicH registry.Handle

	closed bool
}

// New creates a segmenter and connects its static channel.
func New(ingress Ingress, capacity int, logger ports.Logger) (*Segmenter, error) {
	h, err := ingress.Connect(capacity, batch.KindStatic)
	if err != nil {
		return nil, err
	}
	return &Segmenter{
		ingress:  ingress,
		capacity: capacity,
		logger:   logger,
		staticH:  h,
	}, nil
}

// Feed routes one line. more reports whether further input is already
// buffered; when it is false, pending content is handed to the channels
// early instead of waiting for a boundary.
func (s *Segmenter) Feed(line string, more bool) error {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return nil
	}

	step := s.tracker.Step(line)
	switch step.Kind {
	case batch.StepOpen, batch.StepNested:
		appendLine(&s.dynamic, line)
		return nil
	case batch.StepClose:
		appendLine(&s.dynamic, line)
		if step.Closed || !more {
			return s.submitDynamic()
		}
		return nil
	}

	appendLine(&s.static, line)
	s.staticCount++
	if s.staticCount >= s.capacity || !more {
		return s.submitStatic()
	}
	return nil
}

// Consume reads newline-terminated lines from r until EOF.
// An unterminated last line is fed as well.
// It does not close the segmenter.
func (s *Segmenter) Consume(r *bufio.Reader) error {
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			more := r.Buffered() > 0
			if ferr := s.Feed(strings.TrimSuffix(line, "\n"), more); ferr != nil {
				return ferr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// Depth returns the number of unmatched open markers.
func (s *Segmenter) Depth() int {
	return s.tracker.Depth()
}

// Close submits partial static content and any open block, whatever its
// depth, and disconnects both channels. Calling Close again is a no-op.
func (s *Segmenter) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.staticCount > 0 {
		errs = append(errs, s.submitStatic())
	}
	errs = append(errs, s.ingress.Disconnect(s.staticH))

	if s.dynamic.Len() > 0 {
		errs = append(errs, s.submitDynamic())
	}
	if !s.dynamicH.IsZero() {
		errs = append(errs, s.ingress.Disconnect(s.dynamicH))
	}
	s.tracker.Reset()

	return errors.Join(errs...)
}

func (s *Segmenter) submitStatic() error {
	data := s.static.String()
	s.static.Reset()
	s.staticCount = 0
	return s.ingress.Receive(s.staticH, []byte(data))
}

func (s *Segmenter) submitDynamic() error {
	if s.dynamicH.IsZero() {
		h, err := s.ingress.Connect(s.capacity, batch.KindDynamic)
		if err != nil {
			return err
		}
		s.dynamicH = h
		s.logger.Debug("dynamic channel connected")
	}
	data := s.dynamic.String()
	s.dynamic.Reset()
	return s.ingress.Receive(s.dynamicH, []byte(data))
}

func appendLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteByte('\n')
}
