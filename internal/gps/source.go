// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/gnss_enricher/internal/log"
)

// Sentence is one raw NMEA line as delivered by a source, stamped with its
// arrival time.
type Sentence struct {
	Text            string
	TimestampMillis int64
}

// OpenSerial opens the receiver's serial port.
// NOTE: typical ports are /dev/serial0, /dev/ttyAMA0, /dev/ttyACM0, /dev/ttyUSB0.
func OpenSerial(port string, baud uint) (io.ReadWriteCloser, error) {
	if port == "" {
		return nil, fmt.Errorf("gps serial port is empty")
	}
	if baud == 0 {
		baud = 9600
	}
	opts := serial.OpenOptions{
		PortName:              port,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	dev, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open %s at %d baud: %w", port, baud, err)
	}
	return dev, nil
}

// maxSentenceLen bounds one line. NMEA sentences are typically < 82 chars;
// anything longer than this is line noise and is skipped up to the next '\n'.
const maxSentenceLen = 4096

// ReadSentences reads lines from r and delivers every "$"-prefixed line to
// out in arrival order. Oversized lines (wrong baud rate, binary frames) are
// dropped and reading resumes at the next newline. It returns when r is
// exhausted (nil error), when reading fails, or when ctx is cancelled.
func ReadSentences(ctx context.Context, r io.Reader, out chan<- Sentence, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	logger := log.Named("gps")

	reader := bufio.NewReaderSize(r, maxSentenceLen)
	discarding := false

	for {
		chunk, err := reader.ReadSlice('\n')
		switch {
		case err == bufio.ErrBufferFull:
			if !discarding {
				logger.Debugf("dropping oversized line (> %d bytes)", maxSentenceLen)
			}
			discarding = true
			continue
		case discarding:
			// tail of the oversized line
			discarding = false
		default:
			line := strings.TrimSpace(string(chunk))
			// Receivers sometimes emit non-NMEA chatter.
			if strings.HasPrefix(line, "$") {
				s := Sentence{Text: line, TimestampMillis: now().UnixMilli()}
				select {
				case out <- s:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}

		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("gps read: %w", err)
		}
	}
}
