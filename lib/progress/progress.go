// Package progress provides progress calculation and download tracking.
package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/cheggaaa/pb/v3"
	getter "github.com/hashicorp/go-getter"
)

const percentageMultiplier = 100 // Multiplier to convert decimal to percentage

// CalculatePercentage calculates the percentage of a given value relative to a total, formatted to two decimal places.
// It returns "0.00%" if the total is zero to prevent division by zero errors.
func CalculatePercentage(value, total float64) string {
	if total == 0 {
		return "0.00%"
	}

	percentage := (value / total) * percentageMultiplier

	return fmt.Sprintf("%.2f%%", percentage)
}

// DefaultProgressBar renders wordlist download progress on the terminal.
var DefaultProgressBar getter.ProgressTracker = &progressBar{} //nolint:gochecknoglobals // Shared tracker instance

// progressBar adapts a cheggaaa progress bar to go-getter's tracker
// interface. Only one download runs at a time, but the lock keeps the bar
// consistent if that ever changes.
type progressBar struct {
	lock sync.Mutex
	bar  *pb.ProgressBar
}

// TrackProgress wraps the download stream in a byte-counting progress bar
// that finishes when the stream closes.
func (p *progressBar) TrackProgress(src string, currentSize, totalSize int64, stream io.ReadCloser) io.ReadCloser {
	p.lock.Lock()
	defer p.lock.Unlock()

	bar := pb.Full.Start64(totalSize)
	bar.Set(pb.Bytes, true)
	bar.SetCurrent(currentSize)
	p.bar = bar

	reader := bar.NewProxyReader(stream)

	return &readCloser{
		Reader: reader,
		close: func() error {
			p.lock.Lock()
			defer p.lock.Unlock()

			bar.Finish()
			p.bar = nil

			return stream.Close()
		},
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (c *readCloser) Close() error { return c.close() }
