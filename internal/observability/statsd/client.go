// Package statsd emits metrics over UDP in the DogStatsD line format.
package statsd

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Sink is the metric surface the rest of the application writes to.
// Every implementation must tolerate nil tag maps.
type Sink interface {
	Count(name string, value int64, tags map[string]string)
	Gauge(name string, value float64, tags map[string]string)
	Timing(name string, value time.Duration, tags map[string]string)
}

const (
	defaultPacketSize    = 1432
	defaultFlushInterval = time.Second
	dialTimeout          = 5 * time.Second
)

// Config describes the StatsD endpoint. An empty Address disables the client.
type Config struct {
	Address       string
	Prefix        string
	GlobalTags    map[string]string
	PacketSize    int
	FlushInterval time.Duration
	Logger        *slog.Logger
}

// Client batches metric lines into UDP packets of at most PacketSize bytes.
// Buffered lines are sent when the next line would not fit, on every
// FlushInterval tick, and on Close. It is safe for concurrent use.
type Client struct {
	prefix     string
	globalTags map[string]string
	packetSize int
	logger     *slog.Logger

	mu   sync.Mutex
	conn net.Conn
	buf  bytes.Buffer

	stop chan struct{}
	done chan struct{}
}

var _ Sink = (*Client)(nil)

// NewClient dials cfg.Address and starts the flush loop. It returns a nil
// client when no address is configured; a nil *Client discards everything.
func NewClient(cfg Config) (*Client, error) {
	address := strings.TrimSpace(cfg.Address)
	if address == "" {
		return nil, nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	conn, err := (&net.Dialer{}).DialContext(ctx, "udp", address)
	if err != nil {
		return nil, fmt.Errorf("statsd dial %s: %w", address, err)
	}

	c := &Client{
		prefix:     strings.Trim(strings.TrimSpace(cfg.Prefix), "."),
		globalTags: cfg.GlobalTags,
		packetSize: cfg.PacketSize,
		logger:     logger.With("component", "statsd"),
		conn:       conn,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	if c.packetSize <= 0 {
		c.packetSize = defaultPacketSize
	}
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	go c.flushLoop(interval)
	return c, nil
}

// Count adds value to a counter.
func (c *Client) Count(name string, value int64, tags map[string]string) {
	c.emit(name, strconv.FormatInt(value, 10), "c", tags)
}

// Gauge sets a gauge.
func (c *Client) Gauge(name string, value float64, tags map[string]string) {
	c.emit(name, strconv.FormatFloat(value, 'f', -1, 64), "g", tags)
}

// Timing records a duration in milliseconds.
func (c *Client) Timing(name string, value time.Duration, tags map[string]string) {
	ms := float64(value) / float64(time.Millisecond)
	c.emit(name, strconv.FormatFloat(ms, 'f', -1, 64), "ms", tags)
}

// Flush sends whatever is buffered.
func (c *Client) Flush() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
}

// Close stops the flush loop, sends the remaining buffer and closes the socket.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return nil
	}
	close(c.stop)
	c.mu.Unlock()
	<-c.done

	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) flushLoop(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.Flush()
		}
	}
}

func (c *Client) emit(name, value, kind string, tags map[string]string) {
	if c == nil {
		return
	}
	metric := c.metricName(name)
	if metric == "" {
		return
	}
	line := metric + ":" + value + "|" + kind + c.tagSuffix(tags)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	if c.buf.Len() > 0 && c.buf.Len()+1+len(line) > c.packetSize {
		c.flushLocked()
	}
	if c.buf.Len() > 0 {
		c.buf.WriteByte('\n')
	}
	c.buf.WriteString(line)
}

func (c *Client) flushLocked() {
	if c.buf.Len() == 0 || c.conn == nil {
		return
	}
	if _, err := c.conn.Write(c.buf.Bytes()); err != nil {
		c.logger.Debug("statsd write failed", "error", err, "bytes", c.buf.Len())
	}
	c.buf.Reset()
}

func (c *Client) metricName(name string) string {
	n := normalizeMetricName(name)
	switch {
	case n == "":
		return ""
	case c.prefix == "":
		return n
	default:
		return c.prefix + "." + n
	}
}

func (c *Client) tagSuffix(local map[string]string) string {
	if tags := formatTags(c.globalTags, local); tags != "" {
		return "|#" + tags
	}
	return ""
}

// normalizeMetricName maps characters the line protocol reserves to underscores.
func normalizeMetricName(name string) string {
	n := strings.Map(func(r rune) rune {
		switch r {
		case ':', '|', '@', '#', ',', ' ', '/', '\n':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	for strings.Contains(n, "..") {
		n = strings.ReplaceAll(n, "..", ".")
	}
	return strings.Trim(n, ".")
}

// formatTags renders tags as sorted key:value pairs joined by commas.
// Keys from override replace those in base.
func formatTags(base, override map[string]string) string {
	if len(base)+len(override) == 0 {
		return ""
	}
	merged := make(map[string]string, len(base)+len(override))
	for _, m := range []map[string]string{base, override} {
		for k, v := range m {
			if key := strings.TrimSpace(k); key != "" {
				merged[key] = strings.NewReplacer("|", "_", ",", "_", "\n", "_").Replace(strings.TrimSpace(v))
			}
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(merged[k])
	}
	return b.String()
}
