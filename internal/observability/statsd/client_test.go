package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

func listen(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readPacket(t *testing.T, conn *net.UDPConn) string {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("deadline: %v", err)
	}
	buf := make([]byte, 4096)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(buf[:n])
}

func TestNormalizeMetricName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" shell/barn_switch ": "shell_barn_switch",
		"http..requests":      "http.requests",
		"a:b|c#d":             "a_b_c_d",
		".shell.load.":        "shell.load",
		"   ":                 "",
	}
	for input, want := range tests {
		if got := normalizeMetricName(input); got != want {
			t.Fatalf("normalizeMetricName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatTags(t *testing.T) {
	t.Parallel()

	base := map[string]string{"env": "prod", " service ": " equinetracker "}
	override := map[string]string{"env": "stage", "": "ignored", "route": "GET /horses|x"}

	got := formatTags(base, override)
	want := "env:stage,route:GET /horses_x,service:equinetracker"
	if got != want {
		t.Fatalf("formatTags mismatch\n got: %q\nwant: %q", got, want)
	}
	if got := formatTags(nil, nil); got != "" {
		t.Fatalf("formatTags(nil, nil) = %q, want empty", got)
	}
}

func TestNewClient_NoAddressIsNil(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Address: "  "})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c != nil {
		t.Fatalf("expected nil client without an address")
	}
	// A nil client swallows everything.
	c.Count("shell.load", 1, nil)
	c.Flush()
	if err := c.Close(); err != nil {
		t.Fatalf("Close on nil client: %v", err)
	}
}

func TestClient_BatchesUntilFlush(t *testing.T) {
	t.Parallel()

	srv := listen(t)
	c, err := NewClient(Config{
		Address:       srv.LocalAddr().String(),
		Prefix:        ".equinetracker.",
		GlobalTags:    map[string]string{"env": "test"},
		FlushInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	c.Count("shell.barn_switch", 1, map[string]string{"result": "success"})
	c.Gauge("shell.barns", 2.5, nil)
	c.Timing("shell.load", 1500*time.Microsecond, map[string]string{"env": "override"})
	c.Flush()

	got := readPacket(t, srv)
	want := strings.Join([]string{
		"equinetracker.shell.barn_switch:1|c|#env:test,result:success",
		"equinetracker.shell.barns:2.5|g|#env:test",
		"equinetracker.shell.load:1.5|ms|#env:override",
	}, "\n")
	if got != want {
		t.Fatalf("packet mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestClient_SplitsAtPacketSize(t *testing.T) {
	t.Parallel()

	srv := listen(t)
	c, err := NewClient(Config{Address: srv.LocalAddr().String(), PacketSize: 16, FlushInterval: time.Hour})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	c.Count("aaaaaa", 1, nil) // 10 bytes
	c.Count("bbbbbb", 1, nil) // would make 21, so the first line goes out alone

	if got := readPacket(t, srv); got != "aaaaaa:1|c" {
		t.Fatalf("first packet = %q", got)
	}
	c.Flush()
	if got := readPacket(t, srv); got != "bbbbbb:1|c" {
		t.Fatalf("second packet = %q", got)
	}
}

func TestClient_CloseFlushesAndStops(t *testing.T) {
	t.Parallel()

	srv := listen(t)
	c, err := NewClient(Config{Address: srv.LocalAddr().String(), FlushInterval: time.Hour})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	c.Count("auth.login", 1, nil)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := readPacket(t, srv); got != "auth.login:1|c" {
		t.Fatalf("packet = %q", got)
	}

	// Emitting and closing again after Close are no-ops.
	c.Count("auth.login", 1, nil)
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestClient_FlushLoop(t *testing.T) {
	t.Parallel()

	srv := listen(t)
	c, err := NewClient(Config{Address: srv.LocalAddr().String(), FlushInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	c.Gauge("shell.barns", 3, nil)
	if got := readPacket(t, srv); got != "shell.barns:3|g" {
		t.Fatalf("packet = %q", got)
	}
}
