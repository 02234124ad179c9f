package commsutil

import (
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
)

const connectTestPrefix = "commsutil:connect_test"

func TestConnect_Unreachable(t *testing.T) {
	nc, err := Connect("nats://127.0.0.1:1", ConnectOptions{Name: "orchestrator-test", Timeout: 200 * time.Millisecond})
	if err == nil {
		nc.Close()
		t.Fatalf("%s - expected error for unreachable server", connectTestPrefix)
	}
	if nc != nil {
		t.Errorf("%s - expected nil connection on error", connectTestPrefix)
	}
}

func TestConnect_AndDrain(t *testing.T) {
	ns, err := commsserver.NewServer(&commsserver.Options{Host: "127.0.0.1", Port: -1, NoLog: true, NoSigs: true})
	if err != nil {
		t.Fatalf("%s - failed to create server: %v", connectTestPrefix, err)
	}
	go ns.Start()
	defer ns.Shutdown()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatalf("%s - server failed to start", connectTestPrefix)
	}

	nc, err := Connect(ns.ClientURL(), ConnectOptions{Name: "orchestrator-test"})
	if err != nil {
		t.Fatalf("%s - Connect: %v", connectTestPrefix, err)
	}
	if nc.Opts.Name != "orchestrator-test" {
		t.Errorf("%s - Name = %q, want orchestrator-test", connectTestPrefix, nc.Opts.Name)
	}
	if nc.Opts.MaxReconnect != defaultMaxReconnects {
		t.Errorf("%s - MaxReconnect = %d, want %d", connectTestPrefix, nc.Opts.MaxReconnect, defaultMaxReconnects)
	}

	Drain(nc)
	deadline := time.Now().Add(5 * time.Second)
	for !nc.IsClosed() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !nc.IsClosed() {
		t.Errorf("%s - connection not closed after Drain", connectTestPrefix)
	}

	// Draining a closed or nil connection is a no-op.
	Drain(nc)
	Drain(nil)
}
