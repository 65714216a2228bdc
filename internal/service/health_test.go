package service

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZooKeeperCheck_NoServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	check := ZooKeeperCheck{Servers: []string{addr}, Timeout: 300 * time.Millisecond, Log: zap.New(core)}

	if err := check.Check(context.Background()); err == nil {
		t.Fatal("Check() against a closed port should fail")
	}
	if logs.FilterMessage("zookeeper session event").Len() == 0 {
		t.Error("session state changes were not logged")
	}
	if check.String() != "zookeeper "+addr {
		t.Errorf("String() = %q", check.String())
	}
}
