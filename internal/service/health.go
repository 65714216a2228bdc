package service

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/sarama"
	zk "github.com/linkedin/go-zk"
	"go.uber.org/zap"

	"github.com/danieljhkim/bigdata-wsl/internal/runner"
)

// HealthCheck reports whether a daemon is serving. Check returns nil when
// healthy.
type HealthCheck interface {
	Check(ctx context.Context) error
	String() string
}

// PortCheck succeeds when a TCP connection to Host:Port is accepted.
type PortCheck struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// Port returns a PortCheck against localhost.
func Port(port int) PortCheck {
	return PortCheck{Host: "localhost", Port: port, Timeout: 2 * time.Second}
}

// Addr returns host:port.
func (p PortCheck) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

func (p PortCheck) Check(ctx context.Context) error {
	d := net.Dialer{Timeout: p.Timeout}
	conn, err := d.DialContext(ctx, "tcp", p.Addr())
	if err != nil {
		return err
	}
	return conn.Close()
}

func (p PortCheck) String() string {
	return "port " + strconv.Itoa(p.Port)
}

// CommandCheck runs a command and succeeds when it exits 0 and, if Expect
// is set, its output contains Expect.
type CommandCheck struct {
	Runner runner.Runner
	Name   string
	Args   []string
	Expect string
}

// Command returns a CommandCheck.
func Command(r runner.Runner, expect, name string, args ...string) CommandCheck {
	return CommandCheck{Runner: r, Name: name, Args: args, Expect: expect}
}

func (c CommandCheck) Check(ctx context.Context) error {
	res, err := c.Runner.Run(ctx, c.Name, c.Args...)
	if err != nil {
		return err
	}
	if !res.Success() {
		return fmt.Errorf("%s exited with %d", c.String(), res.ExitCode)
	}
	if c.Expect != "" && !strings.Contains(res.Output(), c.Expect) {
		return fmt.Errorf("%s: output does not contain %q", c.String(), c.Expect)
	}
	return nil
}

func (c CommandCheck) String() string {
	return runner.Call{Name: c.Name, Args: c.Args}.String()
}

// ZooKeeperCheck succeeds when a session can be established and the root
// znode read.
type ZooKeeperCheck struct {
	Servers []string
	Timeout time.Duration
	Log     *zap.Logger
}

func (z ZooKeeperCheck) Check(ctx context.Context) error {
	conn, err := ConnectZooKeeper(ctx, z.Servers, z.Timeout, z.Log)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, _, err := conn.Exists("/"); err != nil {
		return fmt.Errorf("zookeeper: %w", err)
	}
	return nil
}

func (z ZooKeeperCheck) String() string {
	return "zookeeper " + strings.Join(z.Servers, ",")
}

// ConnectZooKeeper opens a session and waits until it is established or
// timeout elapses.
func ConnectZooKeeper(ctx context.Context, servers []string, timeout time.Duration, log *zap.Logger) (*zk.Conn, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	logEvents := zk.WithEventCallback(func(ev zk.Event) {
		if ev.Type == zk.EventSession {
			log.Debug("zookeeper session event", zap.Stringer("state", ev.State), zap.Strings("servers", servers))
		}
	})

	conn, events, err := zk.Connect(servers, timeout, logEvents)
	if err != nil {
		return nil, err
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case ev := <-events:
			if ev.State == zk.StateHasSession {
				return conn, nil
			}
		case <-deadline.C:
			conn.Close()
			return nil, fmt.Errorf("zookeeper: no session with %s within %s", strings.Join(servers, ","), timeout)
		case <-ctx.Done():
			conn.Close()
			return nil, ctx.Err()
		}
	}
}

// KafkaCheck succeeds when the broker answers a metadata request and lists
// at least one registered broker.
type KafkaCheck struct {
	Brokers []string
	Timeout time.Duration
}

// NewSaramaConfig returns the client configuration used against the local
// broker.
func NewSaramaConfig(timeout time.Duration) *sarama.Config {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	cfg := sarama.NewConfig()
	cfg.ClientID = "bigdata-installer"
	cfg.Version = sarama.V3_6_0_0
	cfg.Net.DialTimeout = timeout
	cfg.Net.ReadTimeout = timeout
	cfg.Net.WriteTimeout = timeout
	cfg.Metadata.Retry.Max = 0
	cfg.Metadata.Full = false
	return cfg
}

func (k KafkaCheck) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := sarama.NewClient(k.Brokers, NewSaramaConfig(k.Timeout))
	if err != nil {
		return fmt.Errorf("kafka: %w", err)
	}
	defer client.Close()

	if len(client.Brokers()) == 0 {
		return fmt.Errorf("kafka: no brokers registered")
	}
	if _, err := client.Controller(); err != nil {
		return fmt.Errorf("kafka: no controller: %w", err)
	}
	return nil
}

func (k KafkaCheck) String() string {
	return "kafka " + strings.Join(k.Brokers, ",")
}

type allOf []HealthCheck

// AllOf succeeds when every check succeeds, evaluated in order.
func AllOf(checks ...HealthCheck) HealthCheck {
	return allOf(checks)
}

func (a allOf) Check(ctx context.Context) error {
	for _, c := range a {
		if err := c.Check(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a allOf) String() string {
	parts := make([]string, 0, len(a))
	for _, c := range a {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " + ")
}
