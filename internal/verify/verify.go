// Package verify runs the post-install smoke checks against the running
// stack.
package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/service"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

// SmokeTopic is created on first verification and reused afterwards.
const SmokeTopic = "bigdata-smoke"

// Result is the outcome of one verification check.
type Result struct {
	Name     string
	Err      error
	Optional bool // a failure is reported but does not fail the run
	Detail   string
}

// Report collects results in the order they ran.
type Report struct {
	Results []Result
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
}

// Failed reports whether a required check failed.
func (r *Report) Failed() bool {
	return r.Err() != nil
}

// Err returns a ServiceStart error for the first failed required check.
func (r *Report) Err() error {
	for _, res := range r.Results {
		if res.Err != nil && !res.Optional {
			return install.Wrap(install.ServiceStart, "verify "+res.Name, res.Err)
		}
	}
	return nil
}

// Rows renders the report for util.StatusTable.
func (r *Report) Rows() []util.StatusTableRow {
	rows := make([]util.StatusTableRow, 0, len(r.Results))
	for _, res := range r.Results {
		row := util.StatusTableRow{Name: res.Name, Status: "ok", Detail: res.Detail, Ok: true}
		if res.Err != nil {
			row.Status, row.Ok, row.Detail = "failed", false, res.Err.Error()
			if res.Optional {
				row.Status = "warning"
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Deps are the probes a Verifier runs. Nil functions are skipped.
type Deps struct {
	Stack      *service.Stack
	Supervisor *service.Supervisor
	HDFSUser   func(ctx context.Context) error
	ZooKeeper  []string
	Brokers    []string
	SSHLogin   func(ctx context.Context) error
	Timeout    time.Duration
	Log        *zap.Logger
}

// Verifier runs the verification pass.
type Verifier struct {
	deps Deps
}

// New creates a Verifier.
func New(deps Deps) *Verifier {
	if deps.Timeout <= 0 {
		deps.Timeout = 10 * time.Second
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Verifier{deps: deps}
}

// Run executes every check. It never stops early so the report is complete.
func (v *Verifier) Run(ctx context.Context) *Report {
	report := &Report{}

	if v.deps.Stack != nil {
		for _, d := range v.deps.Stack.Daemons() {
			err := d.Health.Check(ctx)
			report.add(Result{Name: d.Name, Err: err, Optional: d.Optional, Detail: d.Health.String()})
		}
	}
	if v.deps.HDFSUser != nil {
		report.add(Result{Name: "hdfs user dir", Err: v.deps.HDFSUser(ctx)})
	}
	if len(v.deps.ZooKeeper) > 0 {
		n, err := v.brokerIDs(ctx)
		report.add(Result{Name: "zookeeper brokers", Err: err, Detail: fmt.Sprintf("%d registered", n)})
	}
	if len(v.deps.Brokers) > 0 {
		detail, err := v.kafkaSmoke()
		report.add(Result{Name: "kafka produce", Err: err, Detail: detail})
	}
	if v.deps.SSHLogin != nil {
		report.add(Result{Name: "ssh localhost", Err: v.deps.SSHLogin(ctx), Optional: true})
	}

	for _, res := range report.Results {
		if res.Err != nil {
			v.deps.Log.Warn("verification failed", zap.String("check", res.Name), zap.Error(res.Err))
		}
	}
	return report
}

// brokerIDs counts the brokers registered under /brokers/ids.
func (v *Verifier) brokerIDs(ctx context.Context) (int, error) {
	conn, err := service.ConnectZooKeeper(ctx, v.deps.ZooKeeper, v.deps.Timeout, v.deps.Log)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	ids, _, err := conn.Children("/brokers/ids")
	if err != nil {
		return 0, fmt.Errorf("list /brokers/ids: %w", err)
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("no broker registered in zookeeper")
	}
	return len(ids), nil
}

// kafkaSmoke creates SmokeTopic if missing and produces one message to it.
func (v *Verifier) kafkaSmoke() (string, error) {
	cfg := service.NewSaramaConfig(v.deps.Timeout)
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3

	admin, err := sarama.NewClusterAdmin(v.deps.Brokers, cfg)
	if err != nil {
		return "", fmt.Errorf("kafka admin: %w", err)
	}
	defer admin.Close()

	topics, err := admin.ListTopics()
	if err != nil {
		return "", fmt.Errorf("list topics: %w", err)
	}
	if _, ok := topics[SmokeTopic]; !ok {
		err := admin.CreateTopic(SmokeTopic, &sarama.TopicDetail{NumPartitions: 1, ReplicationFactor: 1}, false)
		if err != nil && !isTopicExists(err) {
			return "", fmt.Errorf("create topic %s: %w", SmokeTopic, err)
		}
	}

	producer, err := sarama.NewSyncProducer(v.deps.Brokers, cfg)
	if err != nil {
		return "", fmt.Errorf("kafka producer: %w", err)
	}
	defer producer.Close()

	partition, offset, err := producer.SendMessage(&sarama.ProducerMessage{
		Topic: SmokeTopic,
		Key:   sarama.StringEncoder("verify"),
		Value: sarama.StringEncoder(time.Now().UTC().Format(time.RFC3339)),
	})
	if err != nil {
		return "", fmt.Errorf("produce to %s: %w", SmokeTopic, err)
	}
	return fmt.Sprintf("%s[%d]@%d", SmokeTopic, partition, offset), nil
}

func isTopicExists(err error) bool {
	var topicErr *sarama.TopicError
	return errors.As(err, &topicErr) && topicErr.Err == sarama.ErrTopicAlreadyExists
}
