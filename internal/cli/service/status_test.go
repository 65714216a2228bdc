package service

import (
	"testing"

	svc "github.com/danieljhkim/bigdata-wsl/internal/service"
)

func TestStatusRows(t *testing.T) {
	rows := statusRows([]svc.ServiceStatus{
		{Stage: "hdfs", Name: "namenode", Running: true, Healthy: true, PID: 42, Check: "port 9000"},
		{Stage: "hdfs", Name: "datanode", Running: true, PID: 43, Check: "port 9866"},
		{Stage: "kafka", Name: "kafka", Check: "port 9092"},
	})

	tests := []struct {
		name, status, detail string
		ok                   bool
	}{
		{"hdfs/namenode", "running", "pid 42, port 9000", true},
		{"hdfs/datanode", "unhealthy", "pid 43, port 9866", false},
		{"kafka/kafka", "stopped", "port 9092", false},
	}
	if len(rows) != len(tests) {
		t.Fatalf("got %d rows, want %d", len(rows), len(tests))
	}
	for i, tt := range tests {
		r := rows[i]
		if r.Name != tt.name || r.Status != tt.status || r.Detail != tt.detail || r.Ok != tt.ok {
			t.Errorf("row %d = %+v, want %+v", i, r, tt)
		}
	}
}
