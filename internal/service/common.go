package service

// ServiceStatus represents the status of a daemon
type ServiceStatus struct {
	Stage   string // Stage the daemon belongs to (e.g., "hdfs", "kafka")
	Name    string // Daemon name (e.g., "namenode", "resourcemanager")
	Running bool   // true if a process was found
	Healthy bool   // true if the health check passed
	PID     int    // Process ID (0 if not running)
	Check   string // What the health check probes
}
