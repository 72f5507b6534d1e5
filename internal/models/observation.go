package models

// PodInfo summarises one pod's state as reported by the tool gateway.
type PodInfo struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Phase     string `json:"phase"`
	Ready     string `json:"ready"`
	Restarts  int    `json:"restarts"`
	Created   string `json:"created,omitempty"`
}

// PodStatusResult is the gateway response for a pod status lookup.
// A failed lookup populates Error instead of the data fields; the caller
// treats the failure as evidence, not as an abort.
type PodStatusResult struct {
	Namespace string    `json:"namespace"`
	TotalPods int       `json:"total_pods"`
	Pods      []PodInfo `json:"pods"`
	Error     string    `json:"error,omitempty"`
}

// InvolvedObject identifies the resource an event refers to.
type InvolvedObject struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// EventRecord is a single cluster event snapshot.
type EventRecord struct {
	Type      string         `json:"type"`
	Reason    string         `json:"reason"`
	Message   string         `json:"message"`
	Object    InvolvedObject `json:"object"`
	FirstSeen string         `json:"first_time,omitempty"`
	LastSeen  string         `json:"last_time,omitempty"`
	Count     int            `json:"count"`
}

// Event types as reported by the Kubernetes API.
const (
	EventTypeNormal  = "Normal"
	EventTypeWarning = "Warning"
)

// EventListResult is the gateway response for a recent-events lookup.
type EventListResult struct {
	Namespace   string        `json:"namespace"`
	TotalEvents int           `json:"total_events"`
	Events      []EventRecord `json:"events"`
	Error       string        `json:"error,omitempty"`
}
