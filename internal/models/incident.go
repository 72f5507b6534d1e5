package models

// Incident is one inbound signal describing a suspected Kubernetes problem.
// It is created per decision request and never mutated afterwards.
type Incident struct {
	EventType    string
	Namespace    string
	ResourceName string
	ResourceKind string
	EventData    map[string]any
	Context      map[string]any
}
