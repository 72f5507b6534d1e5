package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/opsmesh/sre-agent/internal/cache"
	"github.com/opsmesh/sre-agent/internal/metrics"
	"github.com/opsmesh/sre-agent/internal/models"
)

// Pod listings are capped so transcripts stay bounded.
const maxPodsPerLookup = 5

// KubeGateway serves observations from a live Kubernetes API server.
type KubeGateway struct {
	clientset   kubernetes.Interface
	timeout     time.Duration
	logger      *slog.Logger
	snapshots   cache.Provider
	snapshotTTL time.Duration
}

// NewKubeGateway wraps a clientset. The cache provider may be a NoopProvider.
func NewKubeGateway(logger *slog.Logger, clientset kubernetes.Interface, timeout time.Duration, snapshots cache.Provider, snapshotTTL time.Duration) *KubeGateway {
	if logger == nil {
		logger = slog.Default()
	}
	if snapshots == nil {
		snapshots = cache.NoopProvider{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &KubeGateway{
		clientset:   clientset,
		timeout:     timeout,
		logger:      logger,
		snapshots:   snapshots,
		snapshotTTL: snapshotTTL,
	}
}

// NewClientset builds a Kubernetes clientset from in-cluster config when
// requested, falling back to the kubeconfig path, $KUBECONFIG, then
// ~/.kube/config.
func NewClientset(kubeconfig string, inCluster bool) (kubernetes.Interface, error) {
	var (
		cfg *rest.Config
		err error
	)
	if inCluster {
		cfg, err = rest.InClusterConfig()
	} else {
		if kubeconfig == "" {
			kubeconfig = os.Getenv("KUBECONFIG")
		}
		if kubeconfig == "" {
			home, homeErr := os.UserHomeDir()
			if homeErr == nil {
				kubeconfig = filepath.Join(home, ".kube", "config")
			}
		}
		cfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if err != nil {
		return nil, fmt.Errorf("k8s config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("k8s clientset: %w", err)
	}
	return clientset, nil
}

// GetPodStatus implements Gateway.
func (g *KubeGateway) GetPodStatus(ctx context.Context, namespace, pod string) (models.PodStatusResult, error) {
	g.logger.Info("tool call", slog.String("tool", "get_pod_status"), slog.String("namespace", namespace), slog.String("pod", pod))
	if err := ctx.Err(); err != nil {
		return models.PodStatusResult{}, err
	}

	key := fmt.Sprintf("pods:%s:%s", namespace, pod)
	var cached models.PodStatusResult
	if g.lookupSnapshot(ctx, key, &cached) {
		return cached, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result := models.PodStatusResult{Namespace: namespace}
	if pod != "" {
		p, err := g.clientset.CoreV1().Pods(namespace).Get(callCtx, pod, metav1.GetOptions{})
		if err != nil {
			return g.podStatusError(ctx, namespace, err)
		}
		info := formatPodInfo(p)
		result.TotalPods = 1
		result.Pods = []models.PodInfo{info}
	} else {
		list, err := g.clientset.CoreV1().Pods(namespace).List(callCtx, metav1.ListOptions{})
		if err != nil {
			return g.podStatusError(ctx, namespace, err)
		}
		result.TotalPods = len(list.Items)
		for i := range list.Items {
			if len(result.Pods) >= maxPodsPerLookup {
				break
			}
			result.Pods = append(result.Pods, formatPodInfo(&list.Items[i]))
		}
	}

	metrics.ObserveToolCall("get_pod_status", false)
	g.storeSnapshot(ctx, key, result)
	return result, nil
}

// GetRecentEvents implements Gateway.
func (g *KubeGateway) GetRecentEvents(ctx context.Context, namespace, resource string, limit int) (models.EventListResult, error) {
	g.logger.Info("tool call", slog.String("tool", "get_recent_events"), slog.String("namespace", namespace), slog.String("resource", resource), slog.Int("limit", limit))
	if err := ctx.Err(); err != nil {
		return models.EventListResult{}, err
	}

	if limit <= 0 {
		limit = 10
	}

	key := fmt.Sprintf("events:%s:%s:%d", namespace, resource, limit)
	var cached models.EventListResult
	if g.lookupSnapshot(ctx, key, &cached) {
		return cached, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	list, err := g.clientset.CoreV1().Events(namespace).List(callCtx, metav1.ListOptions{Limit: int64(limit)})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			metrics.ObserveToolCall("get_recent_events", true)
			return models.EventListResult{}, ctxErr
		}
		metrics.ObserveToolCall("get_recent_events", true)
		return models.EventListResult{
			Namespace: namespace,
			Error:     fmt.Sprintf("Kubernetes API error: %v", err),
		}, nil
	}

	result := models.EventListResult{Namespace: namespace}
	for i := range list.Items {
		event := &list.Items[i]
		if resource != "" && event.InvolvedObject.Name != resource {
			continue
		}
		result.Events = append(result.Events, formatEventRecord(event))
	}
	result.TotalEvents = len(result.Events)

	metrics.ObserveToolCall("get_recent_events", false)
	g.storeSnapshot(ctx, key, result)
	return result, nil
}

func (g *KubeGateway) podStatusError(ctx context.Context, namespace string, err error) (models.PodStatusResult, error) {
	metrics.ObserveToolCall("get_pod_status", true)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return models.PodStatusResult{}, ctxErr
	}
	return models.PodStatusResult{
		Namespace: namespace,
		Error:     fmt.Sprintf("Kubernetes API error: %v", err),
	}, nil
}

func (g *KubeGateway) lookupSnapshot(ctx context.Context, key string, out any) bool {
	data, err := g.snapshots.Get(ctx, key)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (g *KubeGateway) storeSnapshot(ctx context.Context, key string, value any) {
	if g.snapshotTTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := g.snapshots.Set(ctx, key, data, g.snapshotTTL); err != nil {
		g.logger.Debug("snapshot cache store failed", slog.String("key", key), slog.Any("error", err))
	}
}

func formatPodInfo(pod *corev1.Pod) models.PodInfo {
	info := models.PodInfo{
		Name:      pod.Name,
		Namespace: pod.Namespace,
		Phase:     string(pod.Status.Phase),
		Ready:     countReadyContainers(pod),
		Restarts:  countRestarts(pod),
	}
	if !pod.CreationTimestamp.IsZero() {
		info.Created = pod.CreationTimestamp.UTC().Format(time.RFC3339)
	}
	return info
}

func formatEventRecord(event *corev1.Event) models.EventRecord {
	record := models.EventRecord{
		Type:    event.Type,
		Reason:  event.Reason,
		Message: event.Message,
		Object: models.InvolvedObject{
			Kind: event.InvolvedObject.Kind,
			Name: event.InvolvedObject.Name,
		},
		Count: int(event.Count),
	}
	if !event.FirstTimestamp.IsZero() {
		record.FirstSeen = event.FirstTimestamp.UTC().Format(time.RFC3339)
	}
	if !event.LastTimestamp.IsZero() {
		record.LastSeen = event.LastTimestamp.UTC().Format(time.RFC3339)
	}
	return record
}

func countReadyContainers(pod *corev1.Pod) string {
	statuses := pod.Status.ContainerStatuses
	if len(statuses) == 0 {
		return "0/0"
	}
	ready := 0
	for _, cs := range statuses {
		if cs.Ready {
			ready++
		}
	}
	return fmt.Sprintf("%d/%d", ready, len(statuses))
}

func countRestarts(pod *corev1.Pod) int {
	total := 0
	for _, cs := range pod.Status.ContainerStatuses {
		total += int(cs.RestartCount)
	}
	return total
}
