package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/opsmesh/sre-agent/internal/cache"
)

func newTestPod(name, namespace string, phase corev1.PodPhase, ready bool, restarts int32) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Status: corev1.PodStatus{
			Phase: phase,
			ContainerStatuses: []corev1.ContainerStatus{
				{Name: "app", Ready: ready, RestartCount: restarts},
			},
		},
	}
}

func TestKubeGatewayPodStatusList(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		newTestPod("web-1", "prod", corev1.PodRunning, true, 0),
		newTestPod("web-2", "prod", corev1.PodPending, false, 2),
	)
	gw := NewKubeGateway(nil, clientset, time.Second, nil, 0)

	result, err := gw.GetPodStatus(context.Background(), "prod", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("unexpected result error: %s", result.Error)
	}
	if result.TotalPods != 2 || len(result.Pods) != 2 {
		t.Fatalf("expected 2 pods, got total=%d listed=%d", result.TotalPods, len(result.Pods))
	}

	byName := make(map[string]int)
	for i, pod := range result.Pods {
		byName[pod.Name] = i
	}
	pending := result.Pods[byName["web-2"]]
	if pending.Phase != "Pending" || pending.Ready != "0/1" || pending.Restarts != 2 {
		t.Fatalf("unexpected pod info: %+v", pending)
	}
}

func TestKubeGatewayPodStatusSingle(t *testing.T) {
	created := metav1.NewTime(time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC))
	pod := newTestPod("web-1", "prod", corev1.PodRunning, true, 0)
	pod.CreationTimestamp = created

	gw := NewKubeGateway(nil, fake.NewSimpleClientset(pod), time.Second, nil, 0)

	result, err := gw.GetPodStatus(context.Background(), "prod", "web-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Pods) != 1 {
		t.Fatalf("expected 1 pod, got %d", len(result.Pods))
	}
	info := result.Pods[0]
	if info.Ready != "1/1" || info.Created != "2026-01-10T09:00:00Z" {
		t.Fatalf("unexpected pod info: %+v", info)
	}
}

func TestKubeGatewayErrorAsValue(t *testing.T) {
	clientset := fake.NewSimpleClientset()
	clientset.PrependReactor("list", "pods", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("connection refused")
	})

	gw := NewKubeGateway(nil, clientset, time.Second, nil, 0)

	result, err := gw.GetPodStatus(context.Background(), "prod", "")
	if err != nil {
		t.Fatalf("API failures must be returned as data, got error %v", err)
	}
	if !strings.Contains(result.Error, "Kubernetes API error") {
		t.Fatalf("expected API error in result, got %+v", result)
	}
}

func TestKubeGatewayCancelledContext(t *testing.T) {
	gw := NewKubeGateway(nil, fake.NewSimpleClientset(), time.Second, nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := gw.GetRecentEvents(ctx, "prod", "", 10); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation to propagate, got %v", err)
	}
}

func TestKubeGatewayEventFiltering(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		&corev1.Event{
			ObjectMeta:     metav1.ObjectMeta{Name: "ev-1", Namespace: "prod"},
			Type:           "Warning",
			Reason:         "FailedMount",
			Message:        "Unable to mount volumes",
			InvolvedObject: corev1.ObjectReference{Kind: "Pod", Name: "api-7f9"},
			Count:          3,
		},
		&corev1.Event{
			ObjectMeta:     metav1.ObjectMeta{Name: "ev-2", Namespace: "prod"},
			Type:           "Normal",
			Reason:         "Scheduled",
			Message:        "Assigned",
			InvolvedObject: corev1.ObjectReference{Kind: "Pod", Name: "other"},
			Count:          1,
		},
	)
	gw := NewKubeGateway(nil, clientset, time.Second, nil, 0)

	result, err := gw.GetRecentEvents(context.Background(), "prod", "api-7f9", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalEvents != 1 || len(result.Events) != 1 {
		t.Fatalf("expected 1 filtered event, got %+v", result)
	}
	event := result.Events[0]
	if event.Reason != "FailedMount" || event.Object.Name != "api-7f9" || event.Count != 3 {
		t.Fatalf("unexpected event record: %+v", event)
	}
}

func TestKubeGatewaySnapshotCache(t *testing.T) {
	calls := 0
	clientset := fake.NewSimpleClientset(newTestPod("web-1", "prod", corev1.PodRunning, true, 0))
	clientset.PrependReactor("list", "pods", func(k8stesting.Action) (bool, runtime.Object, error) {
		calls++
		return false, nil, nil
	})

	gw := NewKubeGateway(nil, clientset, time.Second, cache.NewMemoryProvider(), time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := gw.GetPodStatus(context.Background(), "prod", ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected second lookup to hit the snapshot cache, got %d API calls", calls)
	}
}

func TestMockGatewayEventLimit(t *testing.T) {
	gw := NewMockGateway(nil)

	result, err := gw.GetRecentEvents(context.Background(), "prod", "api-7f9", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalEvents != 1 || result.Events[0].Reason != "FailedMount" {
		t.Fatalf("unexpected mock events: %+v", result)
	}
	if result.Events[0].Object.Name != "api-7f9" {
		t.Fatalf("expected involved object to follow the resource name, got %+v", result.Events[0].Object)
	}
}
