package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/filestreamhq/filestream/internal/registry"
)

type fakePutter struct {
	err    error
	params []registry.PutParams
}

func (f *fakePutter) Put(_ context.Context, params registry.PutParams) (string, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return "", f.err
	}
	return params.StableID, nil
}

type fakeNotifier struct {
	err error

	mu       sync.Mutex
	uploads  []Upload
	links    []string
	notified chan string
}

func newFakeNotifier(err error) *fakeNotifier {
	return &fakeNotifier{err: err, notified: make(chan string, 1)}
}

func (f *fakeNotifier) NotifyUpload(_ context.Context, upload Upload, link string) error {
	f.mu.Lock()
	f.uploads = append(f.uploads, upload)
	f.links = append(f.links, link)
	f.mu.Unlock()
	f.notified <- link
	return f.err
}

func (f *fakeNotifier) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func (f *fakeNotifier) awaitLink(t *testing.T) string {
	t.Helper()
	select {
	case link := <-f.notified:
		return link
	case <-time.After(2 * time.Second):
		t.Fatal("audit fan-out never fired")
		return ""
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterBuildsPublicLink(t *testing.T) {
	files := &fakePutter{}
	svc := NewService(testLogger(), files, nil, "https://stream.example.com/")

	result, err := svc.Register(context.Background(), Upload{
		StableID:      "abc123",
		DeliveryToken: "tokA",
		DisplayName:   "clip.mp4",
		OwnerID:       42,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.Link != "https://stream.example.com/watch/abc123" {
		t.Errorf("link = %q", result.Link)
	}
	if result.StableID != "abc123" {
		t.Errorf("stable ID = %q", result.StableID)
	}
	if len(files.params) != 1 || files.params[0].OwnerID != 42 {
		t.Errorf("put params = %+v", files.params)
	}
}

func TestRegisterSameContentYieldsSameLink(t *testing.T) {
	svc := NewService(testLogger(), &fakePutter{}, nil, "https://stream.example.com")

	upload := Upload{StableID: "abc123", DeliveryToken: "tokA", OwnerID: 1}
	first, err := svc.Register(context.Background(), upload)
	if err != nil {
		t.Fatal(err)
	}
	upload.DeliveryToken = "tokB"
	second, err := svc.Register(context.Background(), upload)
	if err != nil {
		t.Fatal(err)
	}
	if first.Link != second.Link {
		t.Errorf("links differ: %q vs %q", first.Link, second.Link)
	}
}

func TestRegisterStoreFailureYieldsNoLink(t *testing.T) {
	files := &fakePutter{err: fmt.Errorf("%w: connection refused", registry.ErrStoreUnavailable)}
	notifier := newFakeNotifier(nil)
	svc := NewService(testLogger(), files, notifier, "https://stream.example.com")

	result, err := svc.Register(context.Background(), Upload{StableID: "abc123", DeliveryToken: "tok", OwnerID: 1})
	if !errors.Is(err, registry.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if result.Link != "" {
		t.Errorf("failed write produced a link: %q", result.Link)
	}
	if notifier.uploadCount() != 0 {
		t.Error("audit fan-out fired for a failed registration")
	}
}

func TestRegisterNotifierFailureDoesNotFailRegistration(t *testing.T) {
	notifier := newFakeNotifier(errors.New("channel unavailable"))
	svc := NewService(testLogger(), &fakePutter{}, notifier, "https://stream.example.com")

	result, err := svc.Register(context.Background(), Upload{StableID: "abc123", DeliveryToken: "tok", OwnerID: 1})
	if err != nil {
		t.Fatalf("register should succeed despite notifier failure: %v", err)
	}
	if result.Link == "" {
		t.Error("expected a link")
	}
	if got := notifier.awaitLink(t); got != result.Link {
		t.Errorf("notifier got %q, want the derived link %q", got, result.Link)
	}
}

// slowNotifier holds NotifyUpload until released.
type slowNotifier struct {
	release chan struct{}
	links   chan string
}

func (f *slowNotifier) NotifyUpload(_ context.Context, _ Upload, link string) error {
	<-f.release
	f.links <- link
	return nil
}

func TestRegisterDoesNotWaitForAuditFanout(t *testing.T) {
	notifier := &slowNotifier{release: make(chan struct{}), links: make(chan string, 1)}
	svc := NewService(testLogger(), &fakePutter{}, notifier, "https://stream.example.com")

	// Register must return while the notifier is still held.
	result, err := svc.Register(context.Background(), Upload{StableID: "abc123", DeliveryToken: "tok", OwnerID: 1})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.Link == "" {
		t.Fatal("expected a link before the fan-out completed")
	}

	close(notifier.release)
	select {
	case link := <-notifier.links:
		if link != result.Link {
			t.Errorf("fan-out got %q, want %q", link, result.Link)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("audit fan-out never fired")
	}
}

func TestRegisterFanoutSurvivesRequestCancellation(t *testing.T) {
	notifier := newFakeNotifier(nil)
	svc := NewService(testLogger(), &fakePutter{}, notifier, "https://stream.example.com")

	ctx, cancel := context.WithCancel(context.Background())
	result, err := svc.Register(ctx, Upload{StableID: "abc123", DeliveryToken: "tok", OwnerID: 1})
	cancel()
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := notifier.awaitLink(t); got != result.Link {
		t.Errorf("fan-out got %q, want %q", got, result.Link)
	}
}

func TestNewAuditNotifierDisabledWithoutChannel(t *testing.T) {
	if n := NewAuditNotifier(nil, 0); n != nil {
		t.Error("zero channel ID should disable the notifier")
	}
}

type fakeSender struct {
	chatIDs []int64
	texts   []string
}

func (f *fakeSender) SendText(_ context.Context, chatID int64, text string) error {
	f.chatIDs = append(f.chatIDs, chatID)
	f.texts = append(f.texts, text)
	return nil
}

func TestAuditNotifierTargetsChannel(t *testing.T) {
	sender := &fakeSender{}
	n := NewAuditNotifier(sender, -100123)

	err := n.NotifyUpload(context.Background(), Upload{
		OwnerID:     42,
		OwnerName:   "alice",
		DisplayName: "clip.mp4",
	}, "https://stream.example.com/watch/abc123")
	if err != nil {
		t.Fatal(err)
	}
	if len(sender.chatIDs) != 1 || sender.chatIDs[0] != -100123 {
		t.Errorf("sent to %v", sender.chatIDs)
	}
	if len(sender.texts) != 1 {
		t.Fatalf("texts = %v", sender.texts)
	}
	for _, want := range []string{"alice", "clip.mp4", "https://stream.example.com/watch/abc123"} {
		if !strings.Contains(sender.texts[0], want) {
			t.Errorf("audit text missing %q: %s", want, sender.texts[0])
		}
	}
}
