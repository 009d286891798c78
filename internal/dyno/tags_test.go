package dyno

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shaiso/dynotag/internal/domain"
	"github.com/shaiso/dynotag/internal/telemetry"
)

// recordedRequest — запрос, полученный mock-сервером Dyno.
type recordedRequest struct {
	Method      string
	Path        string
	Cookie      []string
	ContentType string
	RequestID   string
	Body        string
}

// fakeDyno — mock Dyno API. listBody отдаётся на list, остальные запросы — 200 {}.
type fakeDyno struct {
	mu           sync.Mutex
	requests     []recordedRequest
	listBody     string
	listStatus   int
	createStatus int
	deleteStatus int
}

func (f *fakeDyno) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		Cookie:      r.Header.Values("Cookie"),
		ContentType: r.Header.Get("Content-Type"),
		RequestID:   r.Header.Get("X-Request-ID"),
		Body:        string(body),
	})
	f.mu.Unlock()

	status := http.StatusOK
	respBody := `{}`
	switch r.URL.Path {
	case "/api/modules/42/tags/list":
		respBody = f.listBody
		if f.listStatus != 0 {
			status = f.listStatus
		}
	case "/api/server/42/tags/create":
		if f.createStatus != 0 {
			status = f.createStatus
		}
	case "/api/server/42/tags/delete":
		if f.deleteStatus != 0 {
			status = f.deleteStatus
		}
	default:
		status = http.StatusNotFound
	}

	w.WriteHeader(status)
	io.WriteString(w, respBody)
}

func (f *fakeDyno) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newTestService(t *testing.T, fake *fakeDyno, opts ...Option) *TagService {
	t.Helper()

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	opts = append([]Option{WithBaseURL(server.URL)}, opts...)
	svc, err := NewTagService(domain.Credentials{Cookie: "sid=1", Server: "42"}, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

const welcomeList = `{"tags":[{"tag":"other","content":"x","_id":"zzz"},{"tag":"welcome","content":"hi","_id":"abc123"}]}`

func TestListTags(t *testing.T) {
	fake := &fakeDyno{listBody: welcomeList}
	svc := newTestService(t, fake)

	tags, err := svc.ListTags(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tags))
	}
	if tags[1].Name != "welcome" || tags[1].ID != "abc123" {
		t.Errorf("unexpected tag: %+v", tags[1])
	}

	reqs := fake.recorded()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].Method != http.MethodGet {
		t.Errorf("expected GET, got %s", reqs[0].Method)
	}
	if len(reqs[0].Cookie) != 1 || reqs[0].Cookie[0] != "sid=1" {
		t.Errorf("expected Cookie sid=1, got %v", reqs[0].Cookie)
	}
	if reqs[0].ContentType != "" {
		t.Errorf("GET should not carry Content-Type, got %s", reqs[0].ContentType)
	}
	if reqs[0].RequestID == "" {
		t.Error("expected X-Request-ID")
	}
}

func TestListTags_Tolerated(t *testing.T) {
	fake := &fakeDyno{listBody: `{"tags":"not-an-array"}`}
	svc := newTestService(t, fake)

	tags, err := svc.ListTags(context.Background())
	if err != nil {
		t.Fatalf("malformed tags should not fail list: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("expected empty list, got %v", tags)
	}
}

func TestListTags_Errors(t *testing.T) {
	t.Run("remote", func(t *testing.T) {
		fake := &fakeDyno{listBody: `{"error":"unauthorized"}`, listStatus: http.StatusUnauthorized}
		svc := newTestService(t, fake)

		_, err := svc.ListTags(context.Background())
		var re *domain.RemoteError
		if !errors.As(err, &re) {
			t.Fatalf("expected RemoteError, got %v", err)
		}
		if re.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", re.StatusCode)
		}
		if re.Body != `{"error":"unauthorized"}` {
			t.Errorf("expected body in error, got %q", re.Body)
		}
	})

	t.Run("decoding", func(t *testing.T) {
		fake := &fakeDyno{listBody: `<html></html>`}
		svc := newTestService(t, fake)

		_, err := svc.ListTags(context.Background())
		if !errors.Is(err, domain.ErrDecoding) {
			t.Errorf("expected ErrDecoding, got %v", err)
		}
	})

	t.Run("transport", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		svc, err := NewTagService(domain.Credentials{Cookie: "sid=1", Server: "42"}, WithBaseURL(url))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err = svc.ListTags(context.Background())
		if !errors.Is(err, domain.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})
}

func TestCreateTag(t *testing.T) {
	fake := &fakeDyno{}
	svc := newTestService(t, fake)

	err := svc.CreateTag(context.Background(), domain.Tag{Name: "greet", Content: "hello there"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reqs := fake.recorded()
	if len(reqs) != 1 {
		t.Fatalf("expected exactly 1 request, got %d", len(reqs))
	}

	req := reqs[0]
	if req.Method != http.MethodPost || req.Path != "/api/server/42/tags/create" {
		t.Errorf("unexpected request: %s %s", req.Method, req.Path)
	}
	if req.Body != `{"tag":"greet","content":"hello there"}` {
		t.Errorf("unexpected body: %s", req.Body)
	}
	if req.ContentType != "application/json" {
		t.Errorf("expected application/json, got %s", req.ContentType)
	}
	if len(req.Cookie) != 1 || req.Cookie[0] != "sid=1" {
		t.Errorf("expected Cookie sid=1, got %v", req.Cookie)
	}
}

func TestCreateTag_RemoteError(t *testing.T) {
	fake := &fakeDyno{createStatus: http.StatusConflict}
	svc := newTestService(t, fake)

	err := svc.CreateTag(context.Background(), domain.Tag{Name: "greet", Content: "hi"})
	if !errors.Is(err, domain.ErrRemote) {
		t.Fatalf("expected ErrRemote, got %v", err)
	}
	var re *domain.RemoteError
	if errors.As(err, &re) && re.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", re.StatusCode)
	}
}

func TestDeleteTag(t *testing.T) {
	fake := &fakeDyno{listBody: welcomeList}
	svc := newTestService(t, fake)

	deleted, err := svc.DeleteTag(context.Background(), "welcome")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted.ID != "abc123" {
		t.Errorf("expected deleted id abc123, got %q", deleted.ID)
	}

	reqs := fake.recorded()
	if len(reqs) != 2 {
		t.Fatalf("expected list + delete, got %d requests", len(reqs))
	}
	if reqs[0].Path != "/api/modules/42/tags/list" {
		t.Errorf("first request should be list, got %s", reqs[0].Path)
	}

	del := reqs[1]
	if del.Method != http.MethodPost || del.Path != "/api/server/42/tags/delete" {
		t.Errorf("unexpected delete request: %s %s", del.Method, del.Path)
	}
	if del.Body != `{"tag":"abc123","name":"welcome"}` {
		t.Errorf("unexpected delete body: %s", del.Body)
	}
	if del.ContentType != "application/json" {
		t.Errorf("expected application/json, got %s", del.ContentType)
	}
}

func TestDeleteTag_NotFound(t *testing.T) {
	fake := &fakeDyno{listBody: welcomeList}
	svc := newTestService(t, fake)

	_, err := svc.DeleteTag(context.Background(), "ghost")

	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Name != "ghost" {
		t.Errorf("expected name ghost, got %s", nf.Name)
	}

	// Второй запрос (delete) не выполняется
	if n := len(fake.recorded()); n != 1 {
		t.Errorf("expected only the list request, got %d", n)
	}
}

func TestDeleteTag_CaseSensitive(t *testing.T) {
	fake := &fakeDyno{listBody: welcomeList}
	svc := newTestService(t, fake)

	_, err := svc.DeleteTag(context.Background(), "Welcome")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for different case, got %v", err)
	}
}

func TestDeleteTag_FirstMatch(t *testing.T) {
	fake := &fakeDyno{listBody: `{"tags":[{"tag":"dup","content":"a","_id":"first"},{"tag":"dup","content":"b","_id":"second"}]}`}
	svc := newTestService(t, fake)

	deleted, err := svc.DeleteTag(context.Background(), "dup")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted.ID != "first" {
		t.Errorf("expected first match, got %q", deleted.ID)
	}
}

func TestDeleteTag_MalformedList(t *testing.T) {
	fake := &fakeDyno{listBody: `{"tags":{"oops":true}}`}
	svc := newTestService(t, fake)

	_, err := svc.DeleteTag(context.Background(), "welcome")
	if !errors.Is(err, domain.ErrDecoding) {
		t.Fatalf("expected ErrDecoding for malformed list, got %v", err)
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Error("malformed list must not be reported as not found")
	}
	if n := len(fake.recorded()); n != 1 {
		t.Errorf("expected only the list request, got %d", n)
	}
}

func TestDeleteTag_AllEntriesSkipped(t *testing.T) {
	fake := &fakeDyno{listBody: `{"tags":["welcome",42]}`}
	svc := newTestService(t, fake)

	_, err := svc.DeleteTag(context.Background(), "welcome")
	if !errors.Is(err, domain.ErrDecoding) {
		t.Fatalf("expected ErrDecoding when every entry is skipped, got %v", err)
	}
	if domain.KindOf(err) != domain.KindDecoding {
		t.Errorf("expected decoding kind, got %v", domain.KindOf(err))
	}
	if n := len(fake.recorded()); n != 1 {
		t.Errorf("expected only the list request, got %d", n)
	}
}

func TestDeleteTag_MissingID(t *testing.T) {
	fake := &fakeDyno{listBody: `{"tags":[{"tag":"welcome","content":"hi"}]}`}
	notifier := &recordingNotifier{}
	svc := newTestService(t, fake, WithNotifier(notifier))

	_, err := svc.DeleteTag(context.Background(), "welcome")
	if !errors.Is(err, domain.ErrDecoding) {
		t.Fatalf("expected ErrDecoding for tag without id, got %v", err)
	}
	if !strings.Contains(err.Error(), "without id") {
		t.Errorf("error should mention the missing id: %v", err)
	}

	reqs := fake.recorded()
	if len(reqs) != 1 {
		t.Fatalf("delete must not be posted, got %d requests", len(reqs))
	}
	if reqs[0].Path != "/api/modules/42/tags/list" {
		t.Errorf("unexpected request: %s", reqs[0].Path)
	}
	if len(notifier.deleted) != 0 {
		t.Errorf("notifier should not be called, got %v", notifier.deleted)
	}
}

func TestDeleteTag_ListFailurePropagates(t *testing.T) {
	fake := &fakeDyno{listStatus: http.StatusForbidden, listBody: `{}`}
	svc := newTestService(t, fake)

	_, err := svc.DeleteTag(context.Background(), "welcome")
	var re *domain.RemoteError
	if !errors.As(err, &re) || re.StatusCode != http.StatusForbidden {
		t.Errorf("expected RemoteError 403 from list, got %v", err)
	}
}

func TestDeleteTag_RemoteFailure(t *testing.T) {
	fake := &fakeDyno{listBody: welcomeList, deleteStatus: http.StatusNotFound}
	svc := newTestService(t, fake)

	_, err := svc.DeleteTag(context.Background(), "welcome")
	if !errors.Is(err, domain.ErrRemote) {
		t.Errorf("expected ErrRemote, got %v", err)
	}
}

// recordingNotifier — Notifier, запоминающий события.
type recordingNotifier struct {
	created []domain.Tag
	deleted []domain.TagReference
	err     error
}

func (n *recordingNotifier) TagCreated(_ context.Context, server string, tag domain.Tag) error {
	n.created = append(n.created, tag)
	return n.err
}

func (n *recordingNotifier) TagDeleted(_ context.Context, server string, ref domain.TagReference) error {
	n.deleted = append(n.deleted, ref)
	return n.err
}

func TestNotifier(t *testing.T) {
	notifier := &recordingNotifier{}
	fake := &fakeDyno{listBody: welcomeList}
	svc := newTestService(t, fake, WithNotifier(notifier))

	if err := svc.CreateTag(context.Background(), domain.Tag{Name: "greet", Content: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.DeleteTag(context.Background(), "welcome"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(notifier.created) != 1 || notifier.created[0].Name != "greet" {
		t.Errorf("unexpected created events: %+v", notifier.created)
	}
	if len(notifier.deleted) != 1 || notifier.deleted[0].ID != "abc123" {
		t.Errorf("unexpected deleted events: %+v", notifier.deleted)
	}
}

func TestNotifier_FailureIgnored(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("broker down")}
	fake := &fakeDyno{}
	svc := newTestService(t, fake, WithNotifier(notifier))

	if err := svc.CreateTag(context.Background(), domain.Tag{Name: "greet", Content: "hi"}); err != nil {
		t.Errorf("notifier failure should not fail create: %v", err)
	}
}

func TestNotifier_NotCalledOnFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	fake := &fakeDyno{createStatus: http.StatusInternalServerError}
	svc := newTestService(t, fake, WithNotifier(notifier))

	_ = svc.CreateTag(context.Background(), domain.Tag{Name: "greet", Content: "hi"})
	if len(notifier.created) != 0 {
		t.Error("notifier should not be called when create fails")
	}
}

func TestMetricsRecorded(t *testing.T) {
	metrics := telemetry.NewMetrics()
	fake := &fakeDyno{listBody: welcomeList}
	svc := newTestService(t, fake, WithMetrics(metrics))

	if _, err := svc.DeleteTag(context.Background(), "welcome"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, err := testutil.GatherAndCount(metrics.Registry(), "dynotag_requests_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	// Две серии: list/200 и delete/200
	if count != 2 {
		t.Errorf("expected 2 request series, got %d", count)
	}
}

func TestServerPathEscaping(t *testing.T) {
	svc, err := NewTagService(domain.Credentials{Cookie: "sid=1", Server: "a/b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := svc.listPath(); got != "/api/modules/a%2Fb/tags/list" {
		t.Errorf("unexpected path: %s", got)
	}
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fake := &fakeDyno{listBody: `{"tags":["junk",{"tag":"welcome","content":"hi","_id":"abc123"}]}`}
	svc := newTestService(t, fake, WithLogger(logger))

	if _, err := svc.DeleteTag(context.Background(), "welcome"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var requestLines int
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if !strings.Contains(line, "server=42") || !strings.Contains(line, "operation=delete") {
			t.Errorf("line lacks server or operation: %s", line)
		}
		if strings.Contains(line, `msg="dyno request"`) {
			requestLines++
			if !strings.Contains(line, "request_id=") {
				t.Errorf("request line lacks request_id: %s", line)
			}
		}
	}
	if requestLines != 2 {
		t.Errorf("expected 2 request lines, got %d:\n%s", requestLines, buf.String())
	}
	if !strings.Contains(buf.String(), "tolerated malformed tag list") {
		t.Errorf("expected diagnostic warning in log:\n%s", buf.String())
	}
}
