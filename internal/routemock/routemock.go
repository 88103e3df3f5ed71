// Package routemock replaces backend HTTP endpoints with canned responses
// while a page is under test.
//
// Mocks live in an ordered Table. The first registered mock that matches a
// request wins, so a broad pattern registered ahead of a narrow one shadows
// it for every URL both accept. Shadowed reports those pairs so callers can
// log them; the precedence itself is never changed.
package routemock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

const defaultContentType = "application/json"

// Mock is one interception rule and the response it fulfils requests with.
type Mock struct {
	Pattern     string // URL glob
	Method      string // empty matches any method
	Status      int    // zero means 200
	ContentType string // empty means application/json
	Body        []byte
	Headers     map[string]string
}

// JSON builds a mock whose body is v marshalled as JSON.
func JSON(pattern string, status int, v any) (Mock, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Mock{}, fmt.Errorf("routemock: marshal body for %q: %w", pattern, err)
	}
	return Mock{
		Pattern:     pattern,
		Status:      status,
		ContentType: defaultContentType,
		Body:        body,
	}, nil
}

// MustJSON is JSON for fixed payloads.
func MustJSON(pattern string, status int, v any) Mock {
	m, err := JSON(pattern, status, v)
	if err != nil {
		panic(err)
	}
	return m
}

// WithMethod returns a copy of m restricted to one HTTP method.
func (m Mock) WithMethod(method string) Mock {
	m.Method = strings.ToUpper(strings.TrimSpace(method))
	return m
}

// StatusCode returns the status the mock responds with.
func (m Mock) StatusCode() int {
	if m.Status == 0 {
		return http.StatusOK
	}
	return m.Status
}

// ResponseContentType returns the content type the mock responds with.
func (m Mock) ResponseContentType() string {
	if m.ContentType == "" {
		return defaultContentType
	}
	return m.ContentType
}

// Describe returns "METHOD pattern" for logs and errors.
func (m Mock) Describe() string {
	method := m.Method
	if method == "" {
		method = "ANY"
	}
	return method + " " + m.Pattern
}

func (m Mock) validate() error {
	status := m.StatusCode()
	if status < 100 || status > 599 {
		return fmt.Errorf("routemock: %s has invalid status %d", m.Describe(), m.Status)
	}
	return nil
}

type entry struct {
	mock Mock
	glob *Glob
	hits int
}

// Request is one request no mock answered.
type Request struct {
	Method string
	URL    string
}

// Shadow describes a mock whose own URL is answered by an earlier registration.
type Shadow struct {
	Winner  Mock
	Loser   Mock
	Example string
}

func (s Shadow) String() string {
	return fmt.Sprintf("%s is shadowed by earlier %s (e.g. %s)", s.Loser.Describe(), s.Winner.Describe(), s.Example)
}

// Table is an ordered set of mocks plus a spy counting what each answered.
// It is safe for concurrent use; the browser delivers route callbacks on its
// own goroutine.
type Table struct {
	mu          sync.Mutex
	entries     []*entry
	passthrough []Request
}

// NewTable returns a table holding mocks in registration order.
func NewTable(mocks ...Mock) (*Table, error) {
	t := &Table{}
	for _, m := range mocks {
		if err := t.Add(m); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Add registers a mock after all existing ones.
func (t *Table) Add(m Mock) error {
	g, err := CompileGlob(m.Pattern)
	if err != nil {
		return err
	}
	m.Method = strings.ToUpper(strings.TrimSpace(m.Method))
	if err := m.validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, &entry{mock: m, glob: g})
	return nil
}

// Len returns the number of registered mocks.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func methodMatches(want, got string) bool {
	return want == "" || strings.EqualFold(want, got)
}

// Match returns the first registered mock matching the request without
// recording it.
func (t *Table) Match(method, url string) (Mock, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e := t.matchLocked(method, url); e != nil {
		return e.mock, true
	}
	return Mock{}, false
}

func (t *Table) matchLocked(method, url string) *entry {
	for _, e := range t.entries {
		if methodMatches(e.mock.Method, method) && e.glob.Match(url) {
			return e
		}
	}
	return nil
}

// Resolve matches the request and records it in the spy.
func (t *Table) Resolve(method, url string) (Mock, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.matchLocked(method, url)
	if e == nil {
		t.passthrough = append(t.passthrough, Request{Method: strings.ToUpper(method), URL: url})
		return Mock{}, false
	}
	e.hits++
	return e.mock, true
}

// Hits returns how many requests the i-th registered mock answered.
func (t *Table) Hits(i int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.entries) {
		return 0
	}
	return t.entries[i].hits
}

// HitCounts returns answered-request counts keyed by Mock.Describe.
func (t *Table) HitCounts() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.entries))
	for _, e := range t.entries {
		out[e.mock.Describe()] += e.hits
	}
	return out
}

// Passthrough returns requests no mock matched.
func (t *Table) Passthrough() []Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Request(nil), t.passthrough...)
}

// Shadowed reports every later mock whose probe URL an earlier mock already
// answers for every method the later mock accepts.
func (t *Table) Shadowed() []Shadow {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Shadow
	for j, later := range t.entries {
		probe := later.glob.probeURL()
		for _, earlier := range t.entries[:j] {
			if !methodCovers(earlier.mock.Method, later.mock.Method) {
				continue
			}
			if earlier.glob.Match(probe) {
				out = append(out, Shadow{Winner: earlier.mock, Loser: later.mock, Example: probe})
				break
			}
		}
	}
	return out
}

func methodCovers(earlier, later string) bool {
	return earlier == "" || strings.EqualFold(earlier, later)
}

// ServeHTTP answers requests from the table, or 404 when nothing matches.
// The request URL is rebuilt as an absolute URL so globs behave as they do
// in the browser.
func (t *Table) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	url := scheme + "://" + r.Host + r.URL.RequestURI()

	m, ok := t.Resolve(r.Method, url)
	if !ok {
		http.NotFound(w, r)
		return
	}
	for k, v := range m.Headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", m.ResponseContentType())
	w.WriteHeader(m.StatusCode())
	w.Write(m.Body)
}
