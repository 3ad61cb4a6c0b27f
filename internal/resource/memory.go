package resource

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"scriptbench/internal/model"
)

// Memory is an in-process Client backed by maps. It follows the HTTP store's url
// scheme and is meant for tests and offline use.
type Memory struct {
	mu    sync.Mutex
	root  string
	files map[string]string
	dirs  map[string]bool

	// Fail, when set, is consulted before every call; a non-nil result is returned
	// as the call's error. op is the Client method name.
	Fail func(op, url string) error
	// Normalize, when set, rewrites text before it is stored.
	Normalize func(string) string

	calls []string
}

func NewMemory(root string) *Memory {
	if root == "" {
		root = DefaultAPIRoot + "/scripts"
	}
	root = strings.TrimRight(root, "/")
	return &Memory{
		root:  root,
		files: map[string]string{},
		dirs:  map[string]bool{root: true},
	}
}

func (m *Memory) RootURL() string { return m.root }

// Put stores text at url, creating missing parent folders.
func (m *Memory) Put(url, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAll(ParentURL(url))
	m.files[url] = text
}

// Mkdir creates the folder at url and its missing parents.
func (m *Memory) Mkdir(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAll(strings.TrimRight(url, "/"))
}

// Text returns the stored text at url.
func (m *Memory) Text(url string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.files[url]
	return v, ok
}

func (m *Memory) Exists(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[url]
	return ok || m.dirs[url]
}

// Calls lists the calls made so far as "Op url".
func (m *Memory) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

func (m *Memory) ListTopLevel(ctx context.Context) ([]model.Entry, error) {
	return m.list(ctx, "ListTopLevel", m.root)
}

func (m *Memory) ListContainer(ctx context.Context, url string) ([]model.Entry, error) {
	return m.list(ctx, "ListContainer", url)
}

func (m *Memory) list(ctx context.Context, op, url string) ([]model.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, op, url); err != nil {
		return nil, err
	}
	dir := strings.TrimRight(url, "/")
	if !m.dirs[dir] {
		return nil, m.notFound("GET", url)
	}
	var out []model.Entry
	for u := range m.dirs {
		if u != dir && ParentURL(u) == dir {
			out = append(out, model.Entry{URL: u, Name: NameOf(u), Kind: model.KindFolder})
		}
	}
	for u := range m.files {
		if ParentURL(u) == dir {
			out = append(out, model.Entry{URL: u, Name: NameOf(u), Kind: model.KindScript})
		}
	}
	slices.SortFunc(out, func(a, b model.Entry) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *Memory) ReadText(ctx context.Context, url string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "ReadText", url); err != nil {
		return "", err
	}
	v, ok := m.files[url]
	if !ok {
		return "", m.notFound("GET", url)
	}
	return v, nil
}

func (m *Memory) WriteText(ctx context.Context, url, text string) (model.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "WriteText", url); err != nil {
		return model.Entity{}, err
	}
	if !m.dirs[ParentURL(url)] {
		return model.Entity{}, m.notFound("PUT", url)
	}
	if m.Normalize != nil {
		text = m.Normalize(text)
	}
	m.files[url] = text
	return model.Entity{URL: url, Name: NameOf(url), Kind: model.KindScript, Value: text}, nil
}

func (m *Memory) DeleteResource(ctx context.Context, url string) (model.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "DeleteResource", url); err != nil {
		return model.Entity{}, err
	}
	if v, ok := m.files[url]; ok {
		delete(m.files, url)
		return model.Entity{URL: url, Name: NameOf(url), Kind: model.KindScript, Value: v}, nil
	}
	if !m.dirs[url] || url == m.root {
		return model.Entity{}, m.notFound("DELETE", url)
	}
	for u := range m.files {
		if IsUnder(u, url) {
			delete(m.files, u)
		}
	}
	for u := range m.dirs {
		if u == url || IsUnder(u, url) {
			delete(m.dirs, u)
		}
	}
	return model.Entity{URL: url, Name: NameOf(url), Kind: model.KindFolder}, nil
}

func (m *Memory) RenameResource(ctx context.Context, url, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "RenameResource", url); err != nil {
		return "", err
	}
	_, isFile := m.files[url]
	if !isFile && !m.dirs[url] {
		return "", m.notFound("PATCH", url)
	}
	to := ChildURL(ParentURL(url), name)
	if to == url {
		return to, nil
	}
	if _, taken := m.files[to]; taken || m.dirs[to] {
		return "", &StatusError{Method: "PATCH", URL: url, Code: 409, Message: fmt.Sprintf("%s already exists", name)}
	}
	if isFile {
		m.files[to] = m.files[url]
		delete(m.files, url)
		return to, nil
	}
	for _, u := range slices.Collect(maps.Keys(m.files)) {
		if IsUnder(u, url) {
			m.files[to+strings.TrimPrefix(u, url)] = m.files[u]
			delete(m.files, u)
		}
	}
	for _, u := range slices.Collect(maps.Keys(m.dirs)) {
		if u == url || IsUnder(u, url) {
			m.dirs[to+strings.TrimPrefix(u, url)] = true
			delete(m.dirs, u)
		}
	}
	return to, nil
}

func (m *Memory) CreateFolder(ctx context.Context, siblingURL, name string) (model.Entity, error) {
	parent := m.root
	if siblingURL != "" {
		parent = ParentURL(siblingURL)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, "CreateFolder", parent); err != nil {
		return model.Entity{}, err
	}
	if !m.dirs[parent] {
		return model.Entity{}, m.notFound("POST", parent)
	}
	u := ChildURL(parent, name)
	if _, taken := m.files[u]; taken || m.dirs[u] {
		return model.Entity{}, &StatusError{Method: "POST", URL: parent, Code: 409, Message: fmt.Sprintf("%s already exists", name)}
	}
	m.dirs[u] = true
	return model.Entity{URL: u, Name: name, Kind: model.KindFolder}, nil
}

// enter records the call and applies Fail. It runs with m.mu held.
func (m *Memory) enter(ctx context.Context, op, url string) error {
	m.calls = append(m.calls, op+" "+url)
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.Fail != nil {
		return m.Fail(op, url)
	}
	return nil
}

func (m *Memory) notFound(method, url string) error {
	return &StatusError{Method: method, URL: url, Code: 404}
}

func (m *Memory) mkdirAll(dir string) {
	for dir != "" && dir != "/" && !m.dirs[dir] {
		m.dirs[dir] = true
		dir = ParentURL(dir)
	}
}
