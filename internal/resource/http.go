package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"scriptbench/internal/model"
)

const (
	DefaultAPIRoot = "/api/v1"
	userAgent      = "scriptbench"
	maxErrorBody   = 4 << 10
)

// HTTPClient is a Client for the store's HTTP API. Resource urls are server-relative
// paths such as /api/v1/scripts/lib/util.lua; absolute urls are used as given.
type HTTPClient struct {
	base    *url.URL
	apiRoot string
	client  *http.Client
	logger  *slog.Logger
}

type HTTPOption func(*HTTPClient)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) { h.client = c }
}

func WithLogger(l *slog.Logger) HTTPOption {
	return func(h *HTTPClient) { h.logger = l }
}

// WithAPIRoot overrides the path the API is mounted at (default /api/v1).
func WithAPIRoot(root string) HTTPOption {
	return func(h *HTTPClient) {
		if root = strings.TrimSpace(root); root != "" {
			h.apiRoot = "/" + strings.Trim(root, "/")
		}
	}
}

func NewHTTPClient(server string, opts ...HTTPOption) (*HTTPClient, error) {
	server = strings.TrimSpace(server)
	if server == "" {
		return nil, fmt.Errorf("store server is required")
	}
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	base, err := url.Parse(strings.TrimRight(server, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse store server %q: %w", server, err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("store server %q has no host", server)
	}
	h := &HTTPClient{
		base:    base,
		apiRoot: DefaultAPIRoot,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *HTTPClient) RootURL() string { return h.apiRoot + "/scripts" }

// ServerInfo is the store's self description.
type ServerInfo struct {
	API     string `json:"api"`
	Version string `json:"version"`
}

func (h *HTTPClient) Info(ctx context.Context) (ServerInfo, error) {
	var info ServerInfo
	resp, err := h.do(ctx, http.MethodGet, h.apiRoot, nil, "")
	if err != nil {
		return info, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return info, fmt.Errorf("decode server info: %w", err)
	}
	return info, nil
}

func (h *HTTPClient) ListTopLevel(ctx context.Context) ([]model.Entry, error) {
	return h.ListContainer(ctx, h.RootURL())
}

type listing struct {
	Path    string         `json:"path"`
	Entries []listingEntry `json:"entries"`
}

type listingEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	// Present (even empty) for folders.
	Children *[]json.RawMessage `json:"children"`
}

func (h *HTTPClient) ListContainer(ctx context.Context, u string) ([]model.Entry, error) {
	resp, err := h.do(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, fmt.Errorf("decode listing %s: %w", u, err)
	}
	out := make([]model.Entry, 0, len(l.Entries))
	for _, e := range l.Entries {
		kind := model.KindScript
		if e.Children != nil {
			kind = model.KindFolder
		}
		name := e.Name
		if name == "" {
			name = NameOf(e.URL)
		}
		out = append(out, model.Entry{URL: e.URL, Name: name, Kind: kind})
	}
	return out, nil
}

func (h *HTTPClient) ReadText(ctx context.Context, u string) (string, error) {
	resp, err := h.do(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", u, err)
	}
	return string(b), nil
}

func (h *HTTPClient) WriteText(ctx context.Context, u, text string) (model.Entity, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("value", NameOf(u))
	if err != nil {
		return model.Entity{}, err
	}
	if _, err := io.WriteString(fw, text); err != nil {
		return model.Entity{}, err
	}
	if err := mw.Close(); err != nil {
		return model.Entity{}, err
	}

	resp, err := h.do(ctx, http.MethodPut, u, &body, mw.FormDataContentType())
	if err != nil {
		return model.Entity{}, err
	}
	defer resp.Body.Close()

	ent := model.Entity{URL: u, Name: NameOf(u), Kind: model.KindScript, Value: text}
	if err := decodeEntity(resp, &ent); err != nil {
		return model.Entity{}, fmt.Errorf("decode saved %s: %w", u, err)
	}
	return ent, nil
}

func (h *HTTPClient) DeleteResource(ctx context.Context, u string) (model.Entity, error) {
	resp, err := h.do(ctx, http.MethodDelete, u, nil, "")
	if err != nil {
		return model.Entity{}, err
	}
	defer resp.Body.Close()
	ent := model.Entity{URL: u, Name: NameOf(u)}
	if err := decodeEntity(resp, &ent); err != nil {
		return model.Entity{}, fmt.Errorf("decode deleted %s: %w", u, err)
	}
	return ent, nil
}

func (h *HTTPClient) RenameResource(ctx context.Context, u, name string) (string, error) {
	form := url.Values{"name": {name}}
	resp, err := h.do(ctx, http.MethodPatch, u, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode rename of %s: %w", u, err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("rename of %s: store returned no url", u)
	}
	return out.URL, nil
}

func (h *HTTPClient) CreateFolder(ctx context.Context, siblingURL, name string) (model.Entity, error) {
	parent := h.RootURL()
	if siblingURL != "" {
		parent = ParentURL(siblingURL)
	}
	form := url.Values{"name": {name}, "kind": {string(model.KindFolder)}}
	resp, err := h.do(ctx, http.MethodPost, parent, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return model.Entity{}, err
	}
	defer resp.Body.Close()
	ent := model.Entity{URL: ChildURL(parent, name), Name: name, Kind: model.KindFolder}
	if err := decodeEntity(resp, &ent); err != nil {
		return model.Entity{}, fmt.Errorf("decode folder %s: %w", name, err)
	}
	return ent, nil
}

func (h *HTTPClient) resolve(u string) string {
	if strings.Contains(u, "://") {
		return u
	}
	ref, err := url.Parse(u)
	if err != nil {
		return h.base.String() + u
	}
	return h.base.ResolveReference(ref).String()
}

// do sends one request and turns non-2xx answers into *StatusError. The caller
// closes the body of a successful response.
func (h *HTTPClient) do(ctx context.Context, method, u string, body io.Reader, contentType string) (*http.Response, error) {
	target := h.resolve(u)
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, u, err)
	}
	id := uuid.NewString()
	req.Header.Set("X-Request-Id", id)
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Debug("store request failed", "method", method, "url", u, "request_id", id, "err", err)
		return nil, fmt.Errorf("%s %s: %w", method, u, err)
	}
	h.logger.Debug("store request",
		"method", method,
		"url", u,
		"request_id", id,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		return nil, &StatusError{
			Method:  method,
			URL:     u,
			Code:    resp.StatusCode,
			Message: errorMessage(resp.Body),
		}
	}
	return resp, nil
}

func errorMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &e) == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return strings.TrimSpace(string(b))
}

// decodeEntity overlays the JSON entity in resp, if the store sent one, on ent.
func decodeEntity(resp *http.Response, ent *model.Entity) error {
	mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mt != "application/json" {
		return nil
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	var got model.Entity
	if err := json.Unmarshal(b, &got); err != nil {
		return err
	}
	if got.URL != "" {
		ent.URL = got.URL
	}
	if got.Name != "" {
		ent.Name = got.Name
	}
	if got.Kind != "" {
		ent.Kind = got.Kind
	}
	if got.Value != "" {
		ent.Value = got.Value
	}
	return nil
}
