package cms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newServer answers every request with status and body, and records the
// last decoded request and Authorization header.
func newServer(t *testing.T, status int, body string) (*httptest.Server, *request, *string) {
	t.Helper()
	var got request
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type: got %q", ct)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got, &auth
}

func TestQuery(t *testing.T) {
	srv, req, auth := newServer(t, http.StatusOK, `{"data":{"hello":"world"}}`)
	c := New(Config{Endpoint: srv.URL, AuthToken: "s3cret"}, nil)

	var out struct {
		Hello string `json:"hello"`
	}
	err := c.Query(context.Background(), "{ hello }", map[string]any{"id": "x"}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if out.Hello != "world" {
		t.Errorf("data: got %q", out.Hello)
	}
	if req.Query != "{ hello }" || req.Variables["id"] != "x" {
		t.Errorf("request: got %+v", req)
	}
	if *auth != "Bearer s3cret" {
		t.Errorf("authorization: got %q", *auth)
	}
}

func TestQuery_NoToken(t *testing.T) {
	srv, _, auth := newServer(t, http.StatusOK, `{"data":{}}`)
	c := New(Config{Endpoint: srv.URL}, nil)

	if err := c.Query(context.Background(), "{ x }", nil, nil); err != nil {
		t.Fatal(err)
	}
	if *auth != "" {
		t.Errorf("authorization should be unset, got %q", *auth)
	}
}

func TestQuery_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"data":{}}`},
		{"graphql errors", http.StatusOK, `{"data":null,"errors":[{"message":"boom"}]}`},
		{"errors with data", http.StatusOK, `{"data":{"a":1},"errors":[{"message":"partial"}]}`},
		{"null data", http.StatusOK, `{"data":null}`},
		{"missing data", http.StatusOK, `{}`},
		{"not json", http.StatusOK, `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _, _ := newServer(t, tt.status, tt.body)
			c := New(Config{Endpoint: srv.URL}, nil)
			var out map[string]any
			err := c.Query(context.Background(), "{ x }", nil, &out)
			if !errors.Is(err, ErrUpstreamFetchFailed) {
				t.Errorf("got %v, want ErrUpstreamFetchFailed", err)
			}
		})
	}
}

func TestQuery_NotConfigured(t *testing.T) {
	c := New(Config{}, nil)
	if err := c.Query(context.Background(), "{ x }", nil, nil); !errors.Is(err, ErrUpstreamFetchFailed) {
		t.Errorf("got %v", err)
	}
}

func TestHomePosts(t *testing.T) {
	body := `{"data":{
		"posts":{
			"edges":[
				{"node":{"slug":"swift-5","title":"Swift 5","date":"2022-04-01T10:00:00","tags":{"nodes":[{"name":"Swift"}]}}},
				{"node":{"slug":"flutter","title":"Flutter"}}
			],
			"pageInfo":{"hasNextPage":true,"hasPreviousPage":false}
		},
		"categories":{"nodes":[{"name":"iOS","slug":"ios","uri":"/category/ios/"}]}
	}}`
	srv, _, _ := newServer(t, http.StatusOK, body)

	home, err := New(Config{Endpoint: srv.URL}, nil).HomePosts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(home.Posts) != 2 || home.Posts[0].Slug != "swift-5" {
		t.Fatalf("posts: got %+v", home.Posts)
	}
	if tags := home.Posts[0].TagList(); len(tags) != 1 || tags[0].Name != "Swift" {
		t.Errorf("tags: got %+v", tags)
	}
	want := time.Date(2022, 4, 1, 10, 0, 0, 0, time.UTC)
	if got := home.Posts[0].Published(); !got.Equal(want) {
		t.Errorf("published: got %v, want %v", got, want)
	}
	if !home.PageInfo.HasNextPage {
		t.Error("expected hasNextPage")
	}
	if len(home.Categories) != 1 || home.Categories[0].URI != "/category/ios/" {
		t.Errorf("categories: got %+v", home.Categories)
	}
}

func TestPost(t *testing.T) {
	srv, req, _ := newServer(t, http.StatusOK, `{"data":{"post":{"slug":"swift-5","content":"<p>hi</p>","seo":{"title":"Swift 5 | THP"}}}}`)
	c := New(Config{Endpoint: srv.URL}, nil)

	post, err := c.Post(context.Background(), "swift-5")
	if err != nil {
		t.Fatal(err)
	}
	if post.Content != "<p>hi</p>" || post.SEO.Title != "Swift 5 | THP" {
		t.Errorf("post: got %+v", post)
	}
	if req.Variables["id"] != "swift-5" {
		t.Errorf("variables: got %v", req.Variables)
	}
}

func TestPost_Missing(t *testing.T) {
	srv, _, _ := newServer(t, http.StatusOK, `{"data":{"post":null}}`)
	_, err := New(Config{Endpoint: srv.URL}, nil).Post(context.Background(), "gone")
	if !errors.Is(err, ErrUpstreamFetchFailed) {
		t.Errorf("got %v", err)
	}
}

func TestPostSlugs(t *testing.T) {
	srv, _, _ := newServer(t, http.StatusOK, `{"data":{"posts":{"edges":[{"node":{"slug":"a"}},{"node":{"slug":""}},{"node":{"slug":"b"}}]}}}`)
	slugs, err := New(Config{Endpoint: srv.URL}, nil).PostSlugs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(slugs) != 2 || slugs[0] != "a" || slugs[1] != "b" {
		t.Errorf("got %v", slugs)
	}
}
