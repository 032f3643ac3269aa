package cms

import (
	"context"
	"fmt"
	"time"
)

// Term is a tag or category.
type Term struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	URI  string `json:"uri"`
}

type terms struct {
	Nodes []Term `json:"nodes"`
}

// Author is the subset of a WordPress user the site shows.
type Author struct {
	FirstName string `json:"firstName"`
	Slug      string `json:"slug"`
	Avatar    struct {
		URL string `json:"url"`
	} `json:"avatar"`
}

// SEO carries the page metadata fields of a post.
type SEO struct {
	Title    string `json:"title"`
	MetaDesc string `json:"metaDesc"`
}

// Post is a blog post. Content is CMS-rendered HTML and must be sanitized
// before it is written into a page.
type Post struct {
	PostID     int       `json:"postId"`
	Slug       string    `json:"slug"`
	Link       string    `json:"link"`
	Title      string    `json:"title"`
	Date       string    `json:"date"`
	Excerpt    string    `json:"excerpt"`
	Content    string    `json:"content"`
	Tags       terms     `json:"tags"`
	Categories terms     `json:"categories"`
	Author     struct {
		Node Author `json:"node"`
	} `json:"author"`
	FeaturedImage struct {
		Node struct {
			SourceURL string `json:"sourceUrl"`
		} `json:"node"`
	} `json:"featuredImage"`
	SEO SEO `json:"seo"`
}

// TagList returns the post's tags.
func (p Post) TagList() []Term { return p.Tags.Nodes }

var dateFormats = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// Published parses Date. WordPress omits the zone, so most values are
// interpreted as UTC. Unparseable dates yield the zero time.
func (p Post) Published() time.Time {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, p.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}

// PageInfo is the pagination block of a connection.
type PageInfo struct {
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// Home is the data behind the home page.
type Home struct {
	Posts      []Post
	PageInfo   PageInfo
	Categories []Term
}

type edge struct {
	Node Post `json:"node"`
}

const homePostsQuery = `
{
  posts(first: 5) {
    edges {
      node {
        link
        postId
        date
        slug
        title
        tags { nodes { name slug uri } }
        author { node { firstName } }
        excerpt(format: RAW)
        categories { nodes { name uri } }
      }
    }
    pageInfo { hasNextPage hasPreviousPage }
  }
  categories { nodes { name slug uri } }
}`

// HomePosts fetches the five latest posts and all categories.
func (c *Client) HomePosts(ctx context.Context) (*Home, error) {
	var data struct {
		Posts struct {
			Edges    []edge   `json:"edges"`
			PageInfo PageInfo `json:"pageInfo"`
		} `json:"posts"`
		Categories terms `json:"categories"`
	}
	if err := c.Query(ctx, homePostsQuery, nil, &data); err != nil {
		return nil, err
	}

	home := &Home{PageInfo: data.Posts.PageInfo, Categories: data.Categories.Nodes}
	for _, e := range data.Posts.Edges {
		home.Posts = append(home.Posts, e.Node)
	}
	return home, nil
}

const postQuery = `
query PostBySlug($id: ID!) {
  post(id: $id, idType: SLUG) {
    postId
    slug
    title
    date
    content
    excerpt(format: RAW)
    tags { nodes { name slug uri } }
    author { node { firstName slug avatar { url } } }
    featuredImage { node { sourceUrl } }
    seo { title metaDesc }
  }
}`

// Post fetches one post by slug.
func (c *Client) Post(ctx context.Context, slug string) (*Post, error) {
	var data struct {
		Post *Post `json:"post"`
	}
	if err := c.Query(ctx, postQuery, map[string]any{"id": slug}, &data); err != nil {
		return nil, err
	}
	if data.Post == nil {
		return nil, fmt.Errorf("%w: post %q not found", ErrUpstreamFetchFailed, slug)
	}
	return data.Post, nil
}

const postSlugsQuery = `
{
  posts(first: 10000) {
    edges { node { slug } }
  }
}`

// PostSlugs lists the slug of every published post.
func (c *Client) PostSlugs(ctx context.Context) ([]string, error) {
	var data struct {
		Posts struct {
			Edges []edge `json:"edges"`
		} `json:"posts"`
	}
	if err := c.Query(ctx, postSlugsQuery, nil, &data); err != nil {
		return nil, err
	}

	slugs := make([]string, 0, len(data.Posts.Edges))
	for _, e := range data.Posts.Edges {
		if e.Node.Slug != "" {
			slugs = append(slugs, e.Node.Slug)
		}
	}
	return slugs, nil
}
