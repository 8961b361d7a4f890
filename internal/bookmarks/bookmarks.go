// Package bookmarks imports Netscape-format bookmark exports (the format
// browsers and services like Pinboard produce) into the tag store. Each
// bookmark becomes an item; its TAGS attribute and enclosing folder names
// become tags, deduplicated against existing tags by normalized name.
package bookmarks

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/cognicore/tagmesh/pkg/tagmesh/internalerr"
	"github.com/cognicore/tagmesh/pkg/tagmesh/similarity"
	"github.com/cognicore/tagmesh/pkg/tagmesh/store"
)

// Bookmark is one parsed entry.
type Bookmark struct {
	Title string
	URL   string
	Tags  []string
}

// Parse reads a Netscape bookmark file and returns its entries. Folder
// names (H3 headers) apply as tags to every bookmark nested under them.
func Parse(r io.Reader) ([]Bookmark, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse bookmarks: %w", err)
	}
	var out []Bookmark
	walk(doc, nil, &out)
	return out, nil
}

func walk(n *html.Node, folders []string, out *[]Bookmark) {
	if n.Type == html.ElementNode && n.Data == "a" {
		b := Bookmark{Title: strings.TrimSpace(text(n))}
		for _, attr := range n.Attr {
			switch strings.ToLower(attr.Key) {
			case "href":
				b.URL = attr.Val
			case "tags":
				for _, tag := range strings.Split(attr.Val, ",") {
					if tag = strings.TrimSpace(tag); tag != "" {
						b.Tags = append(b.Tags, tag)
					}
				}
			}
		}
		for _, folder := range folders {
			b.Tags = appendUnique(b.Tags, folder)
		}
		if b.URL != "" {
			*out = append(*out, b)
		}
		return
	}

	// An H3 names the folder for the DL list that follows it.
	var pendingFolder string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "h3" {
			pendingFolder = strings.TrimSpace(text(c))
			continue
		}
		next := folders
		if pendingFolder != "" && c.Type == html.ElementNode && c.Data == "dl" {
			next = append(append([]string(nil), folders...), pendingFolder)
		}
		walk(c, next, out)
	}
}

func text(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		} else {
			b.WriteString(text(c))
		}
	}
	return b.String()
}

func appendUnique(tags []string, tag string) []string {
	for _, existing := range tags {
		if similarity.Normalize(existing) == similarity.Normalize(tag) {
			return tags
		}
	}
	return append(tags, tag)
}

// Result summarizes an import run.
type Result struct {
	Items       int
	TagsCreated int
	TagsReused  int
}

// Import parses the bookmark file and writes items and tags into the
// store. Tag names matching an existing tag after normalization reuse that
// tag instead of creating a near-duplicate.
func Import(ctx context.Context, st store.Store, r io.Reader) (Result, error) {
	var res Result

	marks, err := Parse(r)
	if err != nil {
		return res, err
	}
	if len(marks) == 0 {
		return res, nil
	}

	existing, err := st.AllTags(ctx)
	if err != nil {
		return res, persistErr("list tags", err)
	}
	byNorm := make(map[string]store.Tag, len(existing))
	for _, t := range existing {
		byNorm[similarity.Normalize(t.Name)] = t
	}
	createdThisRun := make(map[string]struct{})

	for _, mark := range marks {
		title := mark.Title
		if title == "" {
			title = mark.URL
		}
		item := store.Item{ID: store.NewID(), Title: title}

		for _, name := range mark.Tags {
			norm := similarity.Normalize(name)
			if norm == "" {
				continue
			}
			tag, ok := byNorm[norm]
			if !ok {
				tag = store.Tag{ID: store.NewID(), Name: name}
				createdThisRun[tag.ID] = struct{}{}
				res.TagsCreated++
			} else if _, fresh := createdThisRun[tag.ID]; !fresh {
				res.TagsReused++
			}
			tag.ItemIDs = store.AddID(tag.ItemIDs, item.ID)
			byNorm[norm] = tag
			item.TagIDs = store.AddID(item.TagIDs, tag.ID)
		}

		if err := st.UpsertItem(ctx, item); err != nil {
			return res, persistErr("save item", err)
		}
		res.Items++
	}

	for _, tag := range byNorm {
		if err := st.UpsertTag(ctx, tag); err != nil {
			return res, persistErr("save tag", err)
		}
	}
	return res, nil
}

func persistErr(op string, err error) error {
	return fmt.Errorf("import bookmarks: %s: %w: %v", op, internalerr.ErrPersistenceFailed, err)
}
