package scrape

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Title is one scraped title page in the catalog record layout.
type Title struct {
	URL    string     `json:"url"`
	Name   string     `json:"name"`
	VNDesc []string   `json:"vndesc"`
	VNTags [][]string `json:"vntags"`
}

// Link is a title link found on a list page.
type Link struct {
	Title     string `json:"title"`
	Href      string `json:"href"`
	Lang      string `json:"lang,omitempty"`
	SourceURL string `json:"source_url"`
}

// ParseTitle extracts the name, description blocks and tag list of a title page.
func ParseTitle(pageURL string, body []byte) (Title, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Title{}, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	title := Title{
		URL:    pageURL,
		Name:   titleName(doc),
		VNDesc: []string{},
		VNTags: [][]string{},
	}
	doc.Find(".vndesc").Each(func(_ int, sel *goquery.Selection) {
		title.VNDesc = append(title.VNDesc, strippedText(sel))
	})
	if tags := doc.Find("div#vntags").First(); tags.Length() > 0 {
		title.VNTags = append(title.VNTags, splitTags(strippedText(tags)))
	}
	return title, nil
}

// vndb pages carry the site name in the first h1 and the title in the second.
func titleName(doc *goquery.Document) string {
	headings := doc.Find("h1")
	switch {
	case headings.Length() >= 2:
		return strippedText(headings.Eq(1))
	case headings.Length() == 1:
		return strippedText(headings)
	default:
		return strippedText(doc.Find("title").First())
	}
}

// strippedText trims every text node under sel and joins them with no
// separator, so whitespace between inline elements is dropped.
func strippedText(sel *goquery.Selection) string {
	var b strings.Builder
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		if goquery.NodeName(child) == "#text" {
			b.WriteString(strings.TrimSpace(child.Text()))
			return
		}
		b.WriteString(strippedText(child))
	})
	return b.String()
}

func splitTags(text string) []string {
	tags := []string{}
	for _, part := range strings.Split(text, ".") {
		cleaned := strings.TrimSpace(strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) {
				return -1
			}
			return r
		}, part))
		if cleaned != "" {
			tags = append(tags, cleaned)
		}
	}
	return tags
}

// ParseList returns the links inside td.tc_title cells, resolved against pageURL.
func ParseList(pageURL string, body []byte) ([]Link, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	var links []Link
	doc.Find("td.tc_title").Each(func(_ int, cell *goquery.Selection) {
		anchor := cell.Find("a").First()
		href, ok := anchor.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		text := strings.TrimSpace(anchor.Text())
		name := strings.TrimSpace(anchor.AttrOr("title", ""))
		if name == "" {
			name = text
		}
		links = append(links, Link{
			Title:     name,
			Href:      base.ResolveReference(ref).String(),
			Lang:      anchor.AttrOr("lang", ""),
			SourceURL: pageURL,
		})
	})
	return links, nil
}
