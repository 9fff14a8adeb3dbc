package ingest

import (
	"fmt"
	"regexp"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/samber/lo"

	"github.com/0x0BSoD/newsInsight/internal/model"
	"github.com/0x0BSoD/newsInsight/internal/table"
)

var (
	LocationColumns = []string{"location", "Country"}
	DomainColumns   = []string{"SourceCommonName", "location", "Country"}
	TrafficColumns  = []string{
		"GlobalRank", "TldRank", "Domain", "TLD", "RefSubNets", "RefIPs",
		"IDN_Domain", "IDN_TLD", "PrevGlobalRank", "PrevTldRank", "PrevRefSubNets", "PrevRefIPs",
	}
	ArticleColumns = []string{
		"source_name", "author", "title", "description", "url", "url_to_image",
		"published_at", "content", "category", "article", "title_sentiment", "domain",
	}
)

func LocationRows(t *table.Table) ([]model.LocationRow, error) {
	if err := t.Require(LocationColumns...); err != nil {
		return nil, err
	}
	rows := make([]model.LocationRow, t.Len())
	for i := range rows {
		rows[i] = model.LocationRow{
			Location: cell(t, i, "location"),
			Country:  cell(t, i, "Country"),
		}
	}
	return rows, nil
}

func DomainRows(t *table.Table) ([]model.DomainRow, error) {
	if err := t.Require(DomainColumns...); err != nil {
		return nil, err
	}
	rows := make([]model.DomainRow, t.Len())
	for i := range rows {
		rows[i] = model.DomainRow{
			Name:     cell(t, i, "SourceCommonName"),
			Location: cell(t, i, "location"),
			Country:  cell(t, i, "Country"),
		}
	}
	return rows, nil
}

func TrafficRows(t *table.Table) ([]model.TrafficRow, error) {
	if err := t.Require(TrafficColumns...); err != nil {
		return nil, err
	}

	rows := make([]model.TrafficRow, t.Len())
	for i := range rows {
		r := model.TrafficRow{
			Domain: cell(t, i, "Domain"),
			TrafficRecord: model.TrafficRecord{
				TLD:       cell(t, i, "TLD"),
				IDNDomain: cell(t, i, "IDN_Domain"),
				IDNTLD:    cell(t, i, "IDN_TLD"),
			},
		}

		ints := []struct {
			column string
			dst    *int64
		}{
			{"GlobalRank", &r.GlobalRank},
			{"TldRank", &r.TldRank},
			{"RefSubNets", &r.RefSubNets},
			{"RefIPs", &r.RefIPs},
			{"PrevGlobalRank", &r.PrevGlobalRank},
			{"PrevTldRank", &r.PrevTldRank},
			{"PrevRefSubNets", &r.PrevRefSubNets},
			{"PrevRefIPs", &r.PrevRefIPs},
		}
		for _, f := range ints {
			n, err := t.Int(i, f.column)
			if err != nil {
				return nil, err
			}
			*f.dst = n
		}
		rows[i] = r
	}
	return rows, nil
}

func ArticleRows(t *table.Table) ([]model.ArticleRow, error) {
	if err := t.Require(ArticleColumns...); err != nil {
		return nil, err
	}

	rows := make([]model.ArticleRow, t.Len())
	for i := range rows {
		published, err := t.Time(i, "published_at")
		if err != nil {
			return nil, err
		}
		body, err := cleanBody(cell(t, i, "article"))
		if err != nil {
			return nil, fmt.Errorf("row %d column %q: %w", i, "article", err)
		}

		rows[i] = model.ArticleRow{
			Domain: cell(t, i, "domain"),
			Article: model.Article{
				SourceName:     cell(t, i, "source_name"),
				Author:         cell(t, i, "author"),
				Title:          cell(t, i, "title"),
				Description:    cell(t, i, "description"),
				URL:            cell(t, i, "url"),
				URLToImage:     cell(t, i, "url_to_image"),
				PublishedAt:    published,
				Content:        cell(t, i, "content"),
				Category:       cell(t, i, "category"),
				Body:           body,
				TitleSentiment: cell(t, i, "title_sentiment"),
			},
		}
	}
	return rows, nil
}

// cell reads a column already checked by Require.
func cell(t *table.Table, i int, column string) string {
	v, _ := t.Value(i, column)
	return strings.TrimSpace(v)
}

var (
	// a closing tag or a void element; a bare "<" in prose never matches
	htmlTag  = regexp.MustCompile(`</[a-zA-Z][a-zA-Z0-9]*\s*>|<(?i:br|hr|img)\b[^<>]*>`)
	blockEnd = regexp.MustCompile(`(?i)</(?:p|div|li|h[1-6]|blockquote|pre|tr|section|article)\s*>|<br\s*/?>`)
)

// cleanBody reduces an HTML article body to its readable text, one line per
// block element. Plain text passes through.
func cleanBody(body string) (string, error) {
	if !htmlTag.MatchString(body) {
		return body, nil
	}

	body = blockEnd.ReplaceAllString(body, "\n$0")
	doc, err := readability.FromReader(strings.NewReader(body), nil)
	if err != nil {
		return "", err
	}

	lines := lo.FilterMap(strings.Split(doc.TextContent, "\n"), func(line string, _ int) (string, bool) {
		line = strings.TrimSpace(line)
		return line, line != ""
	})
	return strings.Join(lines, "\n"), nil
}
