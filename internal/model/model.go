// Package model defines the data structures used in the newsInsight application: the stored entities (Article, Domain, DomainLocation, TrafficRecord) and the rows ingestion feeds into storage.
package model

import (
	"database/sql"
	"time"
)

// Sentiment labels attached to article titles.
const (
	SentimentPositive = "Positive"
	SentimentNeutral  = "Neutral"
	SentimentNegative = "Negative"
)

type DomainLocation struct {
	ID       int64  `db:"id" json:"id"`
	Location string `db:"location" json:"location"`
	Country  string `db:"country" json:"country"`
}

type Domain struct {
	ID         int64         `db:"id" json:"id"`
	Name       string        `db:"domain_name" json:"name"`
	LocationID sql.NullInt64 `db:"domain_locations_id" json:"-"`
}

type TrafficRecord struct {
	ID             int64  `db:"id" json:"id"`
	GlobalRank     int64  `db:"global_rank" json:"global_rank"`
	TldRank        int64  `db:"tld_rank" json:"tld_rank"`
	TLD            string `db:"tld" json:"tld"`
	RefSubNets     int64  `db:"ref_subnets" json:"ref_subnets"`
	RefIPs         int64  `db:"ref_ips" json:"ref_ips"`
	IDNDomain      string `db:"idn_domain" json:"idn_domain"`
	IDNTLD         string `db:"idn_tld" json:"idn_tld"`
	PrevGlobalRank int64  `db:"prev_global_rank" json:"prev_global_rank"`
	PrevTldRank    int64  `db:"prev_tld_rank" json:"prev_tld_rank"`
	PrevRefSubNets int64  `db:"prev_ref_subnets" json:"prev_ref_subnets"`
	PrevRefIPs     int64  `db:"prev_ref_ips" json:"prev_ref_ips"`
	DomainID       int64  `db:"domain_id" json:"domain_id"`
}

type Article struct {
	ID             int64     `db:"id" json:"id"`
	SourceName     string    `db:"source_name" json:"source_name"`
	Author         string    `db:"author" json:"author"`
	Title          string    `db:"title" json:"title"`
	Description    string    `db:"description" json:"description"`
	URL            string    `db:"url" json:"url"`
	URLToImage     string    `db:"url_to_image" json:"url_to_image"`
	PublishedAt    time.Time `db:"published_at" json:"published_at"`
	Content        string    `db:"content" json:"content"`
	Category       string    `db:"category" json:"category"`
	Body           string    `db:"article" json:"article"`
	TitleSentiment string    `db:"title_sentiment" json:"title_sentiment"`
	DomainID       int64     `db:"domain_id" json:"domain_id"`
}

// LocationRow is one (location, country) pair to be inserted.
type LocationRow struct {
	Location string
	Country  string
}

// DomainRow names a domain together with the location it should be attached to.
type DomainRow struct {
	Name     string
	Location string
	Country  string
}

// TrafficRow is a TrafficRecord that references its domain by name.
type TrafficRow struct {
	Domain string
	TrafficRecord
}

// ArticleRow is an Article that references its domain by name.
type ArticleRow struct {
	Domain string
	Article
}
