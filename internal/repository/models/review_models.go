package models

import "time"

// Review is a stored review row. PublishedAt is nil when the import
// source carried no usable timestamp; such rows still participate in
// totals but never in date-bucketed aggregations.
type Review struct {
	ID          string
	Source      string
	Rating      int
	Text        string
	Author      string
	Theme       string
	Sentiment   string
	PublishedAt *time.Time
	CreatedAt   time.Time
}

// SourceCount is one row of the per-source review census.
type SourceCount struct {
	Source string
	Count  int64
}
