package suggest

import (
	"github.com/kailas-cloud/geosuggest/internal/domain/geo"
	"github.com/kailas-cloud/geosuggest/internal/domain/suggestion"
)

// KeyFor returns the dedup key of rec under site. Records without a position,
// without a dimension, or with a malformed title have no key.
func KeyFor(rec *suggestion.Record, site suggestion.Site) (string, bool) {
	if !rec.Locatable() {
		return "", false
	}
	key, err := site.ArticleKey(rec.Title)
	if err != nil {
		return "", false
	}
	return key, true
}

// Normalize projects rec into a caller-facing result.
func Normalize(rec suggestion.Record, site suggestion.Site, cls suggestion.Classification) (suggestion.Result, bool) {
	key, ok := KeyFor(&rec, site)
	if !ok {
		return suggestion.Result{}, false
	}
	return suggestion.Result{
		Key:            key,
		Classification: cls,
		Region:         geo.BoundingRegion([]geo.Coordinate{*rec.Coordinate}, *rec.Dimension),
		Description:    rec.Label(),
		Record:         rec,
	}, true
}

// Dedupe normalizes records in input order, keeping the first result per key.
func Dedupe(records []suggestion.Record, site suggestion.Site, cls suggestion.Classification) []suggestion.Result {
	results, _ := dedupe(records, site, cls)
	return results
}

// dedupe also reports how many records were dropped as unusable (duplicates not counted).
func dedupe(
	records []suggestion.Record, site suggestion.Site, cls suggestion.Classification,
) ([]suggestion.Result, int) {
	seen := make(map[string]struct{}, len(records))
	results := make([]suggestion.Result, 0, len(records))
	dropped := 0

	for _, rec := range records {
		res, ok := Normalize(rec, site, cls)
		if !ok {
			dropped++
			continue
		}
		if _, dup := seen[res.Key]; dup {
			continue
		}
		seen[res.Key] = struct{}{}
		results = append(results, res)
	}

	return results, dropped
}
