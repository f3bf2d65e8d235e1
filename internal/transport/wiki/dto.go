package wiki

import (
	"sort"

	"github.com/kailas-cloud/geosuggest/internal/domain/geo"
	"github.com/kailas-cloud/geosuggest/internal/domain/suggestion"
)

// apiResponse is the subset of an Action API query response (formatversion=2) we read.
type apiResponse struct {
	Error *apiError `json:"error,omitempty"`
	Query *struct {
		SearchInfo *struct {
			Suggestion string `json:"suggestion"`
		} `json:"searchinfo,omitempty"`
		Pages []apiPage `json:"pages"`
	} `json:"query,omitempty"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type apiPage struct {
	PageID      int64           `json:"pageid"`
	NS          int             `json:"ns"`
	Title       string          `json:"title"`
	Index       int             `json:"index"`
	Missing     bool            `json:"missing,omitempty"`
	Description string          `json:"description,omitempty"`
	Coordinates []apiCoordinate `json:"coordinates,omitempty"`
	PageProps   *struct {
		DisplayTitle string `json:"displaytitle"`
	} `json:"pageprops,omitempty"`
}

type apiCoordinate struct {
	Lat     float64  `json:"lat"`
	Lon     float64  `json:"lon"`
	Primary bool     `json:"primary"`
	Globe   string   `json:"globe"`
	Dim     *float64 `json:"dim,omitempty"`
}

func (r *apiResponse) suggestion() string {
	if r.Query == nil || r.Query.SearchInfo == nil {
		return ""
	}
	return r.Query.SearchInfo.Suggestion
}

// records converts pages to domain records in search rank order.
func (r *apiResponse) records() []suggestion.Record {
	if r.Query == nil {
		return nil
	}
	pages := make([]apiPage, 0, len(r.Query.Pages))
	for _, p := range r.Query.Pages {
		if p.Missing || p.Title == "" {
			continue
		}
		pages = append(pages, p)
	}
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })

	out := make([]suggestion.Record, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.toRecord())
	}
	return out
}

func (p *apiPage) toRecord() suggestion.Record {
	rec := suggestion.Record{
		PageID:      p.PageID,
		Title:       p.Title,
		Description: p.Description,
	}
	if p.PageProps != nil {
		rec.DisplayTitle = p.PageProps.DisplayTitle
	}
	if c := p.primaryCoordinate(); c != nil {
		rec.Coordinate = &geo.Coordinate{Latitude: c.Lat, Longitude: c.Lon}
		rec.Dimension = c.Dim
	}
	return rec
}

// primaryCoordinate returns the primary Earth coordinate of the page, if any.
func (p *apiPage) primaryCoordinate() *apiCoordinate {
	var fallback *apiCoordinate
	for i := range p.Coordinates {
		c := &p.Coordinates[i]
		if c.Globe != "" && c.Globe != "earth" {
			continue
		}
		if !geo.ValidateCoordinates(c.Lat, c.Lon) {
			continue
		}
		if c.Primary {
			return c
		}
		if fallback == nil {
			fallback = c
		}
	}
	return fallback
}
