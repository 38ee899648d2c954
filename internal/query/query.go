// Package query turns structured filter criteria into the canonical
// request descriptor the filter endpoint accepts.
package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Year bounds for the filter page. Every year mutation clamps into this range.
const (
	MinYear = 1980
	MaxYear = 2024
)

// Criteria is the transient filter state. Use NewCriteria so the year
// range starts at its full (unset) extent, then mutate through the
// setters, which maintain min <= max.
type Criteria struct {
	genres    map[string]bool
	YearMin   int
	YearMax   int
	MinRating int
	Actor     string
}

func NewCriteria() *Criteria {
	return &Criteria{
		genres:  make(map[string]bool),
		YearMin: MinYear,
		YearMax: MaxYear,
	}
}

// ToggleGenre adds the genre to the set, or removes it when already present.
func (c *Criteria) ToggleGenre(genre string) {
	if c.genres[genre] {
		delete(c.genres, genre)
		return
	}
	c.genres[genre] = true
}

func (c *Criteria) HasGenre(genre string) bool { return c.genres[genre] }

// Genres returns the selected genres sorted, so the descriptor is
// independent of toggle order.
func (c *Criteria) Genres() []string {
	if len(c.genres) == 0 {
		return nil
	}
	out := make([]string, 0, len(c.genres))
	for g := range c.genres {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// SetYearMin clamps into [MinYear, MaxYear] and then down to the current
// max, so min <= max holds after the call.
func (c *Criteria) SetYearMin(year int) {
	year = clampYear(year)
	if year > c.YearMax {
		year = c.YearMax
	}
	c.YearMin = year
}

// SetYearMax clamps into [MinYear, MaxYear] and then up to the current
// min. Note the asymmetry with SetYearMin: both setters move the value
// being set, never the other bound.
func (c *Criteria) SetYearMax(year int) {
	year = clampYear(year)
	if year < c.YearMin {
		year = c.YearMin
	}
	c.YearMax = year
}

// SetMinRating clamps to 0-5; 0 means unset.
func (c *Criteria) SetMinRating(rating int) {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	c.MinRating = rating
}

func (c *Criteria) SetActor(actor string) { c.Actor = actor }

// Reset returns the criteria to its all-unset defaults.
func (c *Criteria) Reset() {
	c.genres = make(map[string]bool)
	c.YearMin = MinYear
	c.YearMax = MaxYear
	c.MinRating = 0
	c.Actor = ""
}

func clampYear(year int) int {
	if year < MinYear {
		return MinYear
	}
	if year > MaxYear {
		return MaxYear
	}
	return year
}

// Encode produces the canonical descriptor. A field is omitted exactly
// when it equals its unset default, which keeps requests minimal and
// identical criteria byte-identical on the wire. The genre set is
// serialized as one comma-joined token in sorted order; the actor value
// is trimmed, and an all-whitespace actor counts as absent.
func Encode(c *Criteria) url.Values {
	params := url.Values{}
	if genres := c.Genres(); len(genres) > 0 {
		params.Set("genres", strings.Join(genres, ","))
	}
	if c.YearMin != MinYear {
		params.Set("year_min", strconv.Itoa(c.YearMin))
	}
	if c.YearMax != MaxYear {
		params.Set("year_max", strconv.Itoa(c.YearMax))
	}
	if c.MinRating > 0 {
		params.Set("min_rating", strconv.Itoa(c.MinRating))
	}
	if actor := strings.TrimSpace(c.Actor); actor != "" {
		params.Set("actor", actor)
	}
	return params
}

// Decode rebuilds criteria from a descriptor. Decode(Encode(c)) encodes
// back to the same descriptor; malformed numeric values fall back to the
// field default rather than failing.
func Decode(params url.Values) *Criteria {
	c := NewCriteria()
	if raw := params.Get("genres"); raw != "" {
		for _, g := range strings.Split(raw, ",") {
			if g = strings.TrimSpace(g); g != "" {
				c.genres[g] = true
			}
		}
	}
	if raw := params.Get("year_min"); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil {
			c.SetYearMin(year)
		}
	}
	if raw := params.Get("year_max"); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil {
			c.SetYearMax(year)
		}
	}
	if raw := params.Get("min_rating"); raw != "" {
		if rating, err := strconv.Atoi(raw); err == nil {
			c.SetMinRating(rating)
		}
	}
	c.Actor = strings.TrimSpace(params.Get("actor"))
	return c
}
