package core

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

const (
	FieldNum        = "num"
	FieldTitle      = "title"
	FieldSafeTitle  = "safe_title"
	FieldImg        = "img"
	FieldAlt        = "alt"
	FieldTranscript = "transcript"
	FieldLink       = "link"
	FieldNews       = "news"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldDay        = "day"
)

// NotFoundID is the comic upstream never published.
const NotFoundID = 404

// Comic is a read-only view of one upstream metadata object.
// Attribute accessors and Get return the same value for every field.
type Comic struct {
	fields map[string]any
}

// NewComic copies raw and turns integer-looking values into ints.
func NewComic(raw map[string]any) Comic {
	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		fields[k] = fixNumber(v)
	}
	return Comic{fields: fields}
}

func notFoundComic() Comic {
	return NewComic(map[string]any{
		FieldNum:   NotFoundID,
		FieldTitle: "Not Found",
		FieldImg:   nil,
		FieldYear:  2008,
		FieldMonth: 4,
		FieldDay:   1,
	})
}

func fixNumber(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i)
		}
		if f, err := x.Float64(); err == nil {
			return fixNumber(f)
		}
		return x.String()
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int(x)
		}
		return x
	case int64:
		return int(x)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return i
		}
		return x
	default:
		return v
	}
}

func (c Comic) Get(key string) (any, bool) {
	v, ok := c.fields[key]
	return v, ok
}

func (c Comic) Keys() []string {
	return slices.Sorted(maps.Keys(c.fields))
}

func (c Comic) Fields() map[string]any {
	return maps.Clone(c.fields)
}

func (c Comic) Len() int { return len(c.fields) }

func (c Comic) IsZero() bool { return len(c.fields) == 0 }

// Number is the comic number as an int, 0 when num is missing or not
// integral.
func (c Comic) Number() int { return c.intField(FieldNum) }

// The attribute accessors return the stored value unchanged, nil when the
// key is missing.
func (c Comic) Num() any        { return c.fields[FieldNum] }
func (c Comic) Title() any      { return c.fields[FieldTitle] }
func (c Comic) SafeTitle() any  { return c.fields[FieldSafeTitle] }
func (c Comic) Img() any        { return c.fields[FieldImg] }
func (c Comic) Alt() any        { return c.fields[FieldAlt] }
func (c Comic) Transcript() any { return c.fields[FieldTranscript] }
func (c Comic) Link() any       { return c.fields[FieldLink] }
func (c Comic) News() any       { return c.fields[FieldNews] }
func (c Comic) Year() any       { return c.fields[FieldYear] }
func (c Comic) Month() any      { return c.fields[FieldMonth] }
func (c Comic) Day() any        { return c.fields[FieldDay] }

// Date reports false when any of year, month or day is missing.
func (c Comic) Date() (time.Time, bool) {
	y, m, d := c.intField(FieldYear), c.intField(FieldMonth), c.intField(FieldDay)
	if y == 0 || m == 0 || d == 0 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), true
}

// FullText joins every value and the date with "|", case folded.
func (c Comic) FullText() string {
	keys := c.Keys()
	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		parts = append(parts, formatValue(c.fields[k]))
	}
	if d, ok := c.Date(); ok {
		parts = append(parts, d.Format(time.DateOnly))
	}
	return cases.Fold().String(strings.Join(parts, "|"))
}

// String renders a missing or null img as None.
func (c Comic) String() string {
	img := "None"
	if v := c.Img(); v != nil {
		img = formatValue(v)
	}
	return fmt.Sprintf("xkcd %d:%s (%s)", c.Number(), formatValue(c.Title()), img)
}

func (c Comic) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.fields)
}

func (c Comic) intField(key string) int {
	v, _ := c.fields[key].(int)
	return v
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// NumberSet holds known comic numbers.
type NumberSet map[int]struct{}

// NewNumberSet returns {1..latest}.
func NewNumberSet(latest int) NumberSet {
	s := make(NumberSet, max(latest, 0))
	for id := 1; id <= latest; id++ {
		s[id] = struct{}{}
	}
	return s
}

func (s NumberSet) Contains(id int) bool {
	_, ok := s[id]
	return ok
}

func (s NumberSet) Len() int { return len(s) }

func (s NumberSet) Max() int {
	m := 0
	for id := range s {
		m = max(m, id)
	}
	return m
}

func (s NumberSet) Sorted() []int {
	return slices.Sorted(maps.Keys(s))
}
