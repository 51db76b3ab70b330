package records

import (
	"encoding/json"
	"fmt"
	"math"
)

// Option keys accepted by Normalize.
const (
	OptionPage   = "page"
	OptionColors = "colors"
)

// DefaultPage is used when the options omit a page.
const DefaultPage = 1

// maxPage keeps the window offset well inside int range.
const maxPage = math.MaxInt32

// PageRequest is a validated retrieval request.
type PageRequest struct {
	Page   int
	Colors []string
}

// Normalize validates caller-supplied options and applies defaults.
// options must be a map[string]any with optional "page" (a positive whole
// number of any numeric type) and "colors" (a sequence of strings).
func Normalize(options any) (PageRequest, error) {
	opts, ok := options.(map[string]any)
	if !ok {
		return PageRequest{}, invalidInput(fmt.Sprintf("options must be a key-value map, got %T", options))
	}

	req := PageRequest{Page: DefaultPage, Colors: []string{}}

	if raw, present := opts[OptionPage]; present {
		page, err := parsePage(raw)
		if err != nil {
			return PageRequest{}, err
		}
		req.Page = page
	}

	if raw, present := opts[OptionColors]; present {
		colors, err := parseColors(raw)
		if err != nil {
			return PageRequest{}, err
		}
		req.Colors = colors
	}

	return req, nil
}

func parsePage(raw any) (int, error) {
	n, ok := toFloat(raw)
	if !ok {
		return 0, typeError(OptionPage, fmt.Sprintf("must be a number, got %T", raw))
	}
	if n <= 0 {
		return 0, valueError(OptionPage, "must be a positive integer")
	}
	if n != math.Trunc(n) {
		return 0, valueError(OptionPage, "must be a positive integer")
	}
	if n > maxPage {
		return 0, valueError(OptionPage, fmt.Sprintf("must not exceed %d", maxPage))
	}
	return int(n), nil
}

// toFloat reports whether v holds any Go numeric kind and returns its value.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), !math.IsNaN(float64(n))
	case float64:
		return n, !math.IsNaN(n)
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func parseColors(raw any) ([]string, error) {
	switch c := raw.(type) {
	case []string:
		out := make([]string, len(c))
		copy(out, c)
		return out, nil
	case []any:
		out := make([]string, 0, len(c))
		for i, v := range c {
			s, ok := v.(string)
			if !ok {
				return nil, typeError(OptionColors, fmt.Sprintf("element %d must be a string, got %T", i, v))
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, typeError(OptionColors, fmt.Sprintf("must be a list of strings, got %T", raw))
	}
}
