package shared

import "time"

// Clients mostly send plain period and payment dates, so try the short
// form first and keep RFC3339 as a fallback.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// ParseDate parses YYYY-MM-DD or RFC3339. Empty input yields the zero
// time without an error so optional date fields stay optional.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	var err error
	for _, layout := range dateLayouts {
		var parsed time.Time
		if parsed, err = time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, err
}
