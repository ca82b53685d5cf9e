package loader

import "time"

// Source dates are day/month/year text, with or without zero padding.
const dateLayout = "2/1/2006"

// parseDate parses a required date column.
func parseDate(column, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, &DateError{Column: column, Value: value}
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, &DateError{Column: column, Value: value}
	}
	return t, nil
}

// parseOptionalDate parses a date column where an empty value is
// legitimate. A nil result means the value was absent.
func parseOptionalDate(column, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(column, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
