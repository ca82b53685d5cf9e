package loader

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "unpadded day and month",
			value: "1/11/2016",
			want:  time.Date(2016, time.November, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "padded day and month",
			value: "09/04/2017",
			want:  time.Date(2017, time.April, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "last day of year",
			value: "31/12/2018",
			want:  time.Date(2018, time.December, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "empty",
			value:   "",
			wantErr: true,
		},
		{
			name:    "iso format",
			value:   "2016-11-01",
			wantErr: true,
		},
		{
			name:    "month first",
			value:   "11/28/2016",
			wantErr: true,
		},
		{
			name:    "day out of range",
			value:   "32/1/2016",
			wantErr: true,
		},
		{
			name:    "not a date",
			value:   "soon",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate("order_date", tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q, got none", tt.value)
				}
				var dateErr *DateError
				if !errors.As(err, &dateErr) {
					t.Fatalf("Expected DateError, got %T", err)
				}
				if dateErr.Column != "order_date" {
					t.Errorf("Expected column order_date, got %s", dateErr.Column)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParseOptionalDate(t *testing.T) {
	// An empty shipped date means the order has not shipped yet.
	got, err := parseOptionalDate("shipped_date", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for empty value, got %v", *got)
	}

	got, err = parseOptionalDate("shipped_date", "3/11/2016")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a date, got nil")
	}
	want := time.Date(2016, time.November, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, *got)
	}

	if _, err := parseOptionalDate("shipped_date", "garbage"); err == nil {
		t.Error("Expected error for malformed value, got none")
	}
}
