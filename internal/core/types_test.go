package core

import (
	"errors"
	"testing"
)

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{"09:00", ClockTime{Hour: 9}, false},
		{"9:05", ClockTime{Hour: 9, Minute: 5}, false},
		{" 17:30 ", ClockTime{Hour: 17, Minute: 30}, false},
		{"00:00", ClockTime{}, false},
		{"24:00", ClockTime{Hour: 24}, false},
		{"09:00pm", ClockTime{}, true},
		{"9:5x", ClockTime{}, true},
		{"9:5", ClockTime{}, true},
		{"24:30", ClockTime{}, true},
		{"25:00", ClockTime{}, true},
		{"12:60", ClockTime{}, true},
		{"-1:00", ClockTime{}, true},
		{"noon", ClockTime{}, true},
		{"", ClockTime{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClockTime(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("ParseClockTime(%q) error = %v, want ErrInvalidInput", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClockTime(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseClockTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseWorkSchedule(t *testing.T) {
	tests := []struct {
		in      string
		want    WorkSchedule
		wantErr bool
	}{
		{"09:00-17:00", WorkSchedule{Start: ClockTime{Hour: 9}, End: ClockTime{Hour: 17}}, false},
		{"00:00-24:00", WorkSchedule{End: ClockTime{Hour: 24}}, false},
		{"09:00-17:00x", WorkSchedule{}, true},
		{"09:00", WorkSchedule{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWorkSchedule(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWorkSchedule(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseWorkSchedule(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
