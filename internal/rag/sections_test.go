package rag

import (
	"strings"
	"testing"

	"github.com/khetrent/khetrent/internal/knowledge"
)

func TestFormatContext(t *testing.T) {
	t.Run("empty sources", func(t *testing.T) {
		if got := formatContext(nil); got != "" {
			t.Errorf("formatContext(nil) = %q, want empty", got)
		}
	})

	t.Run("equipment entry", func(t *testing.T) {
		sources := []Retrieved{{
			SourceType: knowledge.SourceTypeEquipment,
			SourceID:   "eq-1",
			Content:    "John Deere 5050D - Tractor - 50 HP workhorse",
			Metadata: map[string]any{
				"name":          "John Deere 5050D",
				"category":      "Tractor",
				"price_per_day": float64(1800),
				"rating":        4.5,
				"location_name": "Ludhiana",
				"is_available":  true,
			},
		}}

		got := formatContext(sources)
		wantLines := []string{
			"--- EQUIPMENT LISTINGS ---",
			"[John Deere 5050D] (Tractor, ₹1800/day, Rating: 4.5/5)",
			"John Deere 5050D - Tractor - 50 HP workhorse",
			"Location: Ludhiana | Available: Yes",
		}
		for _, want := range wantLines {
			if !strings.Contains(got, want) {
				t.Errorf("formatContext() missing line %q in:\n%s", want, got)
			}
		}
	})

	t.Run("missing metadata falls back", func(t *testing.T) {
		sources := []Retrieved{{
			SourceType: knowledge.SourceTypeEquipment,
			SourceID:   "eq-2",
			Metadata:   map[string]any{},
		}}

		got := formatContext(sources)
		want := "[Unknown Equipment] (Unknown, Price on request, Rating: No rating)"
		if !strings.Contains(got, want) {
			t.Errorf("formatContext() = %q, want header %q", got, want)
		}
		if !strings.Contains(got, "Location: Location not specified | Available: No") {
			t.Errorf("formatContext() missing fallback location line:\n%s", got)
		}
	})

	t.Run("sections render in fixed order", func(t *testing.T) {
		// Input order is review, equipment, labour; output order must
		// follow the canonical type order.
		sources := []Retrieved{
			{SourceType: knowledge.SourceTypeReview, Metadata: map[string]any{"equipment_name": "Rotavator", "reviewer_name": "Amarjit", "rating": float64(5)}, Content: "Very good machine"},
			{SourceType: knowledge.SourceTypeEquipment, Metadata: map[string]any{"name": "Rotavator"}},
			{SourceType: knowledge.SourceTypeLabour, Metadata: map[string]any{"skills": []any{"harvesting", "sowing"}}},
		}

		got := formatContext(sources)
		eq := strings.Index(got, "--- EQUIPMENT LISTINGS ---")
		lb := strings.Index(got, "--- LABOUR PROFILES ---")
		rv := strings.Index(got, "--- REVIEWS ---")
		if eq < 0 || lb < 0 || rv < 0 {
			t.Fatalf("formatContext() missing a section header:\n%s", got)
		}
		if !(eq < lb && lb < rv) {
			t.Errorf("section order = equipment@%d labour@%d review@%d, want equipment < labour < review", eq, lb, rv)
		}
	})

	t.Run("review line", func(t *testing.T) {
		sources := []Retrieved{{
			SourceType: knowledge.SourceTypeReview,
			Content:    "Engine overheated twice",
			Metadata: map[string]any{
				"equipment_name": "Mahindra 575",
				"reviewer_name":  "Gurpreet",
				"rating":         float64(2),
			},
		}}
		got := formatContext(sources)
		if !strings.Contains(got, "Review for Mahindra 575 by Gurpreet: 2/5") {
			t.Errorf("formatContext() review line wrong:\n%s", got)
		}
	})

	t.Run("booking section", func(t *testing.T) {
		sources := []Retrieved{{
			SourceType: knowledge.SourceTypeBooking,
			Metadata: map[string]any{
				"equipment_name": "Power Tiller",
				"renter_name":    "Balwinder",
				"status":         "confirmed",
				"start_date":     "2026-09-01",
				"end_date":       "2026-09-03",
				"total_days":     float64(3),
				"total_amount":   float64(5400),
				"payment_status": "paid",
			},
		}}
		got := formatContext(sources)
		for _, want := range []string{
			"--- BOOKINGS ---",
			"[Booking: Power Tiller rented by Balwinder]",
			"Status: confirmed | Dates: 2026-09-01 → 2026-09-03 (3 day(s))",
			"Amount: ₹5400 | Payment: paid",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("formatContext() missing %q in:\n%s", want, got)
			}
		}
	})

	t.Run("labour content clipped", func(t *testing.T) {
		long := strings.Repeat("x", 300)
		sources := []Retrieved{{
			SourceType: knowledge.SourceTypeLabour,
			Content:    long,
			Metadata:   map[string]any{"skills": []any{"ploughing"}},
		}}
		got := formatContext(sources)
		if strings.Contains(got, long) {
			t.Error("labour content over 250 chars must be clipped")
		}
		if !strings.Contains(got, strings.Repeat("x", 250)) {
			t.Error("labour content should keep the first 250 chars")
		}
	})
}

func TestSourceSummary(t *testing.T) {
	tests := []struct {
		name    string
		sources []Retrieved
		want    string
	}{
		{
			name:    "no sources",
			sources: nil,
			want:    "No relevant context found.",
		},
		{
			name: "single result",
			sources: []Retrieved{
				{SourceType: knowledge.SourceTypeReview},
			},
			want: "Found 1 relevant result: 1 Review",
		},
		{
			name: "mixed results",
			sources: []Retrieved{
				{SourceType: knowledge.SourceTypeEquipment},
				{SourceType: knowledge.SourceTypeEquipment},
				{SourceType: knowledge.SourceTypeReview},
			},
			want: "Found 3 relevant results: 2 Equipments, 1 Review",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SourceSummary(tt.sources); got != tt.want {
				t.Errorf("SourceSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrimAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1800, "1800"},
		{1800.5, "1800.50"},
		{0, "0"},
		{99.99, "99.99"},
	}
	for _, tt := range tests {
		if got := trimAmount(tt.in); got != tt.want {
			t.Errorf("trimAmount(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
