package rag

// sections.go turns retrieved entries into the section-per-entity-type
// context block. Sections render in a fixed order regardless of which
// type has more matches, so the prompt keeps a stable shape. Formatting
// uses only the metadata stored with each embedding — never a second
// entity lookup.

import (
	"fmt"
	"strings"

	"github.com/khetrent/khetrent/internal/knowledge"
)

// sectionRenderer formats one source-type bucket under its header.
type sectionRenderer func([]Retrieved) string

// renderers dispatches per source type; render order follows
// knowledge.SourceTypes.
var renderers = map[knowledge.SourceType]sectionRenderer{
	knowledge.SourceTypeEquipment: renderEquipmentSection,
	knowledge.SourceTypeLabour:    renderLabourSection,
	knowledge.SourceTypeUser:      renderUserSection,
	knowledge.SourceTypeReview:    renderReviewSection,
	knowledge.SourceTypeBooking:   renderBookingSection,
}

// formatContext groups entries by source type and concatenates non-empty
// sections with a blank line between them.
func formatContext(sources []Retrieved) string {
	if len(sources) == 0 {
		return ""
	}

	grouped := make(map[knowledge.SourceType][]Retrieved)
	for _, s := range sources {
		grouped[s.SourceType] = append(grouped[s.SourceType], s)
	}

	var sections []string
	for _, st := range knowledge.SourceTypes {
		bucket := grouped[st]
		if len(bucket) == 0 {
			continue
		}
		sections = append(sections, renderers[st](bucket))
	}

	return strings.Join(sections, "\n\n")
}

func renderEquipmentSection(sources []Retrieved) string {
	lines := []string{"--- EQUIPMENT LISTINGS ---"}

	for _, src := range sources {
		name := metaString(src.Metadata, "name", "Unknown Equipment")
		category := metaString(src.Metadata, "category", "Unknown")
		price := "Price on request"
		if v, ok := metaNumber(src.Metadata, "price_per_day"); ok {
			price = fmt.Sprintf("₹%s/day", trimAmount(v))
		}
		rating := "No rating"
		if v, ok := metaNumber(src.Metadata, "rating"); ok {
			rating = fmt.Sprintf("%.1f/5", v)
		}
		location := metaString(src.Metadata, "location_name", "Location not specified")
		available := "No"
		if b, ok := src.Metadata["is_available"].(bool); ok && b {
			available = "Yes"
		}

		lines = append(lines, fmt.Sprintf("[%s] (%s, %s, Rating: %s)", name, category, price, rating))
		if src.Content != "" {
			lines = append(lines, src.Content)
		}
		lines = append(lines, fmt.Sprintf("Location: %s | Available: %s", location, available))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func renderLabourSection(sources []Retrieved) string {
	lines := []string{"--- LABOUR PROFILES ---"}

	for _, src := range sources {
		skills := metaList(src.Metadata, "skills", "No skills listed")
		rate := "Rate on request"
		if v, ok := metaNumber(src.Metadata, "daily_rate"); ok {
			rate = fmt.Sprintf("₹%s/day", trimAmount(v))
		}
		location := metaString(src.Metadata, "location_name", "Location not specified")
		availability := metaString(src.Metadata, "availability", "Unknown")
		rating := "No rating"
		if v, ok := metaNumber(src.Metadata, "rating"); ok {
			rating = fmt.Sprintf("%.1f/5", v)
		}

		// The worker's name lives in the embedded content, not metadata.
		lines = append(lines, fmt.Sprintf("[Skills: %s]", skills))
		lines = append(lines, fmt.Sprintf("Rate: %s | Location: %s", rate, location))
		lines = append(lines, fmt.Sprintf("Availability: %s | Rating: %s", availability, rating))
		if src.Content != "" {
			lines = append(lines, clip(src.Content, 250))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func renderUserSection(sources []Retrieved) string {
	lines := []string{"--- USER PROFILES ---"}

	for _, src := range sources {
		name := metaString(src.Metadata, "name", "Unknown User")
		roles := metaList(src.Metadata, "roles", "No roles")
		address := metaString(src.Metadata, "address", "Location not specified")

		lines = append(lines, fmt.Sprintf("[%s] (%s)", name, roles))
		lines = append(lines, "Location: "+address)
		if src.Content != "" {
			lines = append(lines, clip(src.Content, 200))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func renderReviewSection(sources []Retrieved) string {
	lines := []string{"--- REVIEWS ---"}

	for _, src := range sources {
		equipmentName := metaString(src.Metadata, "equipment_name", "Unknown Equipment")
		reviewerName := metaString(src.Metadata, "reviewer_name", "Anonymous")
		rating := "No rating"
		if v, ok := metaNumber(src.Metadata, "rating"); ok {
			rating = fmt.Sprintf("%s/5", trimAmount(v))
		}

		lines = append(lines, fmt.Sprintf("Review for %s by %s: %s", equipmentName, reviewerName, rating))
		if src.Content != "" {
			lines = append(lines, src.Content)
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func renderBookingSection(sources []Retrieved) string {
	lines := []string{"--- BOOKINGS ---"}

	for _, src := range sources {
		equipment := metaString(src.Metadata, "equipment_name", "Unknown Equipment")
		renter := metaString(src.Metadata, "renter_name", "Unknown Renter")
		status := metaString(src.Metadata, "status", "Unknown")
		startDate := metaString(src.Metadata, "start_date", "N/A")
		endDate := metaString(src.Metadata, "end_date", "N/A")
		var days string
		if v, ok := metaNumber(src.Metadata, "total_days"); ok {
			days = fmt.Sprintf(" (%s day(s))", trimAmount(v))
		}
		amount := "N/A"
		if v, ok := metaNumber(src.Metadata, "total_amount"); ok {
			amount = "₹" + trimAmount(v)
		}
		payment := metaString(src.Metadata, "payment_status", "N/A")

		lines = append(lines, fmt.Sprintf("[Booking: %s rented by %s]", equipment, renter))
		lines = append(lines, fmt.Sprintf("Status: %s | Dates: %s → %s%s", status, startDate, endDate, days))
		lines = append(lines, fmt.Sprintf("Amount: %s | Payment: %s", amount, payment))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// SourceSummary describes what was retrieved, for logging and chat-UI
// transparency: "Found 3 relevant results: 2 Equipments, 1 Review".
func SourceSummary(sources []Retrieved) string {
	if len(sources) == 0 {
		return "No relevant context found."
	}

	counts := make(map[knowledge.SourceType]int)
	for _, s := range sources {
		counts[s.SourceType]++
	}

	var parts []string
	for _, st := range knowledge.SourceTypes {
		n := counts[st]
		if n == 0 {
			continue
		}
		label := strings.ToUpper(string(st)[:1]) + string(st)[1:]
		if n > 1 {
			label += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, label))
	}

	plural := ""
	if len(sources) > 1 {
		plural = "s"
	}
	return fmt.Sprintf("Found %d relevant result%s: %s", len(sources), plural, strings.Join(parts, ", "))
}

// metaString reads a string metadata field with a fallback for missing or
// empty values.
func metaString(meta map[string]any, key, fallback string) string {
	if v, ok := meta[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// metaNumber reads a numeric metadata field. Metadata round-trips through
// JSONB, so numbers may arrive as float64 or json.Number-free ints.
func metaNumber(meta map[string]any, key string) (float64, bool) {
	switch v := meta[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// metaList renders a string-list metadata field as "a, b, c".
func metaList(meta map[string]any, key, fallback string) string {
	switch v := meta[key].(type) {
	case []string:
		if len(v) > 0 {
			return strings.Join(v, ", ")
		}
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
	case string:
		if v != "" {
			return v
		}
	}
	return fallback
}

// clip truncates s to at most n bytes.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// trimAmount renders a number without a trailing ".0" for whole values.
func trimAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
