package knowledge

// format.go renders source entities into the text that gets embedded and
// the metadata projection stored next to it. One formatter per source
// type; salient non-empty fields joined with " - ".

import (
	"fmt"
	"strings"
)

// Equipment is the field projection read from the equipment table.
type Equipment struct {
	ID           string
	Name         string
	Category     string
	Description  string
	Brand        string
	PricePerDay  float64
	LocationName string
	Features     []string
	OwnerID      string
	IsAvailable  bool
	Rating       *float64
}

// UserProfile is the field projection read from user_profiles.
type UserProfile struct {
	ID      string
	Name    string
	Roles   []string
	Bio     string
	Address string
	Pincode string
}

// LabourProfile is the field projection read from labour_profiles, joined
// with the owning user's name.
type LabourProfile struct {
	ID              string
	UserName        string
	Skills          []string
	Bio             string
	DailyRate       float64
	LocationName    string
	ExperienceYears int
	Availability    string
	Rating          *float64
}

// Review is the field projection read from reviews, joined with the
// equipment and reviewer names.
type Review struct {
	ID            string
	EquipmentID   string
	EquipmentName string
	ReviewerName  string
	Comment       string
	Rating        int
}

// Booking is the field projection read from bookings, joined with the
// equipment name, renter name and latest payment status.
type Booking struct {
	ID            string
	EquipmentID   string
	EquipmentName string
	RenterID      string
	RenterName    string
	Status        string
	StartDate     string
	EndDate       string
	TotalDays     *int
	TotalAmount   *float64
	PaymentStatus string
}

// joinParts concatenates non-empty parts with the given separator.
func joinParts(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// FormatEquipment renders an equipment row for embedding.
func FormatEquipment(e Equipment) SourceRecord {
	var features string
	if len(e.Features) > 0 {
		features = "Features: " + strings.Join(e.Features, ", ")
	}
	var brand string
	if e.Brand != "" {
		brand = "Brand: " + e.Brand
	}
	var location string
	if e.LocationName != "" {
		location = "Location: " + e.LocationName
	}

	content := joinParts(" - ",
		e.Name,
		e.Category,
		e.Description,
		brand,
		fmt.Sprintf("Price: ₹%s/day", formatAmount(e.PricePerDay)),
		location,
		features,
	)

	return SourceRecord{
		Content: content,
		Metadata: map[string]any{
			"id":            e.ID,
			"name":          e.Name,
			"category":      e.Category,
			"price_per_day": e.PricePerDay,
			"location_name": e.LocationName,
			"owner_id":      e.OwnerID,
			"is_available":  e.IsAvailable,
			"rating":        ratingValue(e.Rating),
		},
	}
}

// FormatUser renders a user profile for embedding.
func FormatUser(u UserProfile) SourceRecord {
	name := u.Name
	if name == "" {
		name = "Unknown User"
	}
	var location string
	if u.Address != "" {
		location = "Location: " + u.Address
	}

	content := joinParts(" - ",
		name,
		strings.Join(u.Roles, ", "),
		u.Bio,
		location,
		u.Pincode,
	)

	return SourceRecord{
		Content: content,
		Metadata: map[string]any{
			"id":      u.ID,
			"name":    u.Name,
			"roles":   u.Roles,
			"address": u.Address,
		},
	}
}

// FormatLabour renders a labour profile for embedding.
func FormatLabour(l LabourProfile) SourceRecord {
	name := l.UserName
	if name == "" {
		name = "Unknown Labour"
	}
	var skills string
	if len(l.Skills) > 0 {
		skills = "Skills: " + strings.Join(l.Skills, ", ")
	}
	var location string
	if l.LocationName != "" {
		location = "Location: " + l.LocationName
	}

	content := joinParts(" - ",
		name,
		skills,
		l.Bio,
		fmt.Sprintf("Rate: ₹%s/day", formatAmount(l.DailyRate)),
		location,
		fmt.Sprintf("Experience: %d years", l.ExperienceYears),
	)

	return SourceRecord{
		Content: content,
		Metadata: map[string]any{
			"id":            l.ID,
			"skills":        l.Skills,
			"daily_rate":    l.DailyRate,
			"location_name": l.LocationName,
			"availability":  l.Availability,
			"rating":        ratingValue(l.Rating),
		},
	}
}

// FormatReview renders a review for embedding. Reviews use ": " as the
// separator so the text reads as a sentence.
func FormatReview(r Review) SourceRecord {
	equipmentName := r.EquipmentName
	if equipmentName == "" {
		equipmentName = "Unknown Equipment"
	}
	reviewerName := r.ReviewerName
	if reviewerName == "" {
		reviewerName = "Anonymous"
	}

	content := joinParts(": ",
		fmt.Sprintf("%s review by %s", equipmentName, reviewerName),
		r.Comment,
		fmt.Sprintf("Rating: %d/5", r.Rating),
	)

	return SourceRecord{
		Content: content,
		Metadata: map[string]any{
			"id":             r.ID,
			"equipment_id":   r.EquipmentID,
			"equipment_name": r.EquipmentName,
			"rating":         r.Rating,
			"reviewer_name":  r.ReviewerName,
		},
	}
}

// FormatBooking renders a booking for embedding. The text captures
// equipment, renter, status, dates, amount and payment status so semantic
// search matches queries like "my pending bookings".
func FormatBooking(b Booking) SourceRecord {
	equipmentName := b.EquipmentName
	if equipmentName == "" {
		equipmentName = "Unknown Equipment"
	}
	renterName := b.RenterName
	if renterName == "" {
		renterName = "Unknown Renter"
	}

	var dateRange string
	if b.StartDate != "" && b.EndDate != "" {
		dateRange = fmt.Sprintf("from %s to %s", b.StartDate, b.EndDate)
	}
	var days string
	if b.TotalDays != nil {
		days = fmt.Sprintf("%d days", *b.TotalDays)
	}
	amount := "amount TBD"
	if b.TotalAmount != nil {
		amount = "₹" + formatAmount(*b.TotalAmount)
	}
	var payment string
	if b.PaymentStatus != "" {
		payment = "Payment: " + b.PaymentStatus
	}

	content := joinParts(" - ",
		fmt.Sprintf("Booking for %s by %s", equipmentName, renterName),
		"Status: "+b.Status,
		dateRange,
		days,
		amount,
		payment,
	)

	return SourceRecord{
		Content: content,
		Metadata: map[string]any{
			"id":             b.ID,
			"equipment_id":   b.EquipmentID,
			"equipment_name": b.EquipmentName,
			"renter_id":      b.RenterID,
			"renter_name":    b.RenterName,
			"status":         b.Status,
			"start_date":     b.StartDate,
			"end_date":       b.EndDate,
			"total_days":     b.TotalDays,
			"total_amount":   b.TotalAmount,
			"payment_status": b.PaymentStatus,
		},
	}
}

// formatAmount renders a rupee amount without trailing zeros for whole
// values (₹1500/day, not ₹1500.00/day).
func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// ratingValue unwraps an optional rating for metadata storage; nil stays
// nil so formatters downstream can distinguish "no rating" from 0.
func ratingValue(r *float64) any {
	if r == nil {
		return nil
	}
	return *r
}
