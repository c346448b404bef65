package knowledge

import (
	"strings"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestFormatEquipment(t *testing.T) {
	record := FormatEquipment(Equipment{
		ID:           "eq-1",
		Name:         "John Deere 5050D",
		Category:     "Tractor",
		Description:  "50 HP workhorse",
		Brand:        "John Deere",
		PricePerDay:  1800,
		LocationName: "Ludhiana",
		Features:     []string{"4WD", "Power steering"},
		OwnerID:      "u-1",
		IsAvailable:  true,
		Rating:       floatPtr(4.5),
	})

	want := "John Deere 5050D - Tractor - 50 HP workhorse - Brand: John Deere - Price: ₹1800/day - Location: Ludhiana - Features: 4WD, Power steering"
	if record.Content != want {
		t.Errorf("content = %q\nwant      %q", record.Content, want)
	}
	if record.Metadata["name"] != "John Deere 5050D" {
		t.Errorf("metadata name = %v", record.Metadata["name"])
	}
	if record.Metadata["price_per_day"] != 1800.0 {
		t.Errorf("metadata price_per_day = %v", record.Metadata["price_per_day"])
	}
	if record.Metadata["rating"] != 4.5 {
		t.Errorf("metadata rating = %v", record.Metadata["rating"])
	}
}

func TestFormatEquipmentSparse(t *testing.T) {
	record := FormatEquipment(Equipment{
		ID:          "eq-2",
		Name:        "Disc Harrow",
		PricePerDay: 450.50,
	})

	want := "Disc Harrow - Price: ₹450.50/day"
	if record.Content != want {
		t.Errorf("content = %q, want %q", record.Content, want)
	}
	if record.Metadata["rating"] != nil {
		t.Errorf("missing rating should stay nil, got %v", record.Metadata["rating"])
	}
}

func TestFormatUser(t *testing.T) {
	record := FormatUser(UserProfile{
		ID:      "u-1",
		Name:    "Ramesh Kumar",
		Roles:   []string{"farmer", "owner"},
		Bio:     "Wheat and paddy farmer",
		Address: "Village Rajpura",
	})

	want := "Ramesh Kumar - farmer, owner - Wheat and paddy farmer - Location: Village Rajpura"
	if record.Content != want {
		t.Errorf("content = %q, want %q", record.Content, want)
	}
}

func TestFormatUserUnnamed(t *testing.T) {
	record := FormatUser(UserProfile{ID: "u-2"})
	if !strings.HasPrefix(record.Content, "Unknown User") {
		t.Errorf("content = %q, want Unknown User fallback", record.Content)
	}
}

func TestFormatLabour(t *testing.T) {
	record := FormatLabour(LabourProfile{
		ID:              "lb-1",
		UserName:        "Balwinder Singh",
		Skills:          []string{"harvesting", "sowing"},
		Bio:             "Ten seasons of combine work",
		DailyRate:       800,
		LocationName:    "Moga",
		ExperienceYears: 10,
		Availability:    "weekdays",
		Rating:          floatPtr(4.8),
	})

	want := "Balwinder Singh - Skills: harvesting, sowing - Ten seasons of combine work - Rate: ₹800/day - Location: Moga - Experience: 10 years"
	if record.Content != want {
		t.Errorf("content = %q\nwant      %q", record.Content, want)
	}
	if record.Metadata["availability"] != "weekdays" {
		t.Errorf("metadata availability = %v", record.Metadata["availability"])
	}
}

func TestFormatReview(t *testing.T) {
	record := FormatReview(Review{
		ID:            "rv-1",
		EquipmentID:   "eq-1",
		EquipmentName: "Mahindra 575",
		ReviewerName:  "Gurpreet",
		Comment:       "Engine ran hot on the second day",
		Rating:        3,
	})

	want := "Mahindra 575 review by Gurpreet: Engine ran hot on the second day: Rating: 3/5"
	if record.Content != want {
		t.Errorf("content = %q, want %q", record.Content, want)
	}
	if record.Metadata["rating"] != 3 {
		t.Errorf("metadata rating = %v", record.Metadata["rating"])
	}
}

func TestFormatBooking(t *testing.T) {
	record := FormatBooking(Booking{
		ID:            "bk-1",
		EquipmentID:   "eq-1",
		EquipmentName: "Power Tiller",
		RenterID:      "u-2",
		RenterName:    "Balwinder",
		Status:        "confirmed",
		StartDate:     "2026-09-01",
		EndDate:       "2026-09-03",
		TotalDays:     intPtr(3),
		TotalAmount:   floatPtr(5400),
		PaymentStatus: "paid",
	})

	want := "Booking for Power Tiller by Balwinder - Status: confirmed - from 2026-09-01 to 2026-09-03 - 3 days - ₹5400 - Payment: paid"
	if record.Content != want {
		t.Errorf("content = %q\nwant      %q", record.Content, want)
	}
	if record.Metadata["payment_status"] != "paid" {
		t.Errorf("metadata payment_status = %v", record.Metadata["payment_status"])
	}
}

func TestFormatBookingSparse(t *testing.T) {
	record := FormatBooking(Booking{ID: "bk-2", Status: "pending"})
	want := "Booking for Unknown Equipment by Unknown Renter - Status: pending - amount TBD"
	if record.Content != want {
		t.Errorf("content = %q, want %q", record.Content, want)
	}
}

func TestSourceTypeValid(t *testing.T) {
	for _, st := range SourceTypes {
		if !st.Valid() {
			t.Errorf("SourceType %q should be valid", st)
		}
	}
	for _, bad := range []SourceType{"", "tractor", "EQUIPMENT"} {
		if bad.Valid() {
			t.Errorf("SourceType %q should be invalid", bad)
		}
	}
}
