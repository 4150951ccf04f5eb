package integration

import (
	"testing"

	"tamasya/internal/models"
)

func TestHealthEndpoint(t *testing.T) {
	client := NewTestClient(t)
	client.HealthCheck(t)
}

func TestCatalogAndQuote(t *testing.T) {
	client := NewTestClient(t)

	activities := client.ListActivities(t)
	if len(activities) == 0 {
		t.Skip("No activities in catalog; run the seeder first")
	}

	activity := activities[0]

	breakdown := client.Quote(t, models.QuoteRequest{
		ActivityID: activity.ID,
		Adults:     2,
		Children:   1,
	})

	if breakdown.Subtotal != breakdown.AdultTotal+breakdown.ChildTotal {
		t.Fatalf("Subtotal %d does not match adult %d + child %d",
			breakdown.Subtotal, breakdown.AdultTotal, breakdown.ChildTotal)
	}
	if breakdown.Total != breakdown.Subtotal+breakdown.ServiceFee {
		t.Fatalf("Total %d does not match subtotal %d + fee %d",
			breakdown.Total, breakdown.Subtotal, breakdown.ServiceFee)
	}
}

func TestBookingLifecycle(t *testing.T) {
	client := NewTestClient(t)

	activities := client.ListActivities(t)
	if len(activities) == 0 {
		t.Skip("No activities in catalog; run the seeder first")
	}

	var slot *models.AvailabilitySlot
	var activityID int64
	for _, activity := range activities {
		slots := client.ListOpenSlots(t, activity.ID)
		for i := range slots {
			if slots[i].AvailableSpots >= 2 {
				slot = &slots[i]
				activityID = activity.ID
				break
			}
		}
		if slot != nil {
			break
		}
	}
	if slot == nil {
		t.Skip("No open slot with capacity; run the seeder first")
	}

	spotsBefore := slot.AvailableSpots

	booking := client.CreateBooking(t, models.CreateBookingRequest{
		ActivityID:         activityID,
		AvailabilitySlotID: slot.ID,
		Adults:             2,
		ContactName:        "Integration Test",
		ContactEmail:       "integration@example.com",
		ContactPhone:       "+628123456789",
	})

	if booking.Status != models.BookingStatusPending {
		t.Fatalf("Expected pending booking, got %q", booking.Status)
	}
	if booking.Reference == "" {
		t.Fatal("Booking reference is empty")
	}

	fetched := client.GetBooking(t, booking.Reference)
	if fetched.ID != booking.ID {
		t.Fatalf("Fetched booking ID %d, expected %d", fetched.ID, booking.ID)
	}

	slots := client.ListOpenSlots(t, activityID)
	for i := range slots {
		if slots[i].ID == slot.ID && slots[i].AvailableSpots != spotsBefore-2 {
			t.Fatalf("Expected %d spots after booking, got %d",
				spotsBefore-2, slots[i].AvailableSpots)
		}
	}

	cancelled := client.CancelBooking(t, booking.Reference)
	if cancelled.Status != models.BookingStatusCancelled {
		t.Fatalf("Expected cancelled booking, got %q", cancelled.Status)
	}

	slots = client.ListOpenSlots(t, activityID)
	for i := range slots {
		if slots[i].ID == slot.ID && slots[i].AvailableSpots != spotsBefore {
			t.Fatalf("Expected %d spots after cancellation, got %d",
				spotsBefore, slots[i].AvailableSpots)
		}
	}
}

func TestPaymentIntentForPendingBooking(t *testing.T) {
	client := NewTestClient(t)

	activities := client.ListActivities(t)
	if len(activities) == 0 {
		t.Skip("No activities in catalog; run the seeder first")
	}

	var slot *models.AvailabilitySlot
	var activityID int64
	for _, activity := range activities {
		slots := client.ListOpenSlots(t, activity.ID)
		if len(slots) > 0 && slots[0].AvailableSpots >= 1 {
			slot = &slots[0]
			activityID = activity.ID
			break
		}
	}
	if slot == nil {
		t.Skip("No open slot with capacity; run the seeder first")
	}

	booking := client.CreateBooking(t, models.CreateBookingRequest{
		ActivityID:         activityID,
		AvailabilitySlotID: slot.ID,
		Adults:             1,
		ContactName:        "Integration Test",
		ContactEmail:       "integration@example.com",
		ContactPhone:       "+628123456789",
	})
	defer client.CancelBooking(t, booking.Reference)

	intent := client.CreatePaymentIntent(t, booking.Reference)
	if intent.IntentID == "" {
		t.Fatal("Intent ID is empty")
	}
	if intent.ClientSecret == "" {
		t.Fatal("Client secret is empty")
	}
	if intent.ProcessorAmount <= 0 {
		t.Fatalf("Expected positive processor amount, got %d", intent.ProcessorAmount)
	}
}
