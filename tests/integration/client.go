package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"tamasya/internal/models"
)

// TestClient provides methods for exercising the API over HTTP.
type TestClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewTestClient creates a client for the running API, or skips the test
// when TAMASYA_API_URL is not set.
func NewTestClient(t *testing.T) *TestClient {
	baseURL := os.Getenv("TAMASYA_API_URL")
	if baseURL == "" {
		t.Skip("TAMASYA_API_URL not set; skipping integration test")
	}

	return &TestClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *TestClient) makeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// HealthCheck checks if the API is healthy.
func (c *TestClient) HealthCheck(t *testing.T) {
	resp := c.makeRequest(t, "GET", "/health", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Health check failed with status %d", resp.StatusCode)
	}
}

// ListActivities lists the activity catalog.
func (c *TestClient) ListActivities(t *testing.T) models.ListActivitiesResponse {
	resp := c.makeRequest(t, "GET", "/api/activities?page=1&pageSize=20", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var activities models.ListActivitiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		t.Fatalf("Failed to decode activities response: %v", err)
	}

	return activities
}

// ListOpenSlots lists the open availability slots for an activity.
func (c *TestClient) ListOpenSlots(t *testing.T, activityID int64) []models.AvailabilitySlot {
	path := fmt.Sprintf("/api/activities/%d/slots", activityID)
	resp := c.makeRequest(t, "GET", path, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var slots []models.AvailabilitySlot
	if err := json.NewDecoder(resp.Body).Decode(&slots); err != nil {
		t.Fatalf("Failed to decode slots response: %v", err)
	}

	return slots
}

// CreateBooking creates a new booking.
func (c *TestClient) CreateBooking(t *testing.T, req models.CreateBookingRequest) *models.BookingResponse {
	resp := c.makeRequest(t, "POST", "/api/bookings", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 201, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var booking models.BookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
		t.Fatalf("Failed to decode booking response: %v", err)
	}

	return &booking
}

// GetBooking fetches a booking by reference.
func (c *TestClient) GetBooking(t *testing.T, reference string) *models.BookingResponse {
	resp := c.makeRequest(t, "GET", "/api/bookings/"+reference, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var booking models.BookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
		t.Fatalf("Failed to decode booking response: %v", err)
	}

	return &booking
}

// Quote previews the price breakdown without persisting.
func (c *TestClient) Quote(t *testing.T, req models.QuoteRequest) *models.PriceBreakdown {
	resp := c.makeRequest(t, "POST", "/api/bookings/quote", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var breakdown models.PriceBreakdown
	if err := json.NewDecoder(resp.Body).Decode(&breakdown); err != nil {
		t.Fatalf("Failed to decode quote response: %v", err)
	}

	return &breakdown
}

// CancelBooking cancels a booking by reference.
func (c *TestClient) CancelBooking(t *testing.T, reference string) *models.BookingResponse {
	resp := c.makeRequest(t, "PATCH", "/api/bookings/"+reference+"/cancel", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var booking models.BookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
		t.Fatalf("Failed to decode cancel response: %v", err)
	}

	return &booking
}

// CreatePaymentIntent starts checkout for a booking.
func (c *TestClient) CreatePaymentIntent(t *testing.T, reference string) *models.PaymentIntentResponse {
	resp := c.makeRequest(t, "POST", "/api/bookings/"+reference+"/payment-intent", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 201, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var intent models.PaymentIntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		t.Fatalf("Failed to decode payment intent response: %v", err)
	}

	return &intent
}
