package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second, nil)
}

func TestCallExtractsMessageField(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Invalid username or password."})
	})

	_, err := client.Login(context.Background(), "nobody", "wrong")
	var gatewayErr *GatewayError
	if !errors.As(err, &gatewayErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gatewayErr.Message != "Invalid username or password." {
		t.Fatalf("unexpected message: %q", gatewayErr.Message)
	}
	if gatewayErr.Status != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", gatewayErr.Status)
	}
}

func TestCallExtractsErrorFieldWhenMessageAbsent(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "An error occurred during forecasting"})
	})

	_, err := client.Forecast(context.Background(), 24)
	var gatewayErr *GatewayError
	if !errors.As(err, &gatewayErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gatewayErr.Message != "An error occurred during forecasting" {
		t.Fatalf("unexpected message: %q", gatewayErr.Message)
	}
}

func TestCallFallsBackToGenericMessage(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := client.SessionStatus(context.Background())
	var gatewayErr *GatewayError
	if !errors.As(err, &gatewayErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gatewayErr.Message != "request failed with status 502" {
		t.Fatalf("unexpected message: %q", gatewayErr.Message)
	}
}

func TestCallTreatsNonJSONSuccessAsBareMarker(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("expected non-JSON success to pass, got %v", err)
	}
}

func TestPredictDecodesOptionalFields(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/predict" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var features map[string]float64
		if err := json.NewDecoder(r.Body).Decode(&features); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if features["pm25"] != 40 || features["pm10"] != 60 {
			t.Errorf("unexpected feature payload: %v", features)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"predicted_aqi":   87.4,
			"category":        "Moderate",
			"advice":          "Sensitive groups should reduce outdoor exertion.",
			"perceived_aqi":   nil,
			"personal_advice": nil,
		})
	})

	result, err := client.Predict(context.Background(), map[string]float64{"pm25": 40, "pm10": 60})
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if result.PredictedAQI != 87.4 {
		t.Fatalf("unexpected predicted AQI: %v", result.PredictedAQI)
	}
	if result.PerceivedAQI != nil {
		t.Fatalf("expected nil perceived AQI, got %v", *result.PerceivedAQI)
	}
	if result.PersonalAdvice != nil {
		t.Fatalf("expected nil personal advice")
	}
	if RoundedAQI(result.PredictedAQI) != "87" {
		t.Fatalf("expected display value 87, got %q", RoundedAQI(result.PredictedAQI))
	}
}

func TestForecastRejectsNonPositiveHours(t *testing.T) {
	t.Parallel()

	client := NewClient("http://127.0.0.1:1", time.Second, nil)
	if _, err := client.Forecast(context.Background(), 0); err == nil {
		t.Fatalf("expected validation error for zero hours")
	}
}

func TestAnalysisSendsDateRangeQuery(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("start"); got != "2025-01-01" {
			t.Errorf("unexpected start param %q", got)
		}
		if got := r.URL.Query().Get("end"); got != "2025-06-30" {
			t.Errorf("unexpected end param %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"time_series": map[string]any{
				"stats":         map[string]any{"mean": 92.1, "median": 88.0, "max": 301.0, "min": 12.0},
				"aqi_over_time": map[string]any{"labels": []string{"2025-01-01"}, "values": []float64{92.1}},
				"categories":    map[string]any{"labels": []string{"Moderate"}, "values": []float64{10}},
				"dist":          map[string]any{"labels": []string{"0-25"}, "values": []float64{4}},
			},
			"deep_dive": map[string]any{
				"by_month":       map[string]any{"labels": []string{"January"}, "values": []float64{92.1}},
				"by_day_of_week": map[string]any{"labels": []string{"Monday"}, "values": []float64{90.0}},
				"by_hour":        map[string]any{"labels": []string{"08:00"}, "values": []float64{95.5}},
			},
			"table_data": map[string]any{
				"columns": []string{"Datetime", "AQI"},
				"data":    []map[string]any{{"Datetime": "2025-01-01T00:00:00", "AQI": 92.1}},
			},
		})
	})

	bundle, err := client.Analysis(context.Background(), "2025-01-01", "2025-06-30")
	if err != nil {
		t.Fatalf("Analysis returned error: %v", err)
	}
	if bundle.TimeSeries.Stats.Mean == nil || *bundle.TimeSeries.Stats.Mean != 92.1 {
		t.Fatalf("unexpected mean stat: %v", bundle.TimeSeries.Stats.Mean)
	}
	if len(bundle.TableData.Rows) != 1 || len(bundle.TableData.Columns) != 2 {
		t.Fatalf("unexpected table shape: %+v", bundle.TableData)
	}
	if len(bundle.DeepDive.ByHour.Labels) != len(bundle.DeepDive.ByHour.Values) {
		t.Fatalf("labels/values length mismatch")
	}
}
