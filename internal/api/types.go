package api

// Profile carries the mutable per-user fields the backend exposes.
// Age and Conditions are pointers so an unset field is distinguishable
// from a zero value.
type Profile struct {
	Username   string  `json:"username"`
	Age        *int    `json:"age"`
	Conditions *string `json:"conditions"`
}

// SessionStatus is the hydration payload returned by the session endpoint.
type SessionStatus struct {
	LoggedIn bool     `json:"logged_in"`
	User     *Profile `json:"user"`
	Features []string `json:"features"`
}

type authResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	User    *Profile `json:"user"`
}

// AuthResult reports the outcome of a login, registration, or profile
// update call.
type AuthResult struct {
	Success bool
	Message string
	User    *Profile
}

type conditionsResponse struct {
	Source string             `json:"source"`
	Data   map[string]float64 `json:"data"`
}

// PredictionResult is the predict endpoint's response. PerceivedAQI and
// PersonalAdvice are present only for authenticated users with profile
// data; absence must never be conflated with zero.
type PredictionResult struct {
	PredictedAQI   float64  `json:"predicted_aqi"`
	Category       string   `json:"category"`
	Color          string   `json:"color"`
	Advice         string   `json:"advice"`
	Emoji          string   `json:"emoji"`
	PerceivedAQI   *float64 `json:"perceived_aqi"`
	PersonalAdvice *string  `json:"personal_advice"`
}

// TimeSeriesPoint is one hourly sample of the ambient AQI series, with an
// optional personalized value on forecast points.
type TimeSeriesPoint struct {
	Timestamp     string   `json:"ds"`
	Yhat          float64  `json:"yhat"`
	PerceivedYhat *float64 `json:"perceived_yhat"`
}

// ForecastResponse pairs the historical window the model consumed with the
// forecast horizon it produced. The two sequences are disjoint in time and
// are rendered as separate series, never interleaved.
type ForecastResponse struct {
	Historical []TimeSeriesPoint `json:"historical"`
	Forecast   []TimeSeriesPoint `json:"forecast"`
}

// Series is a labeled chart-shaped payload. Labels and Values are
// parallel sequences of equal length.
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// SeriesStats are the summary statistics for an analysis window. Pointer
// fields: an absent stat renders as N/A, not as zero.
type SeriesStats struct {
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	Max    *float64 `json:"max"`
	Min    *float64 `json:"min"`
}

// TableData is the raw-record slice of an analysis window.
type TableData struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"data"`
}

// EdaBundle is the full analytics payload for one analysis run. It is
// replaced wholesale on every run, never merged.
type EdaBundle struct {
	TimeSeries struct {
		Stats       SeriesStats `json:"stats"`
		AqiOverTime Series      `json:"aqi_over_time"`
		Categories  Series      `json:"categories"`
		Dist        Series      `json:"dist"`
	} `json:"time_series"`
	DeepDive struct {
		ByMonth     Series `json:"by_month"`
		ByDayOfWeek Series `json:"by_day_of_week"`
		ByHour      Series `json:"by_hour"`
	} `json:"deep_dive"`
	TableData TableData `json:"table_data"`
}
