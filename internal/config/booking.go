package config

import (
	"time"
	// Zone data for minimal images without /usr/share/zoneinfo.
	_ "time/tzdata"
)

// BookingConfig describes the legacy booking API the gateway fronts.
// AuthToken is process-wide and read-only after Load.
type BookingConfig struct {
	BaseURL          string        `yaml:"base_url"`
	BasePath         string        `yaml:"base_path"`
	AuthToken        string        `yaml:"auth_token"`
	Timeout          time.Duration `yaml:"timeout"`
	FareDebounce     time.Duration `yaml:"fare_debounce"`
	FareQuoteTimeout time.Duration `yaml:"fare_quote_timeout"`
	FareCacheTTL     time.Duration `yaml:"fare_cache_ttl"`
	HistoryPageSize  int           `yaml:"history_page_size"`
	FlowIdleTTL      time.Duration `yaml:"flow_idle_ttl"`
	// TimeZone is where pickups happen. Scheduled times are converted to
	// it before the night window is checked or times are sent upstream.
	TimeZone string         `yaml:"time_zone"`
	Location *time.Location `yaml:"-"`
}

func loadBookingConfig() *BookingConfig {
	return &BookingConfig{
		BaseURL:          getEnv("BOOKING_API_BASE_URL", ""),
		BasePath:         getEnv("BOOKING_API_BASE_PATH", "api/V1/booking"),
		AuthToken:        getEnv("BOOKING_API_AUTH", ""),
		Timeout:          getEnvAsDuration("BOOKING_API_TIMEOUT", 15*time.Second),
		FareDebounce:     getEnvAsDuration("FARE_DEBOUNCE", 700*time.Millisecond),
		FareQuoteTimeout: getEnvAsDuration("FARE_QUOTE_TIMEOUT", 10*time.Second),
		FareCacheTTL:     getEnvAsDuration("FARE_CACHE_TTL", 2*time.Minute),
		HistoryPageSize:  getEnvAsInt("BOOKING_HISTORY_PAGE_SIZE", 20),
		FlowIdleTTL:      getEnvAsDuration("BOOKING_FLOW_IDLE_TTL", 30*time.Minute),
		TimeZone:         getEnv("BOOKING_TIME_ZONE", "Asia/Kolkata"),
	}
}
