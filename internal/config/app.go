package config

import (
	"fmt"
	"os"
	"strconv"
)

func Addr() string {
	if port, ok := os.LookupEnv("APP_PORT"); ok {
		return ":" + port
	}
	return ":8080"
}

// SubscriberBuffer is the outbound buffer size per game subscriber. A
// subscriber that falls this many diffs behind is dropped.
func SubscriberBuffer() (int, error) {
	raw, ok := os.LookupEnv("SUBSCRIBER_BUFFER")
	if !ok {
		return 64, nil
	}
	size, err := strconv.Atoi(raw)
	if err != nil || size < 1 {
		return 0, fmt.Errorf("SUBSCRIBER_BUFFER must be a positive int, got %q", raw)
	}
	return size, nil
}
