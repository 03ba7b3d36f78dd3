package handler

import (
	"strconv"

	"golang.org/x/time/rate"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func newLimiter(burst int) *rate.Limiter {
	return rate.NewLimiter(0, burst)
}
