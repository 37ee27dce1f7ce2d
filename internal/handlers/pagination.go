package handlers

import (
	"errors"
	"strconv"
	"strings"
)

var errInvalidPagination = errors.New("invalid pagination params")

// parsePage reads an optional 1-based page number.
func parsePage(pageStr string) (int64, error) {
	pageStr = strings.TrimSpace(pageStr)
	if pageStr == "" {
		return 1, nil
	}
	page, err := strconv.ParseInt(pageStr, 10, 64)
	if err != nil || page < 1 {
		return 0, errInvalidPagination
	}
	return page, nil
}

// parseLimit reads an optional positive limit capped at max.
func parseLimit(limitStr string, max int64) (int64, error) {
	limitStr = strings.TrimSpace(limitStr)
	if limitStr == "" {
		return 0, nil
	}
	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || limit < 1 {
		return 0, errInvalidPagination
	}
	if limit > max {
		limit = max
	}
	return limit, nil
}
