// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package typeconv

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vk/kwgrid/internal/timestr"
)

var (
	trueStrings  = map[string]bool{"true": true, "yes": true, "on": true, "1": true}
	falseStrings = map[string]bool{"false": true, "no": true, "off": true, "0": true, "": true}
)

// NoneString is the literal accepted as None by nullable types.
const NoneString = "None"

// parseInt tries an integer first and falls back to a float with an
// integral value, in that order.
func parseInt(text string) (int, error) {
	s := strings.ReplaceAll(strings.TrimSpace(text), "_", "")
	if s == "" {
		return 0, errNotConvertible
	}
	sign := ""
	body := s
	if body[0] == '-' || body[0] == '+' {
		sign, body = body[:1], body[1:]
	}
	lower := strings.ToLower(body)
	base := 10
	switch {
	case strings.HasPrefix(lower, "0x"):
		base, body = 16, body[2:]
	case strings.HasPrefix(lower, "0b"):
		base, body = 2, body[2:]
	case strings.HasPrefix(lower, "0o"):
		base, body = 8, body[2:]
	}
	if i, err := strconv.ParseInt(sign+body, base, 64); err == nil {
		if i < math.MinInt || i > math.MaxInt {
			return 0, errNotConvertible
		}
		return int(i), nil
	}
	if base != 10 {
		return 0, errNotConvertible
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, errNotConvertible
	}
	return int(f), nil
}

func parseFloat(text string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(text), "_", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errNotConvertible
	}
	return f, nil
}

func parseBool(text string) (bool, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	switch {
	case trueStrings[s]:
		return true, nil
	case falseStrings[s]:
		return false, nil
	}
	return false, errNotConvertible
}

func parseNone(text string) (any, error) {
	if strings.EqualFold(strings.TrimSpace(text), NoneString) {
		return nil, nil
	}
	return nil, errNotConvertible
}

// parseBytes maps each character to one byte; characters above U+00FF are
// rejected.
func parseBytes(text string) ([]byte, error) {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		if r > 0xFF {
			return nil, fmt.Errorf("character '%c' cannot be mapped to a byte", r)
		}
		out = append(out, byte(r))
	}
	return out, nil
}

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"20060102 15:04:05.999999999",
	"20060102 150405",
	"20060102",
}

func parseDatetime(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	}
	return time.Time{}, errNotConvertible
}

func parseDate(text string) (time.Time, error) {
	t, err := parseDatetime(text)
	if err != nil {
		return time.Time{}, err
	}
	if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		return time.Time{}, fmt.Errorf("value contains a time part")
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func parseTimedelta(text string) (time.Duration, error) {
	d, err := timestr.Parse(text)
	if err != nil {
		return 0, errNotConvertible
	}
	return d, nil
}
