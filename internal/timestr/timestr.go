// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package timestr parses and formats human readable durations such as
// "1 minute 30 seconds", "1min 30s", "01:30" or plain seconds like "1.5".
package timestr

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var units = map[string]time.Duration{
	"w": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"h": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"ms": time.Millisecond, "millis": time.Millisecond, "millisecond": time.Millisecond, "milliseconds": time.Millisecond,
	"us": time.Microsecond, "μs": time.Microsecond, "micro": time.Microsecond, "microsecond": time.Microsecond, "microseconds": time.Microsecond,
	"ns": time.Nanosecond, "nano": time.Nanosecond, "nanosecond": time.Nanosecond, "nanoseconds": time.Nanosecond,
}

var (
	partPattern  = regexp.MustCompile(`^(\d+(?:\.\d*)?|\.\d+)([a-zμ]+)`)
	timerPattern = regexp.MustCompile(`^([-+])?(\d+:)?(\d+):(\d+)(\.\d+)?$`)
)

// IsNone reports whether s means "no value": empty or NONE in any case.
func IsNone(s string) bool {
	t := strings.TrimSpace(s)
	return t == "" || strings.EqualFold(t, "none")
}

// Parse converts a time string into a duration.
func Parse(s string) (time.Duration, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return 0, fmt.Errorf("invalid time string '%s'", s)
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64); err == nil {
		return fromSeconds(f)
	}
	if m := timerPattern.FindStringSubmatch(text); m != nil {
		return parseTimer(m)
	}

	compact := strings.ToLower(strings.Join(strings.Fields(text), ""))
	sign := time.Duration(1)
	switch {
	case strings.HasPrefix(compact, "-"):
		sign, compact = -1, compact[1:]
	case strings.HasPrefix(compact, "+"):
		compact = compact[1:]
	}
	if compact == "" {
		return 0, fmt.Errorf("invalid time string '%s'", s)
	}
	var total float64
	for compact != "" {
		m := partPattern.FindStringSubmatch(compact)
		if m == nil {
			return 0, fmt.Errorf("invalid time string '%s'", s)
		}
		unit, ok := units[m[2]]
		if !ok {
			return 0, fmt.Errorf("invalid time string '%s'", s)
		}
		n, _ := strconv.ParseFloat(m[1], 64)
		total += n * float64(unit)
		compact = compact[len(m[0]):]
	}
	if total > math.MaxInt64 {
		return 0, fmt.Errorf("time string '%s' is too large", s)
	}
	return sign * time.Duration(math.Round(total)), nil
}

func parseTimer(m []string) (time.Duration, error) {
	var hours, minutes, seconds int64
	if m[2] != "" {
		hours, _ = strconv.ParseInt(strings.TrimSuffix(m[2], ":"), 10, 64)
		minutes, _ = strconv.ParseInt(m[3], 10, 64)
	} else {
		minutes, _ = strconv.ParseInt(m[3], 10, 64)
	}
	seconds, _ = strconv.ParseInt(m[4], 10, 64)
	d := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
	if m[5] != "" {
		frac, _ := strconv.ParseFloat("0"+m[5], 64)
		d += time.Duration(math.Round(frac * float64(time.Second)))
	}
	if m[1] == "-" {
		d = -d
	}
	return d, nil
}

func fromSeconds(f float64) (time.Duration, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > float64(math.MaxInt64)/float64(time.Second) {
		return 0, fmt.Errorf("invalid time value %v", f)
	}
	return time.Duration(math.Round(f * float64(time.Second))), nil
}

// Format renders d in the compact form, e.g. "1h 2min 3s 400ms". Parse
// accepts everything Format produces.
func Format(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	var parts []string
	if d < 0 {
		parts = append(parts, "-")
		d = -d
	}
	for _, u := range []struct {
		unit time.Duration
		name string
	}{
		{24 * time.Hour, "d"},
		{time.Hour, "h"},
		{time.Minute, "min"},
		{time.Second, "s"},
		{time.Millisecond, "ms"},
		{time.Microsecond, "us"},
		{time.Nanosecond, "ns"},
	} {
		if n := d / u.unit; n > 0 {
			parts = append(parts, strconv.FormatInt(int64(n), 10)+u.name)
			d -= n * u.unit
		}
	}
	if parts[0] == "-" {
		return "-" + strings.Join(parts[1:], " ")
	}
	return strings.Join(parts, " ")
}
