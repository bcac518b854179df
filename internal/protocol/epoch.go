package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// EpochTime is a timestamp that JSON protocols send as seconds since the Unix
// epoch, with optional fractional milliseconds.
type EpochTime struct {
	time.Time
}

// NewEpochTime wraps t.
func NewEpochTime(t time.Time) EpochTime { return EpochTime{Time: t} }

// MarshalJSON writes epoch seconds, with three decimals when there are millis.
func (e EpochTime) MarshalJSON() ([]byte, error) {
	ms := e.UnixMilli()
	if ms%1000 == 0 {
		return []byte(strconv.FormatInt(ms/1000, 10)), nil
	}
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	return []byte(fmt.Sprintf("%s%d.%03d", sign, ms/1000, ms%1000)), nil
}

// UnmarshalJSON accepts epoch seconds or an RFC 3339 string.
func (e *EpochTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("epoch time: %w", err)
		}
		e.Time = t
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("epoch time: %w", err)
	}
	sec, frac := math.Modf(f)
	e.Time = time.Unix(int64(sec), int64(math.Round(frac*1000))*int64(time.Millisecond)).UTC()
	return nil
}
