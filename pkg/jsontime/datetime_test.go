package jsontime

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateTime_UnmarshalJSON(t *testing.T) {
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339", `"2024-01-15T10:30:00Z"`, want},
		{"rfc3339 offset", `"2024-01-15T12:30:00+02:00"`, want},
		{"naive", `"2024-01-15T10:30:00"`, want},
		{"naive fraction", `"2024-01-15T10:30:00.000000"`, want},
		{"space", `"2024-01-15 10:30:00"`, want},
		{"minutes", `"2024-01-15T10:30"`, want},
		{"date only", `"2024-01-15"`, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"unix seconds", `1705314600`, want},
		{"unix millis", `1705314600000`, want},
		{"unix string", `"1705314600"`, want},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dt DateTime
			if err := json.Unmarshal([]byte(tt.input), &dt); err != nil {
				t.Fatalf("UnmarshalJSON(%s) error: %v", tt.input, err)
			}
			if !dt.Time().Equal(tt.want) {
				t.Errorf("UnmarshalJSON(%s) = %v, want %v", tt.input, dt.Time(), tt.want)
			}
		})
	}
}

func TestDateTime_UnmarshalJSON_Invalid(t *testing.T) {
	for _, input := range []string{`"yesterday"`, `true`, `{}`, `"2024-13-01"`} {
		var dt DateTime
		if err := json.Unmarshal([]byte(input), &dt); err == nil {
			t.Errorf("UnmarshalJSON(%s) expected error, got %v", input, dt)
		}
	}
}

func TestDateTime_Null(t *testing.T) {
	var v struct {
		At *DateTime `json:"at"`
	}
	if err := json.Unmarshal([]byte(`{"at":null}`), &v); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if v.At != nil {
		t.Errorf("At = %v, want nil", v.At)
	}
}

func TestDateTime_RoundTrip(t *testing.T) {
	original := DateTime(time.Date(2024, 1, 15, 10, 30, 0, 123456789, time.UTC))

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(data) != `"2024-01-15T10:30:00.123456789Z"` {
		t.Errorf("Marshal = %s", data)
	}

	var restored DateTime
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if !original.Equal(restored) {
		t.Errorf("RoundTrip: original=%v, restored=%v", original, restored)
	}
}

func TestDateTime_Compare(t *testing.T) {
	a := DateTime(time.Unix(100, 0))
	b := DateTime(time.Unix(200, 0))
	if !a.Before(b) || !b.After(a) {
		t.Error("ordering mismatch")
	}
	if (DateTime{}).IsZero() != true {
		t.Error("zero DateTime should report IsZero")
	}
}
