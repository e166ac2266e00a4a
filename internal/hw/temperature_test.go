package hw

import "testing"

func TestTempSensorInitialValue(t *testing.T) {
	s := NewTempSensor(0, 0)
	if s.Celsius() != InitialCelsius {
		t.Errorf("expected initial %v, got %v", InitialCelsius, s.Celsius())
	}
}

func TestADCToCelsius(t *testing.T) {
	tests := []struct {
		raw  uint32
		want float64
	}{
		{0, 0},
		{310, 24.9},   // 3300*310/4095 = 249 mV
		{4095, 330.0}, // full scale
		{9999, 330.0}, // clamped to full scale
	}

	for _, tt := range tests {
		got := ADCToCelsius(tt.raw, DefaultADCBits, DefaultADCVrefMV)
		if got != tt.want {
			t.Errorf("ADCToCelsius(%d) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestTempSensorStoreADC(t *testing.T) {
	s := NewTempSensor(DefaultADCBits, DefaultADCVrefMV)

	got := s.StoreADC(310)
	if got != 24.9 {
		t.Errorf("StoreADC returned %v, want 24.9", got)
	}
	if s.Celsius() != 24.9 {
		t.Errorf("Celsius() = %v, want 24.9", s.Celsius())
	}
}

func TestTempSensorSet(t *testing.T) {
	s := NewTempSensor(0, 0)
	s.Set(-3.5)
	if s.Celsius() != -3.5 {
		t.Errorf("Celsius() = %v, want -3.5", s.Celsius())
	}
}
