package parking

import "testing"

func TestNewVehicle(t *testing.T) {
	vehicle := NewVehicle("KA01HH1234", Electric)

	if vehicle.LicensePlate != "KA01HH1234" {
		t.Errorf("Expected license plate KA01HH1234, got %s", vehicle.LicensePlate)
	}

	if vehicle.Category != Electric {
		t.Errorf("Expected category %s, got %s", Electric, vehicle.Category)
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input string
		want  Category
		ok    bool
	}{
		{"regular", Regular, true},
		{"Electric ", Electric, true},
		{"HANDICAPPED", Handicapped, true},
		{"truck", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, err := ParseCategory(tt.input)
		if tt.ok {
			if err != nil {
				t.Errorf("ParseCategory(%q): unexpected error %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseCategory(%q) = %s, want %s", tt.input, got, tt.want)
			}
			continue
		}
		if err == nil {
			t.Errorf("ParseCategory(%q): expected error", tt.input)
		}
	}
}
