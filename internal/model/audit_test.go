package model

import (
	"testing"
	"time"
)

func TestMarkCreated(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	var v Vehicle
	v.IsActive = false
	v.MarkCreated(7, now)

	if !v.Created.Equal(now) || !v.Updated.Equal(now) {
		t.Errorf("MarkCreated() timestamps = %v/%v, want %v", v.Created, v.Updated, now)
	}
	if !v.IsActive || !v.IsEnable {
		t.Errorf("MarkCreated() flags = %v/%v, want true/true", v.IsActive, v.IsEnable)
	}
	if v.CreatedByID != 7 || v.UpdatedByID != 7 {
		t.Errorf("MarkCreated() actors = %d/%d, want 7/7", v.CreatedByID, v.UpdatedByID)
	}
}

func TestMarkUpdated(t *testing.T) {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		now         time.Time
		wantUpdated time.Time
	}{
		{
			name:        "clock moves forward",
			now:         base.Add(time.Minute),
			wantUpdated: base.Add(time.Minute),
		},
		{
			name:        "same instant",
			now:         base,
			wantUpdated: base,
		},
		{
			name:        "clock moves backwards",
			now:         base.Add(-time.Hour),
			wantUpdated: base,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Producer
			p.MarkCreated(1, base)
			p.MarkUpdated(2, tt.now)

			if !p.Updated.Equal(tt.wantUpdated) {
				t.Errorf("MarkUpdated() Updated = %v, want %v", p.Updated, tt.wantUpdated)
			}
			if p.UpdatedByID != 2 {
				t.Errorf("MarkUpdated() UpdatedByID = %d, want 2", p.UpdatedByID)
			}
			if p.CreatedByID != 1 || !p.Created.Equal(base) {
				t.Errorf("MarkUpdated() changed creation fields: %d %v", p.CreatedByID, p.Created)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	records := Registry()
	if len(records) != 10 {
		t.Fatalf("Registry() returned %d records, want 10", len(records))
	}

	seen := make(map[string]bool)
	for _, r := range records {
		name := r.TableName()
		if seen[name] {
			t.Errorf("Registry() lists %s twice", name)
		}
		seen[name] = true

		if r.PrimaryKey() != 0 {
			t.Errorf("%s zero value has id %d", name, r.PrimaryKey())
		}
		if r.Envelope() == nil {
			t.Errorf("%s has no envelope", name)
		}
	}
}

func TestNew(t *testing.T) {
	rec, ok := New(TableVehicles)
	if !ok {
		t.Fatalf("New(%q) found nothing", TableVehicles)
	}
	v, isVehicle := rec.(*Vehicle)
	if !isVehicle {
		t.Fatalf("New(%q) returned %T", TableVehicles, rec)
	}
	v.SetPrimaryKey(7)
	if rec.PrimaryKey() != 7 {
		t.Errorf("PrimaryKey() = %d, want 7", rec.PrimaryKey())
	}

	if _, ok := New(TableUsers); ok {
		t.Error("New() should not hand out users")
	}
	if _, ok := New("harvests"); ok {
		t.Error("New() should reject unknown tables")
	}
}
