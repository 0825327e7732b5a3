package http3

import "testing"

func TestSettingsRoundTrip(t *testing.T) {
	s := Settings{
		QPACKMaxTableCapacity: 4096,
		MaxFieldSectionSize:   65536,
		QPACKBlockedStreams:   16,
	}
	got, err := decodeSettings(encodeSettings(s))
	if err != nil {
		t.Fatalf("decodeSettings: %v", err)
	}
	if got.QPACKMaxTableCapacity != s.QPACKMaxTableCapacity ||
		got.MaxFieldSectionSize != s.MaxFieldSectionSize ||
		got.QPACKBlockedStreams != s.QPACKBlockedStreams ||
		len(got.unknown) != 0 {
		t.Fatalf("decodeSettings() = %+v, want %+v", got, s)
	}
}

func TestSettingsUnknownIdentifierPreserved(t *testing.T) {
	s := Settings{QPACKMaxTableCapacity: 100, unknown: map[uint64]uint64{0x1234: 7}}
	got, err := decodeSettings(encodeSettings(s))
	if err != nil {
		t.Fatalf("decodeSettings: %v", err)
	}
	if got.QPACKMaxTableCapacity != 100 || got.unknown[0x1234] != 7 {
		t.Fatalf("decodeSettings() = %+v", got)
	}
}

func TestSettingsTruncated(t *testing.T) {
	b := encodeSettings(Settings{QPACKMaxTableCapacity: 4096})
	if _, err := decodeSettings(b[:len(b)-1]); err == nil {
		t.Fatal("expected error decoding truncated settings")
	}
}

func TestGoawayRoundTrip(t *testing.T) {
	id, err := decodeGoaway(encodeGoaway(12))
	if err != nil || id != 12 {
		t.Fatalf("decodeGoaway() = %d, %v", id, err)
	}
	if _, err := decodeGoaway(append(encodeGoaway(12), 0xff)); err == nil {
		t.Fatal("expected error decoding goaway with trailing bytes")
	}
}

func TestMaxPushIDRoundTrip(t *testing.T) {
	id, err := decodeMaxPushID(encodeMaxPushID(9))
	if err != nil || id != 9 {
		t.Fatalf("decodeMaxPushID() = %d, %v", id, err)
	}
}
