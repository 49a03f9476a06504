// v0
// internal/plant/snapshot.go
package plant

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Blob layout, little endian:
//
//	0      version
//	1      plant id
//	2..17  name, NUL padded
//	18..21 targets: temperature, humidity, moisture, light
//	22..25 ranges:  temperature, humidity, moisture, light
//	26..35 xp, level, items, backgrounds, avatars (uint16 each)
//	36..39 CRC-32 (IEEE) of bytes 0..35
const (
	SnapshotVersion = 1
	SnapshotSize    = 40

	offName     = 2
	offTargets  = offName + MaxNameLen
	offRanges   = offTargets + 4
	offCounters = offRanges + 4
	offCRC      = offCounters + 10
)

// MarshalBinary encodes the snapshot into its fixed-size persisted form.
// Names longer than MaxNameLen bytes are rejected.
func (s Snapshot) MarshalBinary() ([]byte, error) {
	if len(s.Profile.Name) > MaxNameLen {
		return nil, fmt.Errorf("name %q longer than %d bytes: %w", s.Profile.Name, MaxNameLen, ErrInvalidArgument)
	}
	buf := make([]byte, SnapshotSize)
	buf[0] = SnapshotVersion
	buf[1] = s.PlantID
	copy(buf[offName:offName+MaxNameLen], s.Profile.Name)
	for i, c := range Channels {
		t := s.Profile.Tolerance(c)
		buf[offTargets+i] = t.Target
		buf[offRanges+i] = t.Range
	}
	le := binary.LittleEndian
	le.PutUint16(buf[offCounters:], s.XP)
	le.PutUint16(buf[offCounters+2:], s.Level)
	le.PutUint16(buf[offCounters+4:], s.UnlockedItems)
	le.PutUint16(buf[offCounters+6:], s.UnlockedBackgrounds)
	le.PutUint16(buf[offCounters+8:], s.UnlockedAvatars)
	le.PutUint32(buf[offCRC:], crc32.ChecksumIEEE(buf[:offCRC]))
	return buf, nil
}

// UnmarshalBinary decodes a blob produced by MarshalBinary. Any size,
// version, checksum or profile mismatch yields ErrCorruptSnapshot.
func (s *Snapshot) UnmarshalBinary(data []byte) error {
	if s == nil {
		return fmt.Errorf("nil snapshot: %w", ErrInvalidArgument)
	}
	if len(data) != SnapshotSize {
		return fmt.Errorf("size %d, want %d: %w", len(data), SnapshotSize, ErrCorruptSnapshot)
	}
	if data[0] != SnapshotVersion {
		return fmt.Errorf("version %d: %w", data[0], ErrCorruptSnapshot)
	}
	le := binary.LittleEndian
	if got, want := le.Uint32(data[offCRC:]), crc32.ChecksumIEEE(data[:offCRC]); got != want {
		return fmt.Errorf("checksum %08x, want %08x: %w", got, want, ErrCorruptSnapshot)
	}

	var out Snapshot
	out.PlantID = data[1]
	out.Profile.Name = string(bytes.TrimRight(data[offName:offName+MaxNameLen], "\x00"))
	tol := func(i int) Tolerance { return Tolerance{Target: data[offTargets+i], Range: data[offRanges+i]} }
	out.Profile.Temperature = tol(int(ChannelTemperature))
	out.Profile.Humidity = tol(int(ChannelHumidity))
	out.Profile.Moisture = tol(int(ChannelMoisture))
	out.Profile.Light = tol(int(ChannelLight))
	out.XP = le.Uint16(data[offCounters:])
	out.Level = le.Uint16(data[offCounters+2:])
	out.UnlockedItems = le.Uint16(data[offCounters+4:])
	out.UnlockedBackgrounds = le.Uint16(data[offCounters+6:])
	out.UnlockedAvatars = le.Uint16(data[offCounters+8:])
	if err := out.Profile.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	*s = out
	return nil
}
