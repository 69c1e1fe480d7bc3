// Package record defines the fixed-size binary frames exchanged over pipes
// between producers, aggregators and the consumer.
//
// Every real field is a little-endian IEEE-754 float64; the core count is a
// little-endian int32. Field order is fixed and frames carry no header: the
// reader knows the frame size from the stream it is reading.
package record

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/Dicklesworthstone/pipemon/internal/model"
)

// Frame sizes in bytes.
const (
	MemorySize      = 16 // total, used
	CPUSize         = 8  // percent
	FrequencySize   = 8  // GHz
	CoreCountSize   = 4  // cores
	UtilizationSize = 24 // cpu percent, total, used
	TopologySize    = 12 // cores, GHz
)

var le = binary.LittleEndian

func putFloat(b []byte, v float64) { le.PutUint64(b, math.Float64bits(v)) }
func getFloat(b []byte) float64    { return math.Float64frombits(le.Uint64(b)) }

func checkSize(b []byte, want int, kind string) error {
	if len(b) != want {
		return fmt.Errorf("%s frame: want %d bytes, got %d", kind, want, len(b))
	}
	return nil
}

// EncodeMemory encodes a memory sample.
func EncodeMemory(m model.MemorySample) []byte {
	b := make([]byte, MemorySize)
	putFloat(b[0:8], m.TotalGB)
	putFloat(b[8:16], m.UsedGB)
	return b
}

// DecodeMemory decodes a memory frame.
func DecodeMemory(b []byte) (model.MemorySample, error) {
	if err := checkSize(b, MemorySize, "memory"); err != nil {
		return model.MemorySample{}, err
	}
	return model.MemorySample{TotalGB: getFloat(b[0:8]), UsedGB: getFloat(b[8:16])}, nil
}

// EncodeFloat encodes a single float frame (CPU percent or max frequency).
func EncodeFloat(v float64) []byte {
	b := make([]byte, CPUSize)
	putFloat(b, v)
	return b
}

// DecodeFloat decodes a single float frame.
func DecodeFloat(b []byte) (float64, error) {
	if err := checkSize(b, CPUSize, "float"); err != nil {
		return 0, err
	}
	return getFloat(b), nil
}

// EncodeCoreCount encodes a core count frame.
func EncodeCoreCount(n int) []byte {
	b := make([]byte, CoreCountSize)
	le.PutUint32(b, uint32(int32(n)))
	return b
}

// DecodeCoreCount decodes a core count frame.
func DecodeCoreCount(b []byte) (int, error) {
	if err := checkSize(b, CoreCountSize, "core count"); err != nil {
		return 0, err
	}
	return int(int32(le.Uint32(b))), nil
}

// EncodeUtilization encodes a combined utilization record.
func EncodeUtilization(r model.UtilizationRecord) []byte {
	b := make([]byte, UtilizationSize)
	putFloat(b[0:8], r.CPUPercent)
	putFloat(b[8:16], r.Memory.TotalGB)
	putFloat(b[16:24], r.Memory.UsedGB)
	return b
}

// DecodeUtilization decodes a combined utilization frame.
func DecodeUtilization(b []byte) (model.UtilizationRecord, error) {
	if err := checkSize(b, UtilizationSize, "utilization"); err != nil {
		return model.UtilizationRecord{}, err
	}
	return model.UtilizationRecord{
		CPUPercent: getFloat(b[0:8]),
		Memory: model.MemorySample{
			TotalGB: getFloat(b[8:16]),
			UsedGB:  getFloat(b[16:24]),
		},
	}, nil
}

// EncodeTopology encodes a core topology record.
func EncodeTopology(t model.CoreTopology) []byte {
	b := make([]byte, TopologySize)
	le.PutUint32(b[0:4], uint32(int32(t.Cores)))
	putFloat(b[4:12], t.MaxFreqGHz)
	return b
}

// DecodeTopology decodes a core topology frame.
func DecodeTopology(b []byte) (model.CoreTopology, error) {
	if err := checkSize(b, TopologySize, "topology"); err != nil {
		return model.CoreTopology{}, err
	}
	return model.CoreTopology{
		Cores:      int(int32(le.Uint32(b[0:4]))),
		MaxFreqGHz: getFloat(b[4:12]),
	}, nil
}

// Write writes one whole frame. A frame is never split by a short write
// without an error being returned.
func Write(w io.Writer, frame []byte) error {
	n, err := w.Write(frame)
	if err == nil && n != len(frame) {
		err = io.ErrShortWrite
	}
	return err
}
