package forwarder

import (
	"encoding/binary"

	"github.com/jd3nn1s/fognode"
)

type Header struct {
	Type uint8
}

const (
	TypeStatus    = 1
	TypeActuation = 2
)

const (
	FlagThermalProtection uint8 = 1 << iota
	FlagEmergency
	FlagActuation
	FlagCloudSent
)

// StatusFrame is the fixed-size record sent to the dashboard after the header.
type StatusFrame struct {
	TimestampMs int64

	BrakeTempC        float32
	BrakeTempRiseRate float32

	ThermalStress float32
	BrakeHealth   float32
	VehicleHealth float32
	VibrationRisk float32
	Confidence    float32

	Flags uint8
}

var maxFrameSize = binary.Size(Header{}) + binary.Size(StatusFrame{})

func frameType(status *fognode.Status) uint8 {
	if status.Decision.Actuate {
		return TypeActuation
	}
	return TypeStatus
}

func NewStatusFrame(status *fognode.Status) StatusFrame {
	frame := StatusFrame{}
	if s := status.Summary; s != nil {
		frame.TimestampMs = s.TimestampMs
		frame.BrakeTempC = float32(s.BrakeTempC)
		frame.BrakeTempRiseRate = float32(s.BrakeTempRiseRate)
	}
	if h := status.Assessment; h != nil {
		frame.ThermalStress = float32(h.ThermalStress)
		frame.BrakeHealth = float32(h.BrakeHealth)
		frame.VehicleHealth = float32(h.VehicleHealth)
		frame.VibrationRisk = float32(h.VibrationRisk)
		frame.Confidence = float32(h.Confidence)
		if h.ThermalProtection {
			frame.Flags |= FlagThermalProtection
		}
		if h.Emergency {
			frame.Flags |= FlagEmergency
		}
	}
	if status.Decision.Actuate {
		frame.Flags |= FlagActuation
	}
	if status.Decision.Cloud {
		frame.Flags |= FlagCloudSent
	}
	return frame
}
