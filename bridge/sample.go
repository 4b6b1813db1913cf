package bridge

import (
	"strings"

	"github.com/jd3nn1s/fognode"
	"github.com/pkg/errors"
)

// sample is a reading as the bridge sends it. Every field is required: a body
// without them is a bridge that has nothing to report, not a zero reading.
type sample struct {
	DeviceID    *string `json:"device_id"`
	VehicleID   *string `json:"vehicle_id"`
	TimestampMs *int64  `json:"timestamp_ms"`

	BrakeTempC     *float64 `json:"brake_temp_c"`
	EngineOilTempC *float64 `json:"engine_oil_temp_c"`

	MotorRPM            *float64 `json:"motor_rpm"`
	VibrationRMS        *float64 `json:"vibration_rms"`
	DominantVibrationHz *float64 `json:"dominant_vibration_hz"`

	BatteryVoltageV  *float64 `json:"battery_voltage_v"`
	OutputVoltageV   *float64 `json:"output_voltage_v"`
	BatteryHealthPct *float64 `json:"battery_health_pct"`

	EngineRULPct  *float64 `json:"engine_rul_pct"`
	BrakeRULPct   *float64 `json:"brake_rul_pct"`
	BatteryRULPct *float64 `json:"battery_rul_pct"`

	BrakePadRemainingPct *float64 `json:"brake_pad_remaining_pct"`
	BrakeDiscScore       *float64 `json:"brake_disc_score"`
}

type fields struct {
	missing []string
}

func required[T any](f *fields, name string, v *T) T {
	if v == nil {
		f.missing = append(f.missing, name)
		var zero T
		return zero
	}
	return *v
}

func (s *sample) rawSample() (*fognode.RawSample, error) {
	f := &fields{}
	raw := &fognode.RawSample{
		DeviceID:    required(f, "device_id", s.DeviceID),
		VehicleID:   required(f, "vehicle_id", s.VehicleID),
		TimestampMs: required(f, "timestamp_ms", s.TimestampMs),

		BrakeTempC:     required(f, "brake_temp_c", s.BrakeTempC),
		EngineOilTempC: required(f, "engine_oil_temp_c", s.EngineOilTempC),

		MotorRPM:            required(f, "motor_rpm", s.MotorRPM),
		VibrationRMS:        required(f, "vibration_rms", s.VibrationRMS),
		DominantVibrationHz: required(f, "dominant_vibration_hz", s.DominantVibrationHz),

		BatteryVoltageV:  required(f, "battery_voltage_v", s.BatteryVoltageV),
		OutputVoltageV:   required(f, "output_voltage_v", s.OutputVoltageV),
		BatteryHealthPct: required(f, "battery_health_pct", s.BatteryHealthPct),

		EngineRULPct:  required(f, "engine_rul_pct", s.EngineRULPct),
		BrakeRULPct:   required(f, "brake_rul_pct", s.BrakeRULPct),
		BatteryRULPct: required(f, "battery_rul_pct", s.BatteryRULPct),

		BrakePadRemainingPct: required(f, "brake_pad_remaining_pct", s.BrakePadRemainingPct),
		BrakeDiscScore:       required(f, "brake_disc_score", s.BrakeDiscScore),
	}
	if len(f.missing) > 0 {
		return nil, errors.Errorf("missing fields: %s", strings.Join(f.missing, ", "))
	}
	return raw, nil
}
