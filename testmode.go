package fognode

import (
	"context"
	"math"
)

const (
	testModeMinBrakeTemp = 80.0
	testModeMaxBrakeTemp = 210.0
)

// TestSource generates a brake heating and cooling cycle on a vehicle with
// worn brakes, so the thermal protection path fires on every hot lap.
type TestSource struct {
	deviceID  string
	vehicleID string

	brakeTemp float64
	down      bool
	step      int
}

func NewTestSource(deviceID, vehicleID string) *TestSource {
	return &TestSource{
		deviceID:  deviceID,
		vehicleID: vehicleID,
		brakeTemp: testModeMinBrakeTemp,
	}
}

func (ts *TestSource) Fetch(ctx context.Context) (*RawSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ts.step++

	if ts.down {
		ts.brakeTemp -= 0.25
	} else {
		ts.brakeTemp += 0.5
	}
	if ts.brakeTemp >= testModeMaxBrakeTemp {
		ts.down = true
	} else if ts.brakeTemp <= testModeMinBrakeTemp {
		ts.down = false
	}

	rpm := 2400 + 600*math.Sin(float64(ts.step)/40)
	return &RawSample{
		DeviceID:    ts.deviceID,
		VehicleID:   ts.vehicleID,
		TimestampMs: now().UnixMilli(),

		BrakeTempC:     ts.brakeTemp,
		EngineOilTempC: 95 + 10*math.Sin(float64(ts.step)/400),

		MotorRPM:            rpm,
		VibrationRMS:        0.3,
		DominantVibrationHz: rpm / 60,

		BatteryVoltageV:  12.6,
		OutputVoltageV:   13.8,
		BatteryHealthPct: 92,

		EngineRULPct:  85,
		BrakeRULPct:   30,
		BatteryRULPct: 90,

		BrakePadRemainingPct: 30,
		BrakeDiscScore:       0.3,
	}, nil
}
