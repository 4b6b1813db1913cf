package fognode

import (
	"math"

	"github.com/pkg/errors"
)

// windows whose samples share a timestamp would otherwise divide by zero
const minRiseInterval = 1.0

// Aggregate reduces a window of samples, ordered oldest to newest, to a Summary.
func Aggregate(samples []RawSample) (Summary, error) {
	if len(samples) == 0 {
		return Summary{}, errors.Wrap(ErrComputation, "cannot aggregate an empty window")
	}
	first := samples[0]
	last := samples[len(samples)-1]

	dt := math.Max(minRiseInterval, float64(last.TimestampMs-first.TimestampMs)/1000.0)

	n := float64(len(samples))
	maxBrakeTemp := first.BrakeTempC
	var oilSum, rpmSum, vibSquares, hzSum, batterySum, outputSum float64
	for _, s := range samples {
		maxBrakeTemp = math.Max(maxBrakeTemp, s.BrakeTempC)
		oilSum += s.EngineOilTempC
		rpmSum += s.MotorRPM
		vibSquares += s.VibrationRMS * s.VibrationRMS
		hzSum += s.DominantVibrationHz
		batterySum += s.BatteryVoltageV
		outputSum += s.OutputVoltageV
	}
	rpmMean := rpmSum / n

	return Summary{
		DeviceID:    last.DeviceID,
		VehicleID:   last.VehicleID,
		TimestampMs: last.TimestampMs,

		BrakeTempC:        maxBrakeTemp,
		BrakeTempRiseRate: (last.BrakeTempC - first.BrakeTempC) / dt,
		EngineOilTempC:    oilSum / n,

		MotorRPM:            rpmMean,
		EngineRPMVariance:   rpmVariance(samples, rpmMean),
		VibrationRMS:        math.Sqrt(vibSquares / n),
		DominantVibrationHz: hzSum / n,

		BatteryVoltageV:  batterySum / n,
		OutputVoltageV:   outputSum / n,
		BatteryHealthPct: last.BatteryHealthPct,

		EngineRULPct:  last.EngineRULPct,
		BrakeRULPct:   last.BrakeRULPct,
		BatteryRULPct: last.BatteryRULPct,

		BrakePadRemainingPct: last.BrakePadRemainingPct,
		BrakeDiscScore:       last.BrakeDiscScore,
	}, nil
}

// sample variance (n-1 divisor), zero for a single sample
func rpmVariance(samples []RawSample, mean float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	var sq float64
	for _, s := range samples {
		d := s.MotorRPM - mean
		sq += d * d
	}
	return sq / float64(len(samples)-1)
}
