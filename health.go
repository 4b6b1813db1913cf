package fognode

import (
	"math"
	"strconv"
)

// round2 rounds the decimal value of x to two places, halves to even
func round2(x float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	return v
}

func clamp(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

// shaft rotation frequency in Hz; a stopped motor is treated as 1 Hz
func expectedBand(rpm float64) float64 {
	if rpm == 0 {
		return 1
	}
	return rpm / 60
}

func vibrationRatio(s Summary) float64 {
	return s.DominantVibrationHz / expectedBand(s.MotorRPM)
}

// ComputeHealth derives risk scores and safety flags from a Summary. Every score
// except VehicleHealth is clamped to [0,1]; VehicleHealth can exceed 1 when all
// RULs are near 100% and the brakes are cold.
func ComputeHealth(s Summary, th Thresholds) HealthAssessment {
	thermalStress := clamp(
		0.7*(s.BrakeTempC/th.BrakeMaxTempC) +
			0.3*(s.BrakeTempRiseRate/th.MaxSafeRise))

	brakeHealth := clamp(
		0.6*(s.BrakePadRemainingPct/100) +
			0.4*s.BrakeDiscScore)

	vehicleHealth := 0.35*(s.EngineRULPct/100) +
		0.45*(s.BrakeRULPct/100) +
		0.20*(s.BatteryRULPct/100)
	vehicleHealth *= 1 - 0.4*thermalStress

	ratio := vibrationRatio(s)
	vibrationRisk := clamp(0.7*(ratio/2.5) + 0.3*(s.VibrationRMS/1.2))

	thermalProtection := s.BrakeTempC > th.ProtectionTempC &&
		s.BrakeTempRiseRate > th.ProtectionRiseRate &&
		brakeHealth < th.ProtectionBrakeHealth

	emergency := clamp(
		0.4*thermalStress+
			0.3*vibrationRisk+
			0.3*(1-vehicleHealth)) > th.EmergencyScore

	return HealthAssessment{
		ThermalStress:     thermalStress,
		BrakeHealth:       brakeHealth,
		VehicleHealth:     vehicleHealth,
		VibrationRisk:     vibrationRisk,
		VibrationRatio:    ratio,
		ThermalProtection: thermalProtection,
		Emergency:         emergency,
		Actuation:         thermalProtection || emergency,
		Confidence:        round2(0.6 + 0.4*thermalStress),
	}
}
