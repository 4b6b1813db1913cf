package fognode

import "time"

const engineOilMaxTempC = 140.0

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func BuildActuationPacket(s Summary, h HealthAssessment) ActuationPacket {
	return ActuationPacket{
		TimestampMs:     s.TimestampMs,
		DecisionOrigin:  decisionOrigin,
		CloudDependency: false,

		TriggerMeasuredBrakeTempC: s.BrakeTempC,
		TriggerBrakeTempRiseRate:  s.BrakeTempRiseRate,
		TriggerBrakeHealthIndex:   h.BrakeHealth,

		DecisionCriticalClass:      boolToInt(h.ThermalProtection),
		DecisionActuationTriggered: boolToInt(h.Actuation),
		DecisionConfidence:         h.Confidence,

		ThermalProtectionActive:     h.ThermalProtection,
		BrakeStressMitigationActive: h.ThermalProtection,
		VibrationDampingModeActive:  h.Emergency,
		PredictiveServiceRequired:   h.VehicleHealth < 0.5,
		EmergencySafeguardActive:    h.Emergency,
	}
}

func BuildCloudPacket(s Summary, h HealthAssessment, th Thresholds) CloudPacket {
	var chargingEfficiency float64
	if s.BatteryVoltageV != 0 {
		chargingEfficiency = clamp(s.OutputVoltageV / s.BatteryVoltageV)
	}
	act := BuildActuationPacket(s, h)

	return CloudPacket{
		VehicleID:   s.VehicleID,
		TimestampMs: s.TimestampMs,

		ThermalBrakeMargin:  clamp((th.BrakeMaxTempC - s.BrakeTempC) / th.BrakeMaxTempC),
		ThermalEngineMargin: clamp((engineOilMaxTempC - s.EngineOilTempC) / engineOilMaxTempC),
		ThermalStressIndex:  h.ThermalStress,

		VibrationAnomalyScore: clamp(vibrationRatio(s) / 2.5),
		DominantFaultBandHz:   s.DominantVibrationHz,
		VibrationRMS:          s.VibrationRMS,

		ChargingEfficiencyScore: chargingEfficiency,
		BatteryHealthPct:        s.BatteryHealthPct,

		EngineRULPct:  s.EngineRULPct,
		BrakeRULPct:   s.BrakeRULPct,
		BatteryRULPct: s.BatteryRULPct,

		VehicleHealthScore: h.VehicleHealth,

		DecisionCriticalClass:      act.DecisionCriticalClass,
		DecisionActuationTriggered: act.DecisionActuationTriggered,
		DecisionConfidence:         act.DecisionConfidence,

		TriggerMeasuredBrakeTempC: act.TriggerMeasuredBrakeTempC,
		TriggerBrakeTempRiseRate:  act.TriggerBrakeTempRiseRate,
		TriggerBrakeHealthIndex:   act.TriggerBrakeHealthIndex,

		ThermalProtectionActive:     act.ThermalProtectionActive,
		BrakeStressMitigationActive: act.BrakeStressMitigationActive,
		VibrationDampingModeActive:  act.VibrationDampingModeActive,
		PredictiveServiceRequired:   act.PredictiveServiceRequired,
		EmergencySafeguardActive:    act.EmergencySafeguardActive,
	}
}

// Decision is what the node sends on one tick.
type Decision struct {
	Actuate bool `json:"actuate"`
	Cloud   bool `json:"cloud"`
}

// Heartbeat rate limits informational cloud uploads. Actuation always
// preempts it and restarts the interval.
type Heartbeat struct {
	interval time.Duration
	last     time.Time
}

func NewHeartbeat(interval time.Duration) *Heartbeat {
	return &Heartbeat{interval: interval}
}

func (hb *Heartbeat) Decide(actuation bool, now time.Time) Decision {
	switch {
	case actuation:
		return Decision{Actuate: true, Cloud: true}
	case hb.last.IsZero() || now.Sub(hb.last) >= hb.interval:
		return Decision{Cloud: true}
	}
	return Decision{}
}

// Mark records a cloud upload at t.
func (hb *Heartbeat) Mark(t time.Time) {
	hb.last = t
}

func (hb *Heartbeat) Last() time.Time {
	return hb.last
}
