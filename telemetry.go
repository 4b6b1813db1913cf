package fognode

// RawSample is one reading from the sensor bridge.
type RawSample struct {
	DeviceID    string `json:"device_id"`
	VehicleID   string `json:"vehicle_id"`
	TimestampMs int64  `json:"timestamp_ms"`

	BrakeTempC     float64 `json:"brake_temp_c"`
	EngineOilTempC float64 `json:"engine_oil_temp_c"`

	MotorRPM            float64 `json:"motor_rpm"`
	VibrationRMS        float64 `json:"vibration_rms"`
	DominantVibrationHz float64 `json:"dominant_vibration_hz"`

	BatteryVoltageV  float64 `json:"battery_voltage_v"`
	OutputVoltageV   float64 `json:"output_voltage_v"`
	BatteryHealthPct float64 `json:"battery_health_pct"`

	EngineRULPct  float64 `json:"engine_rul_pct"`
	BrakeRULPct   float64 `json:"brake_rul_pct"`
	BatteryRULPct float64 `json:"battery_rul_pct"`

	BrakePadRemainingPct float64 `json:"brake_pad_remaining_pct"`
	// 0 (destroyed) to 1 (new)
	BrakeDiscScore float64 `json:"brake_disc_score"`
}

// Summary is the reduction of one full window. Condition fields (health and RUL
// percentages, pad and disc state) are taken from the newest sample.
type Summary struct {
	DeviceID    string `json:"device_id"`
	VehicleID   string `json:"vehicle_id"`
	TimestampMs int64  `json:"timestamp_ms"`

	BrakeTempC        float64 `json:"brake_temp_c"`
	BrakeTempRiseRate float64 `json:"brake_temp_rise_rate"` // °C/s
	EngineOilTempC    float64 `json:"engine_oil_temp_c"`

	MotorRPM            float64 `json:"motor_rpm"`
	EngineRPMVariance   float64 `json:"engine_rpm_variance"`
	VibrationRMS        float64 `json:"vibration_rms"`
	DominantVibrationHz float64 `json:"dominant_vibration_hz"`

	BatteryVoltageV  float64 `json:"battery_voltage_v"`
	OutputVoltageV   float64 `json:"output_voltage_v"`
	BatteryHealthPct float64 `json:"battery_health_pct"`

	EngineRULPct  float64 `json:"engine_rul_pct"`
	BrakeRULPct   float64 `json:"brake_rul_pct"`
	BatteryRULPct float64 `json:"battery_rul_pct"`

	BrakePadRemainingPct float64 `json:"brake_pad_remaining_pct"`
	BrakeDiscScore       float64 `json:"brake_disc_score"`
}

type HealthAssessment struct {
	ThermalStress float64 `json:"thermal_stress"`
	BrakeHealth   float64 `json:"brake_health"`
	VehicleHealth float64 `json:"vehicle_health"`
	VibrationRisk float64 `json:"vibration_risk"`
	// dominant vibration frequency over the shaft frequency
	VibrationRatio float64 `json:"vibration_ratio"`

	ThermalProtection bool `json:"thermal_protection"`
	Emergency         bool `json:"emergency"`
	Actuation         bool `json:"actuation"`

	Confidence float64 `json:"confidence"`
}

const decisionOrigin = "fog_node"

type ActuationPacket struct {
	TimestampMs     int64  `json:"timestamp_ms"`
	DecisionOrigin  string `json:"decision_origin"`
	CloudDependency bool   `json:"cloud_dependency"`

	TriggerMeasuredBrakeTempC float64 `json:"trigger_measured_brake_temp_c"`
	TriggerBrakeTempRiseRate  float64 `json:"trigger_brake_temp_rise_rate"`
	TriggerBrakeHealthIndex   float64 `json:"trigger_brake_health_index"`

	DecisionCriticalClass      int     `json:"fog_decision_critical_class"`
	DecisionActuationTriggered int     `json:"fog_decision_actuation_triggered"`
	DecisionConfidence         float64 `json:"fog_decision_confidence"`

	ThermalProtectionActive     bool `json:"fog_thermal_protection_active"`
	BrakeStressMitigationActive bool `json:"fog_brake_stress_mitigation_active"`
	VibrationDampingModeActive  bool `json:"fog_vibration_damping_mode_active"`
	PredictiveServiceRequired   bool `json:"fog_predictive_service_required"`
	EmergencySafeguardActive    bool `json:"fog_emergency_safeguard_active"`
}

type CloudPacket struct {
	VehicleID   string `json:"vehicle_id"`
	TimestampMs int64  `json:"timestamp_ms"`

	ThermalBrakeMargin  float64 `json:"thermal_brake_margin"`
	ThermalEngineMargin float64 `json:"thermal_engine_margin"`
	ThermalStressIndex  float64 `json:"thermal_stress_index"`

	VibrationAnomalyScore float64 `json:"mechanical_vibration_anomaly_score"`
	DominantFaultBandHz   float64 `json:"mechanical_dominant_fault_band_hz"`
	VibrationRMS          float64 `json:"mechanical_vibration_rms"`

	ChargingEfficiencyScore float64 `json:"electrical_charging_efficiency_score"`
	BatteryHealthPct        float64 `json:"electrical_battery_health_pct"`

	EngineRULPct  float64 `json:"engine_rul_pct"`
	BrakeRULPct   float64 `json:"brake_rul_pct"`
	BatteryRULPct float64 `json:"battery_rul_pct"`

	VehicleHealthScore float64 `json:"vehicle_health_score"`

	// the ingestion endpoint stores the decision alongside the metrics
	DecisionCriticalClass      int     `json:"fog_decision_critical_class"`
	DecisionActuationTriggered int     `json:"fog_decision_actuation_triggered"`
	DecisionConfidence         float64 `json:"fog_decision_confidence"`

	TriggerMeasuredBrakeTempC float64 `json:"trigger_measured_brake_temp_c"`
	TriggerBrakeTempRiseRate  float64 `json:"trigger_brake_temp_rise_rate"`
	TriggerBrakeHealthIndex   float64 `json:"trigger_brake_health_index"`

	ThermalProtectionActive     bool `json:"fog_thermal_protection_active"`
	BrakeStressMitigationActive bool `json:"fog_brake_stress_mitigation_active"`
	VibrationDampingModeActive  bool `json:"fog_vibration_damping_mode_active"`
	PredictiveServiceRequired   bool `json:"fog_predictive_service_required"`
	EmergencySafeguardActive    bool `json:"fog_emergency_safeguard_active"`
}
