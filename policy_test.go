package fognode

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wornBrakeSummary() Summary {
	s := nominalSummary()
	s.BrakeTempC = 190
	s.BrakeTempRiseRate = 4
	s.BrakePadRemainingPct = 20
	s.BrakeDiscScore = 0.1
	s.TimestampMs = 1234
	return s
}

func TestBuildActuationPacket(t *testing.T) {
	s := wornBrakeSummary()
	h := ComputeHealth(s, DefaultThresholds())
	pkt := BuildActuationPacket(s, h)

	assert.Equal(t, int64(1234), pkt.TimestampMs)
	assert.Equal(t, "fog_node", pkt.DecisionOrigin)
	assert.False(t, pkt.CloudDependency)
	assert.Equal(t, 190.0, pkt.TriggerMeasuredBrakeTempC)
	assert.Equal(t, 4.0, pkt.TriggerBrakeTempRiseRate)
	assert.Equal(t, h.BrakeHealth, pkt.TriggerBrakeHealthIndex)
	assert.Equal(t, 1, pkt.DecisionCriticalClass)
	assert.Equal(t, 1, pkt.DecisionActuationTriggered)
	assert.Equal(t, h.Confidence, pkt.DecisionConfidence)
	assert.True(t, pkt.ThermalProtectionActive)
	assert.True(t, pkt.BrakeStressMitigationActive)
	assert.False(t, pkt.VibrationDampingModeActive)
	assert.False(t, pkt.EmergencySafeguardActive)
	assert.Equal(t, h.VehicleHealth < 0.5, pkt.PredictiveServiceRequired)
}

func TestActuationPacketWireNames(t *testing.T) {
	s := wornBrakeSummary()
	data, err := json.Marshal(BuildActuationPacket(s, ComputeHealth(s, DefaultThresholds())))
	require.NoError(t, err)

	fields := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "fog_node", fields["decision_origin"])
	assert.Equal(t, 1.0, fields["fog_decision_critical_class"])
	assert.Equal(t, true, fields["fog_thermal_protection_active"])
	assert.Len(t, fields, 14)
}

func TestBuildCloudPacket(t *testing.T) {
	s := nominalSummary()
	s.BrakeTempC = 110
	s.EngineOilTempC = 70
	s.BatteryVoltageV = 12
	s.OutputVoltageV = 13.8
	s.MotorRPM = 1500
	s.DominantVibrationHz = 50
	h := ComputeHealth(s, DefaultThresholds())

	pkt := BuildCloudPacket(s, h, DefaultThresholds())
	assert.Equal(t, "vehicle-01", pkt.VehicleID)
	assert.Equal(t, 0.5, pkt.ThermalBrakeMargin)
	assert.Equal(t, 0.5, pkt.ThermalEngineMargin)
	assert.Equal(t, h.ThermalStress, pkt.ThermalStressIndex)
	// 50Hz against a 25Hz shaft
	assert.InDelta(t, 0.8, pkt.VibrationAnomalyScore, 1e-12)
	assert.Equal(t, 1.0, pkt.ChargingEfficiencyScore, "efficiency is clamped")
	assert.Equal(t, s.BatteryHealthPct, pkt.BatteryHealthPct)
	assert.Equal(t, s.EngineRULPct, pkt.EngineRULPct)
	assert.Equal(t, h.VehicleHealth, pkt.VehicleHealthScore)
	assert.Equal(t, 0, pkt.DecisionActuationTriggered)
}

func TestCloudPacketMarginsClamped(t *testing.T) {
	s := nominalSummary()
	s.BrakeTempC = 300
	s.EngineOilTempC = -20
	s.BatteryVoltageV = 0
	h := ComputeHealth(s, DefaultThresholds())

	pkt := BuildCloudPacket(s, h, DefaultThresholds())
	assert.Equal(t, 0.0, pkt.ThermalBrakeMargin)
	assert.Equal(t, 1.0, pkt.ThermalEngineMargin)
	assert.Equal(t, 0.0, pkt.ChargingEfficiencyScore)
}

func TestHeartbeatSpacing(t *testing.T) {
	hb := NewHeartbeat(time.Second)
	start := time.Unix(1700000000, 0)

	var sent []time.Duration
	for tick := 0; tick < 120; tick++ {
		at := start.Add(time.Duration(tick) * 25 * time.Millisecond)
		d := hb.Decide(false, at)
		assert.False(t, d.Actuate)
		if d.Cloud {
			hb.Mark(at)
			sent = append(sent, at.Sub(start))
		}
	}
	assert.Equal(t, []time.Duration{0, time.Second, 2 * time.Second}, sent)
}

func TestHeartbeatPreemptedByActuation(t *testing.T) {
	hb := NewHeartbeat(time.Second)
	start := time.Unix(1700000000, 0)
	at := func(ms int) time.Time {
		return start.Add(time.Duration(ms) * time.Millisecond)
	}

	d := hb.Decide(false, at(0))
	assert.Equal(t, Decision{Cloud: true}, d)
	hb.Mark(at(0))

	assert.Equal(t, Decision{}, hb.Decide(false, at(250)))

	d = hb.Decide(true, at(300))
	assert.Equal(t, Decision{Actuate: true, Cloud: true}, d)
	hb.Mark(at(300))

	assert.Equal(t, Decision{}, hb.Decide(false, at(1000)))
	assert.Equal(t, Decision{}, hb.Decide(false, at(1299)))
	assert.Equal(t, Decision{Cloud: true}, hb.Decide(false, at(1300)))
}

func TestHeartbeatActuationIgnoresInterval(t *testing.T) {
	hb := NewHeartbeat(time.Second)
	start := time.Unix(1700000000, 0)
	for ms := 0; ms < 100; ms += 25 {
		at := start.Add(time.Duration(ms) * time.Millisecond)
		assert.Equal(t, Decision{Actuate: true, Cloud: true}, hb.Decide(true, at))
		hb.Mark(at)
	}
}
