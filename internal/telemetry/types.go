// Package telemetry contains the wire-level data model for C210 sensor
// readings: the closed sensor set, the reading error taxonomy, and the
// JSON/Base64 message codec. This package has NO external dependencies
// (no GPIO, MQTT, OS, or time.Sleep) so it stays fully testable.
package telemetry

import "errors"

// SensorType identifies one onboard sensor. The string value is the wire
// "ID" field and must remain stable — it is a contract with the dashboard.
type SensorType string

const (
	SensorBME280   SensorType = "BME280"   // environment: Tm, Hm, Pr
	SensorLIS2DH12 SensorType = "LIS2DH12" // acceleration: Ax, Ay, Az
	SensorADXL345  SensorType = "ADXL345"  // motion/tap: Ax, Ay, Az
	SensorLIS3MDL  SensorType = "LIS3MDL"  // magnetometer: Mx, My, Mz
	SensorLTR303   SensorType = "LTR303"   // ambient light: Lx
	SensorMAX17048 SensorType = "MAX17048" // battery gauge: Vb, Ch
	SensorMAXM10   SensorType = "MAXM10"   // GNSS: Lt, Ln, Al
)

// allSensors lists the full C210 sensor set in publish order.
var allSensors = []SensorType{
	SensorBME280,
	SensorLIS2DH12,
	SensorADXL345,
	SensorLIS3MDL,
	SensorLTR303,
	SensorMAX17048,
	SensorMAXM10,
}

// AllSensors returns the full C210 sensor set in stable order.
func AllSensors() []SensorType {
	out := make([]SensorType, len(allSensors))
	copy(out, allSensors)
	return out
}

// KnownSensor reports whether t belongs to the C210 sensor set.
func KnownSensor(t SensorType) bool {
	for _, s := range allSensors {
		if s == t {
			return true
		}
	}
	return false
}

// ReadStatus classifies the outcome of one sensor fetch. The string value
// is the wire "err" code and must remain stable.
type ReadStatus string

const (
	ReadOK             ReadStatus = "ok"
	ReadNotInitialized ReadStatus = "init"
	ReadFetchFailed    ReadStatus = "fetch"
	ReadFetchTimeout   ReadStatus = "timeout"
)

// knownStatus reports whether s belongs to the closed error taxonomy.
func knownStatus(s ReadStatus) bool {
	switch s {
	case ReadOK, ReadNotInitialized, ReadFetchFailed, ReadFetchTimeout:
		return true
	}
	return false
}

// Kind selects the wire formatting of a measurement value.
type Kind string

const (
	KindDouble   Kind = "double"   // 3 decimal places
	KindPosition Kind = "position" // 6 decimal places (GNSS resolution)
	KindInt      Kind = "int"      // no decimal places
)

// MaxMeasurements is the per-reading channel limit inherited from the
// firmware's fixed measurement slots.
const MaxMeasurements = 3

// Measurement is one named channel value within a reading.
type Measurement struct {
	Name  string
	Kind  Kind
	Value float64
}

// Reading is one sensor sample. A Status other than ReadOK makes the
// measurements irrelevant; the status code itself travels on the wire.
type Reading struct {
	Type         SensorType
	Status       ReadStatus
	Measurements []Measurement
}

// Errors returned by the codec and assembler. Configuration-level errors
// (unknown sensor, malformed reading, duplicate) leave the accumulator
// intact; resource-level errors (overflow) discard the whole cycle.
var (
	ErrUnknownSensor    = errors.New("sensor type not in expected set")
	ErrDuplicateReading = errors.New("sensor already reported this cycle")
	ErrInvalidReading   = errors.New("invalid reading")
	ErrBufferOverflow   = errors.New("message buffer overflow")
)
