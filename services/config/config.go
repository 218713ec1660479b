package config

import (
	"fmt"
	"os"
	"time"

	"farmnode-go/drivers/adc"
	"farmnode-go/drivers/charlcd"
	"farmnode-go/drivers/dht"
	"farmnode-go/errcode"
	"farmnode-go/services/actuator"
	"farmnode-go/x/mathx"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the node configuration. Durations are Go duration strings in
// YAML ("18ms", "30us").
type Config struct {
	Timing     TimingConfig    `yaml:"timing"`
	Thresholds actuator.Policy `yaml:"thresholds"`
	Sensor     SensorConfig    `yaml:"sensor"`
	Soil       SoilConfig      `yaml:"soil"`
	Pins       PinsConfig      `yaml:"pins"`
	Log        LogConfig       `yaml:"log"`
	Sim        SimConfig       `yaml:"sim"`
	Serial     SerialConfig    `yaml:"serial"`
}

// TimingConfig holds every protocol and loop delay.
type TimingConfig struct {
	StartLow      time.Duration `yaml:"start_low"`
	StartHigh     time.Duration `yaml:"start_high"`
	ResponseGuard time.Duration `yaml:"response_guard"`
	ResponseWait  time.Duration `yaml:"response_wait"`
	BitSample     time.Duration `yaml:"bit_sample"`
	EdgeTimeout   time.Duration `yaml:"edge_timeout"`

	Strobe time.Duration `yaml:"strobe"`

	Acquisition       time.Duration `yaml:"acquisition"`
	ConversionTimeout time.Duration `yaml:"conversion_timeout"`

	CyclePeriod time.Duration `yaml:"cycle_period"`
	BeepPulse   time.Duration `yaml:"beep_pulse"`
	BeepCount   int           `yaml:"beep_count"`
}

type SensorConfig struct {
	VerifyChecksum bool `yaml:"verify_checksum"`
}

type SoilConfig struct {
	Channel uint8 `yaml:"channel"`
}

// PinsConfig maps logical roles to GPIO numbers. -1 leaves a line unwired.
type PinsConfig struct {
	Sensor        int        `yaml:"sensor"`
	Safe          int        `yaml:"safe"`
	Warning       int        `yaml:"warning"`
	Danger        int        `yaml:"danger"`
	Buzzer        int        `yaml:"buzzer"`
	Pump          int        `yaml:"pump"`
	PumpActiveLow bool       `yaml:"pump_active_low"`
	LCD           LCDPinsCfg `yaml:"lcd"`
}

type LCDPinsCfg struct {
	RS int    `yaml:"rs"`
	EN int    `yaml:"en"`
	RW int    `yaml:"rw"`
	D  [4]int `yaml:"d"` // D4..D7
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

// SimConfig drives the host simulator.
type SimConfig struct {
	// Virtual runs on a simulated clock; cycles complete instantly.
	Virtual bool      `yaml:"virtual"`
	Cycles  int       `yaml:"cycles"` // 0 runs until interrupted
	Profile []SimStep `yaml:"profile"`
}

// SimStep is what the simulated sensors report for one cycle. The profile
// repeats when it runs out.
type SimStep struct {
	TemperatureC uint8  `yaml:"temperature_c"`
	HumidityPct  uint8  `yaml:"humidity_pct"`
	Soil         uint16 `yaml:"soil"`
	// Fail makes the climate sensor ignore the start signal.
	Fail bool `yaml:"fail"`
	// Stall freezes the sensor line after this many bits; 0 disables.
	Stall int `yaml:"stall"`
}

type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// Default returns the configuration for the reference board.
func Default() *Config {
	return &Config{
		Timing: TimingConfig{
			StartLow:          dht.DefaultStartLow,
			StartHigh:         dht.DefaultStartHigh,
			ResponseGuard:     dht.DefaultResponseGuard,
			ResponseWait:      dht.DefaultResponseWait,
			BitSample:         dht.DefaultBitSample,
			EdgeTimeout:       dht.DefaultEdgeTimeout,
			Strobe:            charlcd.DefaultStrobe,
			Acquisition:       adc.DefaultAcquisition,
			ConversionTimeout: adc.DefaultConversionTimeout,
			CyclePeriod:       1000 * time.Millisecond,
			BeepPulse:         200 * time.Millisecond,
			BeepCount:         3,
		},
		Thresholds: actuator.DefaultPolicy(),
		Soil:       SoilConfig{Channel: 0},
		Pins: PinsConfig{
			Sensor:        15,
			Safe:          16,
			Warning:       17,
			Danger:        18,
			Buzzer:        19,
			Pump:          20,
			PumpActiveLow: false,
			LCD: LCDPinsCfg{
				RS: 6,
				EN: 7,
				RW: 8,
				D:  [4]int{2, 3, 4, 5},
			},
		},
		Log: LogConfig{Level: "info", Format: "console"},
		Sim: SimConfig{
			Virtual: true,
			Cycles:  10,
			Profile: []SimStep{
				{TemperatureC: 22, HumidityPct: 60, Soil: 450},
				{TemperatureC: 25, HumidityPct: 58, Soil: 690},
				{TemperatureC: 30, HumidityPct: 55, Soil: 800},
				{Fail: true, Soil: 810},
				{TemperatureC: 24, HumidityPct: 62, Soil: 300},
			},
		},
		Serial: SerialConfig{Port: "/dev/ttyACM0", Baud: 115200},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ensureDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ensureDefaults restores defaults for fields explicitly zeroed.
func (c *Config) ensureDefaults() {
	def := Default()
	t, d := &c.Timing, def.Timing
	for _, p := range []struct{ v, def *time.Duration }{
		{&t.StartLow, &d.StartLow},
		{&t.StartHigh, &d.StartHigh},
		{&t.ResponseGuard, &d.ResponseGuard},
		{&t.ResponseWait, &d.ResponseWait},
		{&t.BitSample, &d.BitSample},
		{&t.EdgeTimeout, &d.EdgeTimeout},
		{&t.Strobe, &d.Strobe},
		{&t.Acquisition, &d.Acquisition},
		{&t.ConversionTimeout, &d.ConversionTimeout},
		{&t.CyclePeriod, &d.CyclePeriod},
		{&t.BeepPulse, &d.BeepPulse},
	} {
		if *p.v == 0 {
			*p.v = *p.def
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if len(c.Sim.Profile) == 0 {
		c.Sim.Profile = def.Sim.Profile
	}
	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errcode.InvalidConfig}, args...)...)
}

// Validate rejects configurations the hardware cannot honour.
func (c *Config) Validate() error {
	t := c.Timing
	if t.StartLow < dht.DefaultStartLow {
		return invalid("timing.start_low %v below %v", t.StartLow, dht.DefaultStartLow)
	}
	if !mathx.InRange(t.StartHigh, 20*time.Microsecond, 40*time.Microsecond) {
		return invalid("timing.start_high %v outside 20us..40us", t.StartHigh)
	}
	if t.EdgeTimeout <= t.BitSample {
		return invalid("timing.edge_timeout %v must exceed bit_sample %v", t.EdgeTimeout, t.BitSample)
	}
	if t.Acquisition < adc.DefaultAcquisition {
		return invalid("timing.acquisition %v below %v", t.Acquisition, adc.DefaultAcquisition)
	}
	if t.CyclePeriod < 0 || t.BeepPulse < 0 || t.BeepCount < 0 {
		return invalid("timing: negative cycle_period, beep_pulse or beep_count")
	}
	if c.Thresholds.SoilDryAbove > 1023 {
		return invalid("thresholds.soil_dry_above %d exceeds 1023", c.Thresholds.SoilDryAbove)
	}
	if c.Soil.Channel > 7 {
		return invalid("soil.channel %d out of range", c.Soil.Channel)
	}
	if err := c.Pins.validate(); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level %q", c.Log.Level)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return invalid("log.format %q, want console or json", c.Log.Format)
	}
	if c.Serial.Baud < 0 {
		return invalid("serial.baud %d", c.Serial.Baud)
	}
	return nil
}

func (p PinsConfig) validate() error {
	if p.Sensor < 0 {
		return invalid("pins.sensor must be wired")
	}
	if p.LCD.RS < 0 || p.LCD.EN < 0 {
		return invalid("pins.lcd rs and en must be wired")
	}
	named := []struct {
		name string
		n    int
	}{
		{"sensor", p.Sensor}, {"safe", p.Safe}, {"warning", p.Warning},
		{"danger", p.Danger}, {"buzzer", p.Buzzer}, {"pump", p.Pump},
		{"lcd.rs", p.LCD.RS}, {"lcd.en", p.LCD.EN}, {"lcd.rw", p.LCD.RW},
		{"lcd.d4", p.LCD.D[0]}, {"lcd.d5", p.LCD.D[1]}, {"lcd.d6", p.LCD.D[2]}, {"lcd.d7", p.LCD.D[3]},
	}
	seen := map[int]string{}
	for _, e := range named {
		if e.n < 0 {
			continue
		}
		if prev, dup := seen[e.n]; dup {
			return invalid("pins.%s and pins.%s share GPIO %d", prev, e.name, e.n)
		}
		seen[e.n] = e.name
	}
	for i, d := range p.LCD.D {
		if d < 0 {
			return invalid("pins.lcd.d%d must be wired", 4+i)
		}
	}
	return nil
}

// DHT returns the sensor driver configuration.
func (c *Config) DHT() dht.Config {
	t := c.Timing
	return dht.Config{
		StartLow:       t.StartLow,
		StartHigh:      t.StartHigh,
		ResponseGuard:  t.ResponseGuard,
		ResponseWait:   t.ResponseWait,
		BitSample:      t.BitSample,
		EdgeTimeout:    t.EdgeTimeout,
		VerifyChecksum: c.Sensor.VerifyChecksum,
	}
}

// ADC returns the converter configuration.
func (c *Config) ADC() adc.Config {
	return adc.Config{Acquisition: c.Timing.Acquisition, ConversionTimeout: c.Timing.ConversionTimeout}
}

// LCD returns the display bus configuration.
func (c *Config) LCD() charlcd.Config {
	return charlcd.Config{Strobe: c.Timing.Strobe}
}
