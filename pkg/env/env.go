// Package env provides the common configuration of DAP tools: flags and
// environment variables, and opening a session from them.
package env

import (
	"flag"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/dap.go/pkg/dap/comm"
	"github.com/robotalks/dap.go/pkg/dap/comm/serial"
	"github.com/robotalks/dap.go/pkg/dap/sim"
)

// SimPort is the port name selecting the in-process simulator.
const SimPort = "sim"

// Config provides common options to open DAP sessions.
type Config struct {
	// Port is a serial device, e.g. /dev/ttyUSB0 or COM7, or SimPort.
	Port     string
	BaudRate int
	// Timeout bounds every reply and dump read.
	Timeout      time.Duration
	MaxDumpWords int

	// BrokerURL specifies the MQTT broker for publishing telemetry.
	// e.g. mqtt://host:port/topic-prefix
	BrokerURL string
}

var defaultConfig = Config{
	Port:         "/dev/ttyUSB0",
	BaudRate:     serial.DefaultBaudRate,
	Timeout:      comm.DefaultTimeout,
	MaxDumpWords: comm.DefaultMaxDumpWords,
	BrokerURL:    "mqtt://localhost:1883/dap/",
}

var (
	envWarnings    []string
	envWarningOnce sync.Once
)

func init() {
	envWarnings = defaultConfig.loadEnv(os.Getenv)
}

// loadEnv applies DAP_* variables and returns warnings about ignored
// values. glog is not usable before flag.Parse, so they are logged by
// Default.
func (c *Config) loadEnv(getenv func(string) string) (warnings []string) {
	if val := getenv("DAP_PORT"); val != "" {
		c.Port = val
	}
	if val := getenv("DAP_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil {
			c.BaudRate = baud
		} else {
			glog.Warningf("ignore DAP_BAUD=%q: %v", val, err)
		}
	}
	if val := getenv("DAP_TIMEOUT"); val != "" {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Timeout = dur
		} else {
			glog.Warningf("ignore DAP_TIMEOUT=%q: %v", val, err)
		}
	}
	if val := getenv("DAP_MQTT_URL"); val != "" {
		c.BrokerURL = val
	}
	return
}

// SetupFlags sets up command line flags for the serial link.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "p", defaultConfig.Port, "Serial port (e.g. /dev/ttyUSB0, COM7), or sim.")
	flag.IntVar(&defaultConfig.BaudRate, "b", defaultConfig.BaudRate, "Baud rate.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Reply and dump read timeout.")
	flag.IntVar(&defaultConfig.MaxDumpWords, "max-dump-words", defaultConfig.MaxDumpWords, "Largest accepted dump in words.")
}

// SetupBrokerFlags sets up command line flags for the MQTT broker.
func SetupBrokerFlags() {
	flag.StringVar(&defaultConfig.BrokerURL, "mqtt", defaultConfig.BrokerURL, "MQTT broker URL.")
}

// Default gets the default config.
// It must be called after flag.Parse.
func Default() *Config {
	envWarningOnce.Do(func() {
		for _, msg := range envWarnings {
			glog.Warning(msg)
		}
	})
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// IsSim indicates Port selects the simulator: "sim" or "sim:<anything>".
func (c *Config) IsSim() bool {
	return c.Port == SimPort || strings.HasPrefix(c.Port, SimPort+":")
}

// Options converts the config into session options.
func (c *Config) Options() []comm.Option {
	return []comm.Option{
		comm.WithName(c.Port),
		comm.WithTimeout(c.Timeout),
		comm.WithMaxDumpWords(c.MaxDumpWords),
	}
}

// Open opens a session using current config.
// The caller must Close the session.
func (c *Config) Open() (*comm.Session, error) {
	if c.IsSim() {
		glog.V(1).Infof("opened simulator %s", c.Port)
		return comm.NewSession(sim.NewBoard(), c.Options()...), nil
	}
	return serial.OpenSession(c.Port, c.BaudRate, c.Options()...)
}

// MustOpen opens a session and fails on error.
func (c *Config) MustOpen() *comm.Session {
	s, err := c.Open()
	if err != nil {
		glog.Flush()
		log.Fatalln(err)
	}
	return s
}
