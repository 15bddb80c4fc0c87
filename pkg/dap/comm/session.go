package comm

import (
	"time"

	"github.com/golang/glog"
)

// Defaults used when no Option overrides them.
const (
	DefaultTimeout      = 500 * time.Millisecond
	DefaultMaxDumpWords = 10000000
)

// Config holds the session configuration.
type Config struct {
	// Name identifies the session in log lines, usually the port name.
	Name string
	// Timeout bounds every read of a reply or dump.
	Timeout time.Duration
	// MaxDumpWords is the dump length limit used by DumpLimit.
	MaxDumpWords int
}

func defaultConfig() Config {
	return Config{
		Name:         "dap",
		Timeout:      DefaultTimeout,
		MaxDumpWords: DefaultMaxDumpWords,
	}
}

// Option is a functional option for configuring a Session.
type Option func(*Config)

// WithName sets the name used in log lines.
func WithName(name string) Option {
	return func(c *Config) {
		c.Name = name
	}
}

// WithTimeout sets the read timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// WithMaxDumpWords sets the dump length limit.
func WithMaxDumpWords(n int) Option {
	return func(c *Config) {
		if n >= 0 {
			c.MaxDumpWords = n
		}
	}
}

// Session drives register transactions over one exclusively owned
// Transport. Transactions are strictly sequential: a Session must not be
// used from more than one goroutine at a time. Close may be called from
// any goroutine to abort a blocked read.
type Session struct {
	config    Config
	transport *Transport
}

// NewSession creates a Session which takes ownership of port.
func NewSession(port Port, opts ...Option) *Session {
	if port == nil {
		panic("port cannot be nil")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Session{
		config:    cfg,
		transport: NewTransport(cfg.Name, port),
	}
}

// Config returns the effective configuration.
func (s *Session) Config() Config {
	return s.config
}

// Transport returns the underlying Transport.
func (s *Session) Transport() *Transport {
	return s.transport
}

// DumpLimit is the configured maximum dump length.
func (s *Session) DumpLimit() int {
	return s.config.MaxDumpWords
}

// WriteRegister writes a 32-bit word. The firmware does not reply.
func (s *Session) WriteRegister(module uint8, offset uint32, data uint32) error {
	pkt, err := EncodeWrite(module, offset, data)
	if err != nil {
		return err
	}
	if _, err = s.transport.WriteBytes(pkt); err != nil {
		return err
	}
	glog.V(3).Infof("%s write %d:0x%06X = 0x%08X", s.config.Name, module, offset, data)
	return nil
}

// ReadRegister reads a 32-bit word.
func (s *Session) ReadRegister(module uint8, offset uint32) (uint32, error) {
	pkt, err := EncodeRead(module, offset)
	if err != nil {
		return 0, err
	}
	if _, err = s.transport.WriteBytes(pkt); err != nil {
		return 0, err
	}
	reply, err := s.transport.ReadExact(ResponsePacketSize, s.config.Timeout)
	if err != nil {
		return 0, err
	}
	data, err := DecodeResponse(reply)
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.Op = "read"
		}
		return 0, err
	}
	glog.V(3).Infof("%s read %d:0x%06X = 0x%08X", s.config.Name, module, offset, data)
	return data, nil
}

// Close releases the Transport. It is idempotent.
func (s *Session) Close() error {
	if s.transport.Closed() {
		return nil
	}
	err := s.transport.Close()
	glog.V(1).Infof("closed %s", s.config.Name)
	return err
}

// Closed indicates the session has been closed.
func (s *Session) Closed() bool {
	return s.transport.Closed()
}
