package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/dap.go/pkg/env"
	"github.com/robotalks/dap.go/pkg/fw"
)

// Shell provides ishell backed interactive shell over a DAP session.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoOpen    bool

	Shell  *ishell.Shell
	Config *env.Config
	Board  *fw.Board
}

const (
	shellKey     = "$shell"
	closedPrompt = "[closed] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
		&PortsCmd,
		&ReadCmd,
		&WriteCmd,
		&StatusCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps command func requires an open session.
// The func prints results to out, and a returned error is reported.
func MustBeOpen(fn func(c *ishell.Context, b *fw.Board, out *Output) error) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		s := ShellFrom(c)
		if s.Board == nil {
			c.Err(fmt.Errorf("session not open"))
			return
		}
		if err := fn(c, s.Board, NewOutput(contextWriter{c}, s.OutputJSON)); err != nil {
			c.Err(err)
		}
	}
}

// WithAutoOpen sets AutoOpen.
func (s *Shell) WithAutoOpen(en bool) *Shell {
	s.AutoOpen = en
	return s
}

// Open opens a session using Config, replacing the current one.
func (s *Shell) Open() error {
	session, err := s.Config.Open()
	if err != nil {
		return err
	}
	s.Close()
	s.Board = fw.NewBoard(session)
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", s.Config.Port))
	return nil
}

// Close closes the current session.
func (s *Shell) Close() {
	if s.Board != nil {
		s.Board.Session.Close()
		s.Board = nil
		s.Shell.SetPrompt(closedPrompt)
	}
}

// Run runs the shell. Arguments are evaluated as a single command.
func (s *Shell) Run(args ...string) error {
	if s.AutoOpen && s.Board == nil {
		if s.Interactive && len(args) == 0 {
			s.Shell.Printf("Opening %s ...\n", s.Config.Port)
		}
		if err := s.Open(); err != nil {
			return err
		}
	}

	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	if s.Interactive {
		s.Shell.Run()
		return nil
	}
	return fmt.Errorf("command expected")
}

// Output writes command results as text, or as JSON when JSON is set.
type Output struct {
	w    io.Writer
	JSON bool
}

// NewOutput creates an Output on w.
func NewOutput(w io.Writer, asJSON bool) *Output {
	return &Output{w: w, JSON: asJSON}
}

// Write implements io.Writer.
func (o *Output) Write(p []byte) (int, error) {
	return o.w.Write(p)
}

// Result prints v encoded as JSON, or the formatted text.
func (o *Output) Result(v interface{}, format string, args ...interface{}) error {
	if o.JSON {
		out, err := json.Marshal(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(o.w, string(out))
		return err
	}
	_, err := fmt.Fprintf(o.w, format+"\n", args...)
	return err
}

// OK prints the acknowledgement of a command without result.
func (o *Output) OK() error {
	return o.Result(map[string]bool{"ok": true}, "OK")
}

type contextWriter struct {
	c *ishell.Context
}

func (w contextWriter) Write(p []byte) (int, error) {
	w.c.Print(string(p))
	return len(p), nil
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	s := New(env.Default()).WithAutoOpen(true)
	defer s.Close()
	if err := s.Run(flag.Args()...); err != nil {
		s.Close()
		glog.Flush()
		log.Fatalln(err)
	}
}
