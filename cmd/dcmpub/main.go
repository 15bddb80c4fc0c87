package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/dap.go/pkg/env"
	"github.com/robotalks/dap.go/pkg/framework"
	"github.com/robotalks/dap.go/pkg/fw"
	"github.com/robotalks/dap.go/pkg/telemetry/mqtt"
)

var (
	interval    = 10 * time.Second
	hostID      string
	clearAfter  bool
	maxFailures int
)

func init() {
	env.SetupFlags()
	env.SetupBrokerFlags()
	flag.DurationVar(&interval, "interval", interval, "Dump interval.")
	flag.StringVar(&hostID, "host-id", hostID, "Host ID in topics, default is derived from the machine ID.")
	flag.BoolVar(&clearAfter, "clear", clearAfter, "Clear the capture buffer after each dump.")
	flag.IntVar(&maxFailures, "max-failures", maxFailures, "Exit after this many consecutive failed dumps, 0 for never.")
}

// dumper dumps the capture buffer and publishes it.
type dumper struct {
	board *fw.Board
	pub   *mqtt.DumpPublisher
	clear bool
}

func (d *dumper) dump(context.Context) error {
	at := time.Now()
	words, err := d.board.DCM.Dump()
	if err != nil {
		return err
	}
	if d.clear {
		if err = d.board.DCM.Clear(); err != nil {
			return err
		}
	}
	meta, err := d.pub.Publish(words, at)
	if err != nil {
		return err
	}
	glog.V(1).Infof("published dump #%d, %d words", meta.Seq, meta.Words)
	return nil
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.Default()
	if hostID == "" {
		hostID = env.HostID()
	}

	opts, prefix, err := mqtt.ClientOptionsFromURL(conf.BrokerURL)
	if err != nil {
		fatal(err)
	}
	if opts.ClientID == "" {
		opts.SetClientID("dcmpub:" + hostID)
	}
	mqtt.SetWill(opts, prefix, hostID)
	queue := mqtt.NewQueue(opts, prefix)
	pub := mqtt.NewDumpPublisher(queue, hostID, conf.Port)
	queue.OnConnect = func(*mqtt.Queue) {
		go func() {
			if err := pub.SetOnline(true); err != nil {
				glog.Warningf("online: %v", err)
			}
		}()
	}
	if token := queue.Connect(); token.Wait() && token.Error() != nil {
		fatal(token.Error())
	}

	session := conf.MustOpen()
	d := &dumper{board: fw.NewBoard(session), pub: pub, clear: clearAfter}
	periodic := framework.NewPeriodic(interval, d.dump)
	periodic.MaxFailures = maxFailures
	queue.Sub(pub.Topic(mqtt.TopicTrigger), func(string, []byte) {
		periodic.TriggerNext()
	})

	glog.Infof("publishing %s dumps every %v as %s", conf.Port, interval, hostID)
	err = framework.NewRunner().
		HandleSignals().
		Go(framework.NamedRun("dcm", framework.RunFunc(func(ctx context.Context) error {
			return framework.RunWithContextCloser(ctx, session, func() error {
				return periodic.Run(ctx)
			})
		}))).
		Wait()
	if offErr := pub.SetOnline(false); offErr != nil {
		glog.Warningf("offline: %v", offErr)
	}
	queue.Close()
	if err != nil {
		fatal(err)
	}
}

// fatalln exits the process, it bypasses deferred calls.
var fatalln = log.Fatalln

func fatal(err error) {
	glog.Flush()
	fatalln(err)
}
