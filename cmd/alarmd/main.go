// Command alarmd is the home security alarm controller daemon: it
// reads a DSL program describing sensors, actuators, and the state
// machine that reacts to them, then drives the hardware and a
// localhost-only command front-end until told to exit.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"alarmd/action"
	"alarmd/config"
	"alarmd/dsl"
	"alarmd/events"
	"alarmd/logging"
	"alarmd/metrics"
	"alarmd/ports"
	"alarmd/restapi"
	"alarmd/statemachine"
	"alarmd/timer"
	"alarmd/vmqueue"
)

var (
	debugFlag    = flag.Bool("d", false, "enable debug tracing")
	debugFlagL   = flag.Bool("debug", false, "enable debug tracing")
	emulateFlag  = flag.Bool("e", false, "run against emulated hardware, not real GPIO")
	emulateFlagL = flag.Bool("emulate", false, "run against emulated hardware, not real GPIO")
	configFlag   = flag.String("c", "", "path to the daemon's YAML configuration file")
	configFlagL  = flag.String("config", "", "path to the daemon's YAML configuration file")

	listFlag   = flag.Bool("l", false, "list all defined ports and exit")
	resetFlag  = flag.String("r", "", "set the named actuator low and exit")
	resetFlagL = flag.String("reset", "", "set the named actuator low and exit")
	setFlag    = flag.String("s", "", "set the named actuator high and exit")
	setFlagL   = flag.String("set", "", "set the named actuator high and exit")
	valsFlag   = flag.Bool("v", false, "print every port's current value and exit")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "alarmd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()
	debug := *debugFlag || *debugFlagL
	emulate := *emulateFlag || *emulateFlagL
	configPath := *configFlag
	if configPath == "" {
		configPath = *configFlagL
	}

	resetName := *resetFlag
	if resetName == "" {
		resetName = *resetFlagL
	}
	setName := *setFlag
	if setName == "" {
		setName = *setFlagL
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if dslPath := flag.Arg(0); dslPath != "" {
		cfg.DSLPath = dslPath
	}

	log, err := logging.New(debug)
	if err != nil {
		return err
	}
	defer log.Close()
	defer log.Sync()

	log.SyslogInfo(fmt.Sprintf("starting up: pid %d", os.Getpid()))

	var opts []ports.Option
	opts = append(opts,
		ports.WithSensorDir(cfg.SensorDir),
		ports.WithDisableDir(cfg.DisableDir),
		ports.WithLogger(log),
	)
	if emulate {
		opts = append(opts, ports.WithEmulation())
	}

	m := metrics.New()
	opts = append(opts, ports.WithMetrics(m))
	registry := ports.New(opts...)

	program, err := dsl.LoadFile(cfg.DSLPath, registry)
	if err != nil {
		return fmt.Errorf("loading %s: %w", cfg.DSLPath, err)
	}

	switch {
	case *listFlag:
		return listPorts(registry)
	case resetName != "":
		return resetActuator(registry, resetName)
	case setName != "":
		return setActuator(registry, setName)
	case *valsFlag:
		return printValues(registry)
	}

	queue := events.New()
	closer, err := registry.RequestLines(queue)
	if err != nil {
		return fmt.Errorf("requesting GPIO lines: %w", err)
	}
	defer closer.Close()

	machine := statemachine.New(program, log)
	scheduler := timer.New(queue, log)
	vm := vmqueue.New(cfg.Modem.SpoolDir, cfg.Modem.ScriptDir, cfg.Modem.SerialPort, log)
	exec := action.NewExecutor(registry, scheduler, vm, machine, log)
	machine.SetExecutor(exec)

	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.SetQueueDepth(queue.Len())
		m.Handler().ServeHTTP(w, r)
	})
	srv := restapi.New(queue, machine, registry, m, log, metricsHandler)
	httpServer := &http.Server{Addr: cfg.Bind, Handler: srv.Router()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- machine.Run(ctx, queue)
	}()

	select {
	case <-ctx.Done():
		httpServer.Shutdown(context.Background())
		return nil
	case err := <-runErrCh:
		httpServer.Shutdown(context.Background())
		return err
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

func listPorts(registry *ports.Registry) error {
	for _, p := range registry.Ports() {
		fmt.Printf("%s\t%s\tphysical=%d\tline=%d\tkind=%s\n", p.Name, p.PCB, p.Physical, p.Line, p.Kind)
	}
	return nil
}

func resetActuator(registry *ports.Registry, name string) error {
	queue := events.New()
	closer, err := registry.RequestLines(queue)
	if err != nil {
		return err
	}
	defer closer.Close()
	return registry.SetLevel(name, 0)
}

func setActuator(registry *ports.Registry, name string) error {
	queue := events.New()
	closer, err := registry.RequestLines(queue)
	if err != nil {
		return err
	}
	defer closer.Close()
	return registry.SetLevel(name, 1)
}

func printValues(registry *ports.Registry) error {
	queue := events.New()
	closer, err := registry.RequestLines(queue)
	if err != nil {
		return err
	}
	defer closer.Close()
	for _, p := range registry.Ports() {
		level, err := registry.ReadLevel(p.Name)
		if err != nil {
			return err
		}
		fmt.Printf("%s=%d\n", p.Name, level)
	}
	return nil
}
