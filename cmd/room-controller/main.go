// Command room-controller runs the climate and lighting controller against a
// simulated room and publishes its state to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/room-controller/internal/config"
	"github.com/sweeney/room-controller/internal/console"
	"github.com/sweeney/room-controller/internal/gpio"
	"github.com/sweeney/room-controller/internal/logic"
	"github.com/sweeney/room-controller/internal/metrics"
	"github.com/sweeney/room-controller/internal/mqtt"
	"github.com/sweeney/room-controller/internal/sim"
	"github.com/sweeney/room-controller/internal/status"
	"github.com/sweeney/room-controller/internal/web"
)

type options struct {
	tick       time.Duration
	heartbeat  time.Duration
	broker     string
	httpAddr   string
	wsBroker   string
	configPath string
	envFile    string
	ledPin     int
	console    bool
	timelapse  bool
	play       bool
	speed      float64
	printState bool
}

func main() {
	var o options
	flag.DurationVar(&o.tick, "tick", 50*time.Millisecond, "Controller tick interval (at least 5ms)")
	flag.StringVar(&o.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&o.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	flag.StringVar(&o.wsBroker, "ws-broker", "=broker", `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)
	flag.StringVar(&o.configPath, "config", "", "YAML file with controller tunables")
	flag.StringVar(&o.envFile, "env", ".env", "dotenv file loaded before the environment is read")
	flag.IntVar(&o.ledPin, "led-pin", gpio.DefaultPinLED, "BCM pin of the manual-mode LED (-1 to disable)")
	flag.BoolVar(&o.console, "console", true, "Read operator commands from the terminal")
	flag.BoolVar(&o.timelapse, "timelapse", true, "Drive the sensors from the simulated day")
	flag.BoolVar(&o.play, "play", true, "Start the timelapse playing")
	flag.Float64Var(&o.speed, "speed", sim.DefaultSpeed, "Timelapse speed multiplier")
	flag.BoolVar(&o.printState, "print-state", false, "Print the initial state and exit")

	flag.Parse()

	o.wsBroker = resolveWSBroker(o.wsBroker, o.broker)
	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// validate rejects options the run loop cannot work with.
func (o options) validate() error {
	if o.tick < logic.MinSmoothingStep {
		return fmt.Errorf("tick %v is below the minimum %v", o.tick, logic.MinSmoothingStep)
	}
	return nil
}

func run(o options) error {
	if err := o.validate(); err != nil {
		return err
	}
	if err := config.LoadEnv(o.envFile); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	env := sim.NewEnvironment()
	env.SetSpeed(o.speed)
	env.SetTimelapse(o.timelapse)
	env.SetPlaying(o.timelapse && o.play)

	tracker := status.NewTracker(uuid.NewString(), time.Now(), status.Config{
		TickMs:      o.tick.Milliseconds(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		Broker:      o.broker,
		HTTPPort:    o.httpAddr,
		WSBroker:    o.wsBroker,
		Controller:  cfg,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Print state mode
	if o.printState {
		m := logic.NewModel(time.Now())
		m.Sensors = env.Advance(0, m.Outputs)
		tracker.Update(m, logic.EventCounts{}, m.StateEnteredAt, timelapseStatus(env.Timelapse()))
		fmt.Println(status.FormatText(tracker.Snapshot()))
		return nil
	}

	// Indicator LED
	var ind gpio.Indicator = gpio.NopIndicator{}
	if o.ledPin >= 0 {
		led, err := gpio.NewRealIndicator(o.ledPin)
		if err != nil {
			log.Printf("led unavailable on pin %d: %v", o.ledPin, err)
		} else {
			ind = led
		}
	}
	led := gpio.NewLatch(ind)
	defer led.Close()

	// Initialize MQTT
	user, pass := config.MQTTCredentials()
	publisher := mqtt.NewRealPublisher(mqtt.Options{
		Broker:   o.broker,
		ClientID: "room-controller",
		Username: user,
		Password: pass,
	})
	defer publisher.Close()

	m := metrics.New()

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      mqtt.EventStartup,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, mqtt.EventStartup, ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker, m, os.Stdout)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmds := make(chan console.Command)
	if o.console {
		con := console.New(func() string {
			return status.FormatText(tracker.Snapshot())
		})
		go func() {
			if err := con.Run(ctx, cancel, cmds); err != nil {
				log.Printf("console: %v", err)
			}
		}()
	}

	log.Printf("=== SYSTEM START === tick=%v broker=%s heartbeat=%v timelapse=%v speed=x%g",
		o.tick, o.broker, o.heartbeat, o.timelapse, env.Timelapse().Speed)

	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(loopDeps{
		cfg:        cfg,
		heartbeat:  o.heartbeat,
		env:        env,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		metrics:    m,
		led:        led,
	}, time.Now, ticker.C, cmds, sigCh, ctx.Done())
}

// loopDeps are the collaborators of runLoop. Only publisher and env are
// required.
type loopDeps struct {
	cfg        logic.Config
	heartbeat  time.Duration
	env        *sim.Environment
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	metrics    *metrics.Metrics
	led        gpio.Indicator
}

// runLoop owns the controller model. It steps it on every tick, applies
// console commands between ticks, and returns after publishing SHUTDOWN on
// a signal or when done is closed.
func runLoop(d loopDeps, now func() time.Time, tick <-chan time.Time, cmds <-chan console.Command, sig <-chan os.Signal, done <-chan struct{}) error {
	startTime := now()
	clock := sim.NewClock(startTime)
	model := logic.NewModel(startTime)
	monitor := logic.NewMonitor(startTime)

	refresh := func() {
		if d.mqttStatus != nil {
			connected := d.mqttStatus.IsConnected()
			if d.tracker != nil {
				d.tracker.SetMQTTConnected(connected)
			}
			if d.metrics != nil {
				d.metrics.SetMQTTConnected(connected)
			}
		}
		if d.tracker != nil {
			d.tracker.Update(model, monitor.Counts(), clock.Now(), timelapseStatus(d.env.Timelapse()))
		}
		if d.metrics != nil {
			d.metrics.Observe(model)
		}
		if d.led != nil {
			if err := d.led.Set(model.Mode == logic.ModeManual); err != nil {
				log.Printf("led error: %v", err)
			}
		}
	}

	shutdown := func(reason string) error {
		event := mqtt.SystemEvent{
			Timestamp: now(),
			Event:     mqtt.EventShutdown,
			Reason:    reason,
			Retained:  true,
		}
		if d.tracker != nil {
			refresh()
			event.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), mqtt.EventShutdown, reason)
		}
		if err := d.publisher.PublishSystem(event); err != nil {
			log.Printf("failed to publish shutdown event: %v", err)
		} else {
			log.Printf("published shutdown event")
		}
		return nil
	}

	refresh()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			return shutdown(signalName(s))

		case <-done:
			log.Printf("console quit, shutting down")
			return shutdown("QUIT")

		case c := <-cmds:
			prev := model
			if err := c.Apply(&model, d.env); err != nil {
				log.Printf("command %s: %v", c.Op, err)
				continue
			}
			logCommand(c, d.env)
			dispatch(d, monitor.Process(prev, model, now()))
			refresh()

		case <-tick:
			t := now()
			simNow, dt := clock.Advance(t, d.env.Rate())

			prev := model
			model.Sensors = d.env.Advance(dt, model.Outputs)
			logic.Step(&model, d.cfg, simNow)
			logSerial(prev, model)

			dispatch(d, monitor.Process(prev, model, t))

			if hb := monitor.CheckHeartbeat(t, d.heartbeat); hb != nil {
				log.Printf("heartbeat: uptime=%v transitions=%d day=%d night=%d",
					hb.Uptime, hb.Counts.Transitions, hb.Counts.DayCycles, hb.Counts.NightCycles)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hb.Timestamp,
					Event:     mqtt.EventHeartbeat,
				}
				if d.tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						d.tracker.SetNetwork(net)
					}
					refresh()
					hbEvent.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), mqtt.EventHeartbeat, "")
				}
				if err := d.publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			refresh()
		}
	}
}

// dispatch publishes events and counts them. Publish failures are logged only.
func dispatch(d loopDeps, events []logic.Event) {
	if d.metrics != nil {
		d.metrics.ObserveEvents(events)
	}
	for _, event := range events {
		if err := d.publisher.Publish(event); err != nil {
			log.Printf("publish error: %v", err)
		}
	}
}

// logSerial prints the controller's serial log for one step.
func logSerial(prev, next logic.Model) {
	if next.State != prev.State {
		log.Printf("[STATE] %s -> %s", prev.State, next.State)

		switch next.State {
		case logic.StateCheckDayNight:
			log.Printf("L_ext = %d", next.Sensors.LExt)
		case logic.StateDayHum:
			log.Printf("Humidity = %d", next.Sensors.Hum)
		case logic.StateHumOn:
			log.Printf("-> HUMIDITY LOW: HUM_ON")
		}
		if prev.State == logic.StateCheckDayNight {
			switch next.State {
			case logic.StateDayLight:
				log.Printf("-> DAY MODE")
			case logic.StateNightLight:
				log.Printf("-> NIGHT MODE")
			}
		}
	}

	if next.Outputs != prev.Outputs {
		log.Printf("OUT  WIN=%d  LAMP=%d  HUMID=%d", next.Outputs.Win, next.Outputs.Lamp, next.Outputs.Humid)
	}
}

func logCommand(c console.Command, env *sim.Environment) {
	tl := env.Timelapse()
	switch c.Op {
	case console.OpAuto, console.OpManual:
		log.Printf("Mode switched to: %s", c.Op)
	case console.OpTimelapse:
		log.Printf("Timelapse %s", enabledString(tl.Enabled))
	case console.OpPlay, console.OpPause:
		log.Printf("Timelapse %s", playString(tl.Playing))
	case console.OpSpeed:
		log.Printf("Timelapse speed: x%g", tl.Speed)
	case console.OpSeek:
		log.Printf("Timelapse seek: %s", sim.FormatClock(tl.Minutes))
	}
}

func timelapseStatus(tl sim.Timelapse) status.Timelapse {
	return status.Timelapse{
		Enabled: tl.Enabled,
		Playing: tl.Playing,
		Speed:   tl.Speed,
		Minutes: tl.Minutes,
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func enabledString(on bool) string {
	if on {
		return "ENABLED"
	}
	return "DISABLED"
}

func playString(on bool) string {
	if on {
		return "PLAY"
	}
	return "PAUSE"
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// resolveWSBroker converts the --ws-broker flag value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; "off" disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse --broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
