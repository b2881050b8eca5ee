// Command knock-lock listens for a knock pattern on a sound sensor and
// drives a solenoid lock through a relay. Lock events are published to
// MQTT, appended to a local audit log, and served on an HTTP status page.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/knock-lock/internal/config"
	"github.com/sweeney/knock-lock/internal/gpio"
	"github.com/sweeney/knock-lock/internal/logic"
	"github.com/sweeney/knock-lock/internal/metrics"
	"github.com/sweeney/knock-lock/internal/mqtt"
	"github.com/sweeney/knock-lock/internal/status"
	"github.com/sweeney/knock-lock/internal/store"
	"github.com/sweeney/knock-lock/internal/totp"
	"github.com/sweeney/knock-lock/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (empty = built-in defaults)")
	broker := flag.String("broker", "", "Override MQTT broker address")
	httpAddr := flag.String("http", "", "Override HTTP status address")
	printState := flag.Bool("print-state", false, "Print current sensor state and exit")
	printCode := flag.Bool("print-code", false, "Print the current TOTP knock code and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	applyOverrides(cfg, *broker, *httpAddr)

	if err := run(cfg, *printState, *printCode); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// applyOverrides lets a couple of flags win over the config file, which is
// handy when pointing a device at a staging broker.
func applyOverrides(cfg *config.Config, broker, httpAddr string) {
	if broker != "" {
		cfg.MQTT.Broker = broker
	}
	if httpAddr != "" {
		cfg.Web.Listen = httpAddr
	}
}

func run(cfg *config.Config, printState, printCode bool) error {
	// Print code mode needs no hardware.
	if printCode {
		if !cfg.TOTP.Enabled {
			return fmt.Errorf("totp is not enabled in the config")
		}
		src := totpSource(cfg)
		now := time.Now()
		fmt.Printf("%s (code %d)\n", src.KnockCode(now), src.Code(now))
		return nil
	}

	// Initialize GPIO
	dev, err := gpio.NewRealDevice(cfg.Pins.Sensor, cfg.Pins.Relay, cfg.Pins.Buzzer)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer dev.Close()

	// Print state mode: useful while adjusting the sensor potentiometer.
	if printState {
		active, err := dev.Read()
		if err != nil {
			return fmt.Errorf("read sensor: %w", err)
		}
		fmt.Printf("sensor: %s\n", stateString(active))
		return nil
	}

	// Pattern source: rolling TOTP pattern or the static reference.
	var source logic.PatternSource
	if cfg.TOTP.Enabled {
		source = totpSource(cfg)
		log.Printf("using rolling TOTP pattern (step=%ds)", cfg.TOTP.StepS)
	} else {
		source = cfg.StaticSource()
	}

	ctrl := logic.NewController(cfg.ControllerConfig(), source, dev, dev)

	// Audit log
	var st store.Store
	if cfg.Store.Path != "" {
		bs, err := store.NewBoltStore(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
		defer bs.Close()
		st = bs
	}

	// MQTT
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		real := mqtt.NewRealPublisher(cfg.MQTT.Broker)
		defer real.Close()
		publisher = real
		mqttStatus = real
	} else {
		log.Printf("mqtt disabled (no broker configured)")
	}

	// Status tracker (before STARTUP so the snapshot is available)
	patternLen := len(cfg.Pattern.IntervalsMs)
	if cfg.TOTP.Enabled {
		patternLen = 6
	}
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:       int64(cfg.Daemon.PollMs),
		DebounceMs:   int64(cfg.Knock.DebounceMs),
		SilenceMs:    int64(cfg.Knock.SilenceTimeoutMs),
		HeartbeatMs:  int64(cfg.Daemon.HeartbeatMs),
		PatternLen:   patternLen,
		TolerancePct: cfg.Pattern.TolerancePct,
		TOTPEnabled:  cfg.TOTP.Enabled,
		Broker:       cfg.MQTT.Broker,
		HTTPAddr:     cfg.Web.Listen,
		StorePath:    cfg.Store.Path,
	})

	// Publish startup event with full status snapshot
	if publisher != nil {
		snap := tracker.Snapshot()
		startupEvent := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startupEvent); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	// HTTP status server
	var hub *web.Hub
	if cfg.Web.Listen != "" {
		srv := web.New(cfg.Web.Listen, tracker, st)
		hub = srv.Hub()
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.Web.Listen)
	}

	poll := time.Duration(cfg.Daemon.PollMs) * time.Millisecond
	heartbeat := time.Duration(cfg.Daemon.HeartbeatMs) * time.Millisecond
	log.Printf("started: poll=%v debounce=%dms silence=%dms threshold=%d broker=%s",
		poll, cfg.Knock.DebounceMs, cfg.Knock.SilenceTimeoutMs, cfg.Lock.LockoutThreshold, cfg.MQTT.Broker)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(dev, ctrl, publisher, mqttStatus, st, tracker, hub, heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(sensor gpio.Sensor, ctrl *logic.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, st store.Store, tracker *status.Tracker, hub *web.Hub, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := now()
	lastKnocks := ctrl.Counts().Knocks

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			name := signalName(s)
			if publisher != nil {
				event := mqtt.SystemEvent{
					Timestamp: now(),
					Event:     "SHUTDOWN",
					Reason:    name,
					Retained:  true,
				}
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					snap := tracker.Snapshot()
					event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", name)
				}
				if err := publisher.PublishSystem(event); err != nil {
					log.Printf("failed to publish shutdown event: %v", err)
				} else {
					log.Printf("published shutdown event")
				}
			}
			return nil

		case <-tick:
			t := now()
			active, err := sensor.Read()
			if err != nil {
				// A read fault is a non-event; the loop must keep running.
				log.Printf("sensor read error: %v", err)
				continue
			}

			events := ctrl.Process(logic.Sample{Active: active, Time: t})

			for _, event := range events {
				log.Printf("event: %s (state=%s streak=%d)", event.Type, event.State, event.FailStreak)
				metrics.ObserveEvent(event)

				if hub != nil {
					hub.BroadcastEvent(event)
				}
				if st != nil {
					if a := store.FromEvent(event); a != nil {
						if err := st.Append(a); err != nil {
							log.Printf("audit append error: %v", err)
						}
					}
				}
				if publisher != nil {
					if err := publisher.Publish(event); err != nil {
						log.Printf("publish error: %v", err)
						// Don't crash on publish failure
					}
				}
			}

			if knocks := ctrl.Counts().Knocks; knocks > lastKnocks {
				metrics.KnocksTotal.Add(float64(knocks - lastKnocks))
				lastKnocks = knocks
			}
			metrics.UpdateState(ctrl.State(), ctrl.FailStreak(), ctrl.LockoutRemaining(t))
			if tracker != nil {
				tracker.Update(ctrl.State(), ctrl.FailStreak(), ctrl.LockoutRemaining(t), ctrl.Counts())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				counts := ctrl.Counts()
				log.Printf("heartbeat: state=%s knocks=%d unlocks=%d denials=%d lockouts=%d",
					ctrl.State(), counts.Knocks, counts.Unlocks, counts.Denials, counts.Lockouts)

				if publisher != nil {
					hbEvent := mqtt.SystemEvent{Timestamp: t, Event: "HEARTBEAT"}
					if tracker != nil {
						snap := tracker.Snapshot()
						hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
					}
					if err := publisher.PublishSystem(hbEvent); err != nil {
						log.Printf("heartbeat publish error: %v", err)
					}
				}
			}
		}
	}
}

func totpSource(cfg *config.Config) *totp.Source {
	return totp.New(
		cfg.TOTP.Secret,
		time.Duration(cfg.TOTP.StepS)*time.Second,
		time.Duration(cfg.TOTP.ShortMs)*time.Millisecond,
		time.Duration(cfg.TOTP.LongMs)*time.Millisecond,
		cfg.Tolerance(),
	)
}

func stateString(active bool) string {
	if active {
		return "ACTIVE"
	}
	return "QUIET"
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
