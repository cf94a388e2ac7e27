// Command button-sensor polls a contact on a GPIO line, debounces it,
// classifies gestures (press, release, short/long/double press) and
// publishes them to MQTT.
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

	"github.com/requireiot/button-sensor/internal/button"
	"github.com/requireiot/button-sensor/internal/gpio"
	"github.com/requireiot/button-sensor/internal/mqtt"
	"github.com/requireiot/button-sensor/internal/status"
	"github.com/requireiot/button-sensor/internal/web"
)

func main() {
	poll := flag.Duration("poll", button.DefaultTickPeriod, "GPIO polling interval")
	stable := flag.Int("stable-ticks", button.DefaultStableTicks, "Consecutive identical samples required for an edge")
	longPress := flag.Duration("long-press", button.DefaultLongPress, "Hold duration threshold for a long press")
	doubleWindow := flag.Duration("double-window", button.DefaultDoublePressWindow, "Release-to-press window for a double press")
	chip := flag.String("chip", gpio.DefaultChip, "GPIO chip device name")
	line := flag.Int("line", gpio.DefaultLine, "GPIO line offset (BCM numbering)")
	activeLow := flag.Bool("active-low", true, "Button wired to ground (pull-up, pressed = low)")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	printState := flag.Bool("print-state", false, "Print current state and exit")
	httpAddr := flag.String("http", ":8080", "HTTP status address (empty to disable)")

	flag.Parse()

	if err := run(*poll, *stable, *longPress, *doubleWindow, *chip, *line, *activeLow, *broker, *heartbeat, *printState, *httpAddr); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(poll time.Duration, stable int, longPress, doubleWindow time.Duration, chip string, line int, activeLow bool, broker string, heartbeat time.Duration, printState bool, httpAddr string) error {
	// Initialize GPIO
	reader, err := gpio.NewRealReader(chip, line, activeLow)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	// Print state mode
	if printState {
		pressed, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("button: %s\n", stateString(pressed))
		return nil
	}

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(broker)
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:         poll.Milliseconds(),
		StableTicks:    stable,
		LongPressMs:    longPress.Milliseconds(),
		DoubleWindowMs: doubleWindow.Milliseconds(),
		HeartbeatMs:    heartbeat.Milliseconds(),
		Broker:         broker,
		HTTPAddr:       httpAddr,
		Chip:           chip,
		Line:           line,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
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

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: poll=%v stable=%d long=%v double=%v chip=%s line=%d broker=%s heartbeat=%v",
		poll, stable, longPress, doubleWindow, chip, line, broker, heartbeat)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	cfg := button.Config{
		TickPeriod:        poll,
		StableTicks:       stable,
		LongPress:         longPress,
		DoublePressWindow: doubleWindow,
	}
	return runLoop(reader, publisher, publisher, tracker, cfg, heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(reader gpio.Reader, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, cfg button.Config, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	btn := button.New(cfg)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			pressed, err := reader.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				continue
			}

			for _, ev := range btn.Tick(pressed) {
				log.Printf("gesture: %s (state=%s hold=%dms)", ev.Type, stateString(btn.IsDown), ev.HoldMs)
				event := mqtt.Event{
					Timestamp: t,
					Gesture:   ev.Type,
					Down:      btn.IsDown,
					HoldMs:    ev.HoldMs,
					Counts:    btn.Counts,
				}
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(btn.IsDown, btn.HoldMs, btn.Counts)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}

				// Check for heartbeat
				if hb := tracker.CheckHeartbeat(t, heartbeat); hb != nil {
					log.Printf("heartbeat: uptime=%v pressed=%d released=%d short=%d long=%d double=%d",
						hb.Uptime, hb.Counts.Pressed, hb.Counts.Released,
						hb.Counts.ShortPress, hb.Counts.LongPress, hb.Counts.DoublePress)

					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					snap := tracker.Snapshot()
					hbEvent := mqtt.SystemEvent{
						Timestamp:  hb.Timestamp,
						Event:      "HEARTBEAT",
						RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
					}
					if err := publisher.PublishSystem(hbEvent); err != nil {
						log.Printf("heartbeat publish error: %v", err)
					}
				}
			}
		}
	}
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

func stateString(down bool) string {
	if down {
		return "DOWN"
	}
	return "UP"
}
