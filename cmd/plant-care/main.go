// Command plant-care runs the shade and watering control loops of a plant-care controller.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/plant-care/internal/control"
	"github.com/sweeney/plant-care/internal/hw"
	"github.com/sweeney/plant-care/internal/status"
	"github.com/sweeney/plant-care/internal/task"
)

type options struct {
	shadePoll  time.Duration
	waterPoll  time.Duration
	flowPoll   time.Duration
	heartbeat  time.Duration
	pins       hw.Pins
	printState bool
}

func main() {
	var o options
	o.pins = hw.DefaultPins()

	flag.DurationVar(&o.shadePoll, "shade-poll", 5*time.Millisecond, "Light control polling interval")
	flag.DurationVar(&o.waterPoll, "water-poll", 100*time.Millisecond, "Moisture polling interval")
	flag.DurationVar(&o.flowPoll, "flow-poll", 10*time.Millisecond, "Flow meter polling interval while watering")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat log interval (0 to disable)")
	flag.StringVar(&o.pins.Chip, "gpio-chip", o.pins.Chip, "GPIO character device")
	flag.IntVar(&o.pins.Flow, "pin-flow", o.pins.Flow, "Line offset of the flow meter input")
	flag.IntVar(&o.pins.Valve, "pin-valve", o.pins.Valve, "Line offset of the valve output")
	flag.IntVar(&o.pins.WaterFault, "pin-water-fault", o.pins.WaterFault, "Line offset of the watering fault indicator")
	flag.IntVar(&o.pins.ShadeFault, "pin-shade-fault", o.pins.ShadeFault, "Line offset of the shade fault indicator")
	flag.IntVar(&o.pins.MotorA, "pin-motor-a", o.pins.MotorA, "BCM PWM pin driving the shade out")
	flag.IntVar(&o.pins.MotorB, "pin-motor-b", o.pins.MotorB, "BCM PWM pin driving the shade in")
	flag.StringVar(&o.pins.I2CBus, "i2c", o.pins.I2CBus, "I2C bus of the moisture sensor (empty for first)")
	flag.StringVar(&o.pins.ADCPort, "adc-spi", o.pins.ADCPort, "SPI port of the light sensor ADC")
	flag.IntVar(&o.pins.ADCChannel, "adc-channel", o.pins.ADCChannel, "ADC channel of the light sensor")
	flag.StringVar(&o.pins.EncoderPort, "encoder-spi", o.pins.EncoderPort, "SPI port of the shade encoder counter")
	flag.BoolVar(&o.printState, "print-state", false, "Print current sensor readings and exit")

	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	shadeCfg := control.DefaultShadeConfig(o.shadePoll)
	if err := shadeCfg.Validate(); err != nil {
		return fmt.Errorf("shade config: %w", err)
	}
	waterCfg := control.DefaultWaterConfig(o.waterPoll)
	if err := waterCfg.Validate(); err != nil {
		return fmt.Errorf("water config: %w", err)
	}

	board, err := hw.OpenBoard(o.pins)
	if err != nil {
		return fmt.Errorf("init hw: %w", err)
	}
	defer func() {
		if err := board.Close(); err != nil {
			log.Printf("hw: %v", err)
		}
	}()

	// Print state mode
	if o.printState {
		return printState(board)
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		ShadePollMs: o.shadePoll.Milliseconds(),
		WaterPollMs: o.waterPoll.Milliseconds(),
		FlowPollMs:  o.flowPoll.Milliseconds(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		Shade:       shadeCfg,
		Water:       waterCfg,
	})

	g := task.NewGroup()
	g.Add(task.NewLightTask(shadeCfg, o.shadePoll, board.Light, board, board.Encoder, board.ShadeFault(), tracker), task.PriorityLight)
	g.Add(task.NewWaterTask(waterCfg, o.waterPoll, o.flowPoll, board.Moisture, board, board.Valve(), board.WaterFault(), tracker), task.PriorityWater)

	log.Printf("%s", status.FormatStatusEvent(tracker.Snapshot(), "STARTUP"))
	log.Printf("started: shade-poll=%v water-poll=%v flow-poll=%v heartbeat=%v",
		o.shadePoll, o.waterPoll, o.flowPoll, o.heartbeat)

	var tick <-chan time.Time
	if o.heartbeat > 0 {
		ticker := time.NewTicker(o.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(g, tracker, tick, sigCh)
}

// runner is satisfied by *task.Group.
type runner interface {
	Run(ctx context.Context) error
}

// runLoop runs the control tasks until a signal arrives or a task fails to
// start, logging a status heartbeat on every tick. On shutdown it waits for
// every task to park its actuators before returning.
func runLoop(tasks runner, tracker *status.Tracker, tick <-chan time.Time, sig <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- tasks.Run(ctx) }()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			cancel()
			err := <-done
			if tracker != nil {
				log.Printf("%s", status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN"))
			}
			return err

		case err := <-done:
			if err != nil {
				return fmt.Errorf("tasks: %w", err)
			}
			return nil

		case <-tick:
			if tracker == nil {
				continue
			}
			snap := tracker.Snapshot()
			log.Printf("heartbeat: uptime=%v shade=%s water=%s episodes=%d errors=%d/%d",
				snap.Uptime().Round(time.Second), snap.Shade.Phase, snap.Water.Phase,
				snap.Water.Episodes, snap.Errors.Shade, snap.Errors.Water)
			log.Printf("%s", status.FormatStatusEvent(snap, "HEARTBEAT"))
		}
	}
}

// sensors is the read side of the board used by print-state mode.
type sensors struct {
	light    hw.LightSensor
	moisture hw.MoistureSensor
	flow     hw.FlowMeter
	encoder  hw.Encoder
}

func printState(b *hw.Board) error {
	line, err := readSensors(sensors{
		light:    b.Light,
		moisture: b.Moisture,
		flow:     b,
		encoder:  b.Encoder,
	})
	if err != nil {
		return err
	}
	fmt.Println(line)
	return nil
}

func readSensors(s sensors) (string, error) {
	light, err := s.light.ReadLight()
	if err != nil {
		return "", fmt.Errorf("read light: %w", err)
	}
	moisture, err := s.moisture.ReadMoisture()
	if err != nil {
		return "", fmt.Errorf("read moisture: %w", err)
	}
	flow, err := s.flow.ReadFlowPin()
	if err != nil {
		return "", fmt.Errorf("read flow pin: %w", err)
	}
	pos, err := s.encoder.Read()
	if err != nil {
		return "", fmt.Errorf("read encoder: %w", err)
	}
	return fmt.Sprintf("Light: %d, Moisture: %d, Flow: %s, Shade position: %d",
		light, moisture, levelString(flow), pos), nil
}

func levelString(high bool) string {
	if high {
		return "HIGH"
	}
	return "LOW"
}
