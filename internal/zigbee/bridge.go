package zigbee

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/zigbee-relay/internal/clock"
	"github.com/sweeney/zigbee-relay/internal/metrics"
	"github.com/sweeney/zigbee-relay/internal/zcl"
)

// BridgeConfig holds MQTT bridge settings.
type BridgeConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// Bridge exposes the device over MQTT in the zigbee2mqtt device style:
// a retained availability topic with an offline LWT, merged JSON state
// publishes, and a .../set command topic. Broker connectivity doubles as
// the joined flag: reports are suppressed while disconnected.
type Bridge struct {
	client paho.Client
	cfg    BridgeConfig
	sched  *Scheduler
	logger *slog.Logger

	mu           sync.Mutex
	joined       bool
	state        map[string]any
	lastActivity time.Time
	onCommand    func(Command)
	onJoined     func(bool)
}

// NewBridge creates an MQTT bridge without connecting, so the command and
// connectivity handlers can be registered before the first connection
// fires them. Call Connect once the handlers are in place and the
// scheduler is running.
func NewBridge(cfg BridgeConfig, clk clock.Clock, logger *slog.Logger) *Bridge {
	return &Bridge{
		cfg:    cfg,
		sched:  NewScheduler(clk, logger),
		logger: logger.With("component", "bridge"),
		state:  make(map[string]any),
	}
}

// Connect dials the broker. The on-connect handler runs on paho's own
// goroutine and may fire before Connect returns.
func (b *Bridge) Connect() error {
	opts := paho.NewClientOptions().
		AddBroker(b.cfg.Broker).
		SetClientID(b.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(b.cfg.TopicPrefix+"/availability", "offline", 1, true).
		SetOnConnectHandler(b.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) { b.onConnectionLost(err) })

	if b.cfg.Username != "" {
		opts.SetUsername(b.cfg.Username)
		opts.SetPassword(b.cfg.Password)
	}

	client := paho.NewClient(opts)
	b.mu.Lock()
	b.client = client
	b.mu.Unlock()

	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("connect timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	return nil
}

// Scheduler returns the bridge's callback scheduler for the daemon's run
// loop to drive.
func (b *Bridge) Scheduler() *Scheduler { return b.sched }

// SetCommandHandler registers the consumer of decoded coordinator
// commands. The handler runs on the scheduler goroutine.
func (b *Bridge) SetCommandHandler(fn func(Command)) {
	b.mu.Lock()
	b.onCommand = fn
	b.mu.Unlock()
}

// SetConnectivityHandler registers a callback invoked on every join/leave
// transition, with the new joined state.
func (b *Bridge) SetConnectivityHandler(fn func(joined bool)) {
	b.mu.Lock()
	b.onJoined = fn
	b.mu.Unlock()
}

// Schedule implements Stack.
func (b *Bridge) Schedule(f func()) { b.sched.Schedule(f) }

// After implements Stack.
func (b *Bridge) After(d time.Duration, f func()) (cancel func()) {
	return b.sched.After(d, f)
}

// UserInputIndicate implements Stack. For an always-powered bridge there
// is no poll interval to shorten; the activity timestamp is kept for the
// status page.
func (b *Bridge) UserInputIndicate() {
	b.mu.Lock()
	b.lastActivity = time.Now()
	b.mu.Unlock()
	b.logger.Debug("user input indicated")
}

// LastActivity returns the time of the last user input, zero if none.
func (b *Bridge) LastActivity() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastActivity
}

// Joined implements Stack.
func (b *Bridge) Joined() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.joined
}

// ReportAttribute implements Stack. The attribute is merged into the
// retained device state document and the whole document republished,
// which is how zigbee2mqtt consumers expect device state to arrive.
func (b *Bridge) ReportAttribute(endpoint uint8, cluster, attr uint16, value int16) error {
	def := zcl.FindAttribute(cluster, attr)
	if def == nil {
		return fmt.Errorf("report: unknown attribute 0x%04x/0x%04x", cluster, attr)
	}

	key := def.Name
	if cluster == zcl.ClusterOnOff && endpoint == zcl.EndpointLED {
		key = "led"
	}

	b.mu.Lock()
	b.state[key] = encodeAttribute(def, endpoint, value)
	payload, err := json.Marshal(b.state)
	b.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	token := b.client.Publish(b.cfg.TopicPrefix, 0, true, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	b.logger.Debug("attribute reported", "name", def.Name, "endpoint", endpoint, "value", value)
	return nil
}

// Leave implements Stack. Publishes a factory-reset event and drops the
// joined flag; the device stays unjoined until the next (re)connect.
func (b *Bridge) Leave() {
	payload, _ := json.Marshal(map[string]any{
		"event": "factory_reset",
		"time":  time.Now().UTC().Format(time.RFC3339),
	})
	token := b.client.Publish(b.cfg.TopicPrefix+"/event", 1, false, payload)
	token.WaitTimeout(5 * time.Second)
	if err := token.Error(); err != nil {
		b.logger.Warn("leave event publish failed", "err", err)
	}
	b.setJoined(false)
	b.logger.Info("left network")
}

// Close publishes offline availability and disconnects.
func (b *Bridge) Close() error {
	token := b.client.Publish(b.cfg.TopicPrefix+"/availability", 1, true, "offline")
	token.WaitTimeout(2 * time.Second)
	b.client.Disconnect(1000)
	return nil
}

func (b *Bridge) onConnect(client paho.Client) {
	b.logger.Info("broker connected", "broker", b.cfg.Broker)
	client.Publish(b.cfg.TopicPrefix+"/availability", 1, true, "online")

	topic := b.cfg.TopicPrefix + "/set"
	client.Subscribe(topic, 0, func(_ paho.Client, msg paho.Message) {
		b.handleSet(msg.Payload())
	})

	b.setJoined(true)
}

func (b *Bridge) onConnectionLost(err error) {
	b.logger.Warn("broker connection lost", "err", err)
	b.setJoined(false)
}

func (b *Bridge) setJoined(joined bool) {
	b.mu.Lock()
	changed := b.joined != joined
	b.joined = joined
	fn := b.onJoined
	b.mu.Unlock()

	if joined {
		metrics.Joined.Set(1)
	} else {
		metrics.Joined.Set(0)
	}
	if changed && fn != nil {
		fn(joined)
	}
}

// setPayload is the wire form of the .../set command topic.
type setPayload struct {
	State    string `json:"state,omitempty"`
	LED      string `json:"led,omitempty"`
	Identify int    `json:"identify,omitempty"`
}

func (b *Bridge) handleSet(payload []byte) {
	var p setPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		b.logger.Warn("bad set payload", "err", err)
		return
	}

	var cmd Command
	switch strings.ToUpper(p.State) {
	case "ON":
		v := true
		cmd.Relay = &v
	case "OFF":
		v := false
		cmd.Relay = &v
	case "TOGGLE":
		cmd.RelayToggle = true
	case "":
	default:
		b.logger.Warn("bad set state", "state", p.State)
		return
	}
	switch strings.ToUpper(p.LED) {
	case "ON":
		v := true
		cmd.LED = &v
	case "OFF":
		v := false
		cmd.LED = &v
	}
	cmd.IdentifySeconds = p.Identify

	b.mu.Lock()
	fn := b.onCommand
	b.mu.Unlock()
	if fn == nil {
		return
	}
	// Serialize command handling with everything else on the queue.
	b.sched.Schedule(func() { fn(cmd) })
}

// encodeAttribute converts a raw attribute value into the JSON form the
// state document uses.
func encodeAttribute(def *zcl.AttributeDef, endpoint uint8, value int16) any {
	switch {
	case def.Cluster == zcl.ClusterOnOff:
		if value != 0 {
			return "ON"
		}
		return "OFF"
	case def.Cluster == zcl.ClusterAnalogInput && def.ID == zcl.AttrAnalogPresentValue:
		// Present value is centivolts; publish volts.
		return float64(value) / 100
	case def.Cluster == zcl.ClusterPowerConfig && def.ID == zcl.AttrBatteryVoltage:
		// Decivolts to volts.
		return float64(value) / 10
	case def.Cluster == zcl.ClusterPowerConfig && def.ID == zcl.AttrBatteryPercentage:
		// Half-percent units to percent.
		return float64(value) / 2
	}
	return value
}
