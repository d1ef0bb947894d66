package controller

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/bittoy/fieldrule/types"
)

// MQTTOptions configures an MQTTController's broker connection and topic
// layout, bound from types.Configuration the same way a source class binds
// its own options (SPEC_FULL §3.2).
type MQTTOptions struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"clientId"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// TopicPrefix is prepended to a source's key to form its subscribe/
	// publish topic: "<prefix>/<key>".
	TopicPrefix string `mapstructure:"topicPrefix"`
	// QoS is applied to both subscriptions and publishes.
	QoS byte `mapstructure:"qos"`
}

// MQTTController adapts a paho.mqtt.golang client to the Controller
// contract: subscribed topics feed UpdateSourceInstanceValue as external
// datachanges, and WRITE_SOURCE (handled by BaseController) additionally
// publishes the new value back to the broker so the field device sees the
// rule-originated write.
type MQTTController struct {
	*BaseController
	client mqtt.Client
	opts   MQTTOptions
}

// NewMQTTController builds (but does not yet connect) a paho client for
// opts.Broker. Connection happens in Run, matching the teacher's pattern of
// deferring network I/O to the component's own goroutine rather than its
// constructor.
func NewMQTTController(name string, cfg types.Config, copts Options, opts MQTTOptions) *MQTTController {
	c := &MQTTController{
		BaseController: NewBaseController(name, cfg, copts),
		opts:           opts,
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true)
	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}
	clientOpts.SetDefaultPublishHandler(c.onMessage)
	c.client = mqtt.NewClient(clientOpts)
	return c
}

func (c *MQTTController) topic(key string) string {
	if c.opts.TopicPrefix == "" {
		return key
	}
	return c.opts.TopicPrefix + "/" + key
}

// onMessage is the paho subscription callback. It runs on paho's own
// goroutine and applies the update synchronously with context.Background(),
// so a full rule queue blocks this callback until space frees up.
func (c *MQTTController) onMessage(_ mqtt.Client, msg mqtt.Message) {
	key := msg.Topic()
	if c.opts.TopicPrefix != "" && len(key) > len(c.opts.TopicPrefix)+1 {
		key = key[len(c.opts.TopicPrefix)+1:]
	}
	s, ok := c.Source(key)
	if !ok {
		return
	}
	if _, err := c.UpdateSourceInstanceValue(context.Background(), s, string(msg.Payload()), time.Now().UTC(), true, OriginExternal); err != nil {
		if c.Logger() != nil {
			c.Logger().Printf("mqtt controller %s: update %s: %v", c.Name(), key, err)
		}
	}
}

// publish sends s's current value to its topic.
func (c *MQTTController) publish(s types.Source) error {
	token := c.client.Publish(c.topic(s.Key()), c.opts.QoS, false, fmt.Sprintf("%v", s.Value()))
	token.Wait()
	return token.Error()
}

// subscribe subscribes to s's topic. Called from the AfterAddSource hook, so
// it only ever runs for a source the controller has just adopted.
func (c *MQTTController) subscribe(s types.Source) error {
	token := c.client.Subscribe(c.topic(s.Key()), c.opts.QoS, nil)
	token.Wait()
	return token.Error()
}

// Run connects to the broker and services the incoming bus queue until ctx
// is canceled, disconnecting on return -- the same "connect, loop, disconnect
// on interrupt" shape the teacher's blocking network components use. Each
// adopted source's topic is subscribed as it is adopted (AfterAddSource),
// since ADD_SOURCE messages only arrive after Run starts servicing the
// incoming queue -- there is nothing to subscribe to beforehand.
func (c *MQTTController) Run(ctx context.Context) error {
	token := c.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return types.NewProtocolError(c.Name(), err)
	}
	defer c.client.Disconnect(250)

	return c.BaseController.Run(ctx, Hooks{
		HandleRead:     c.handleRead,
		AfterWrite:     func(_ context.Context, s types.Source) error { return c.publish(s) },
		AfterAddSource: func(_ context.Context, s types.Source) error { return c.subscribe(s) },
	})
}

// handleRead answers READ_SOURCE/READ_ALL by republishing current values,
// the MQTT analogue of a protocol poll.
func (c *MQTTController) handleRead(_ context.Context, msg types.Message) error {
	switch p := msg.Payload.(type) {
	case types.ReadSourcePayload:
		return c.publish(p.Source)
	default:
		for _, s := range c.Sources() {
			if err := c.publish(s); err != nil {
				return err
			}
		}
		return nil
	}
}

var _ types.Controller = (*MQTTController)(nil)
