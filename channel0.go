package amqp

import (
	"fmt"
	"time"

	"github.com/kestrelmq/amqp/internal/wire"
	"github.com/pkg/errors"
)

// channel0 is Component C4: the connection-handshake-only pseudo channel.
// Grounded on lifeibo-amqp's open/openStart/openTune/openVhost sequence
// (Connection.Start -> StartOk -> Tune -> TuneOk -> Open -> OpenOk), adapted
// to this client's single explicit state machine instead of that library's
// blocking call() helper, and to PLAIN SASL only (this client has no
// challenge/response support, matching aiorabbit's scope).
type channel0 struct {
	t *transport

	locale  string
	product string

	username string
	password string
	vhost    string

	channelMax        uint16
	frameMax          uint32
	heartbeatInterval time.Duration

	serverProperties   map[string]interface{}
	serverCapabilities map[string]interface{}
}

func newChannel0(t *transport, username, password, vhost, locale, product string) *channel0 {
	return &channel0{
		t:        t,
		locale:   locale,
		product:  product,
		username: username,
		password: password,
		vhost:    vhost,
	}
}

// handleStart processes the server's Connection.Start and answers with
// StartOk using PLAIN SASL, the \x00user\x00password response shape every
// AMQP broker accepts.
func (c0 *channel0) handleStart(m *wire.ConnectionStartMethod) error {
	c0.serverProperties = m.ServerProperties
	if caps, ok := m.ServerProperties["capabilities"].(map[string]interface{}); ok {
		c0.serverCapabilities = caps
	}

	response := fmt.Sprintf("\x00%s\x00%s", c0.username, c0.password)
	startOk := wire.ConnectionStartOkMethod{
		ClientProperties: map[string]interface{}{
			"product": c0.product,
			"platform": "Go",
			"capabilities": map[string]interface{}{
				"connection.blocked":      true,
				"publisher_confirms":      true,
				"consumer_cancel_notify":  true,
				"authentication_failure_close": true,
			},
		},
		Mechanism: "PLAIN",
		Response:  response,
		Locale:    c0.locale,
	}
	return c0.t.writeMethod(0, startOk)
}

// handleTune answers Connection.Tune with TuneOk, negotiating channel-max,
// frame-max and heartbeat by the same "client 0 or server 0 picks the max,
// otherwise pick the min" rule as lifeibo-amqp's pick().
func (c0 *channel0) handleTune(m *wire.ConnectionTuneMethod, requestedChannelMax uint16, requestedFrameMax uint32, requestedHeartbeat uint16) error {
	c0.channelMax = uint16(pick(int(requestedChannelMax), int(m.ChannelMax)))
	c0.frameMax = uint32(pick(int(requestedFrameMax), int(m.FrameMax)))
	heartbeat := pick(int(requestedHeartbeat), int(m.Heartbeat))
	c0.heartbeatInterval = time.Duration(heartbeat) * time.Second

	tuneOk := wire.ConnectionTuneOkMethod{
		ChannelMax: c0.channelMax,
		FrameMax:   c0.frameMax,
		Heartbeat:  uint16(heartbeat),
	}
	return c0.t.writeMethod(0, tuneOk)
}

func (c0 *channel0) sendOpen() error {
	return c0.t.writeMethod(0, wire.ConnectionOpenMethod{VirtualHost: c0.vhost})
}

func (c0 *channel0) sendClose(replyCode uint16, replyText string) error {
	return c0.t.writeMethod(0, wire.ConnectionCloseMethod{ReplyCode: replyCode, ReplyText: replyText})
}

func (c0 *channel0) sendCloseOk() error {
	return c0.t.writeMethod(0, wire.ConnectionCloseOkMethod{})
}

func (c0 *channel0) sendUpdateSecret(newSecret, reason string) error {
	return c0.t.writeMethod(0, wire.ConnectionUpdateSecretMethod{NewSecret: newSecret, Reason: reason})
}

// hasCapability reports whether the server advertised featureName (e.g.
// "publisher_confirms") in its Connection.Start properties table, the same
// check lifeibo-amqp's isCapable performs against Properties["capabilities"].
func (c0 *channel0) hasCapability(feature string) bool {
	if c0.serverCapabilities == nil {
		return false
	}
	v, _ := c0.serverCapabilities[feature].(bool)
	return v
}

// pick negotiates a tuning parameter: if either side proposes 0 (unbounded),
// the other side's value wins; otherwise the smaller of the two wins.
func pick(client, server int) int {
	if client == 0 || server == 0 {
		if client > server {
			return client
		}
		return server
	}
	if client > server {
		return server
	}
	return client
}

var errAuthFailure = errors.New("amqp: authentication failed")
