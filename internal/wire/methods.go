package wire

import "time"

// Class and method IDs, the AMQP 0-9-1 method-table numbering. These are
// part of the protocol itself, not a design choice; verified against the
// streadway/amqp-derived connection handshakes in _examples/other_examples
// (chenggangschool-amqp, lifeibo-amqp).
const (
	ClassConnection = 10
	ClassChannel    = 20
	ClassExchange   = 40
	ClassQueue      = 50
	ClassBasic      = 60
	ClassTx         = 90
	ClassConfirm    = 85
)

const (
	ConnectionStart       = 10
	ConnectionStartOk     = 11
	ConnectionSecure      = 20
	ConnectionSecureOk    = 21
	ConnectionTune        = 30
	ConnectionTuneOk      = 31
	ConnectionOpen        = 40
	ConnectionOpenOk      = 41
	ConnectionClose       = 50
	ConnectionCloseOk     = 51
	ConnectionBlocked     = 60
	ConnectionUnblocked   = 61
	ConnectionUpdateSecret   = 70
	ConnectionUpdateSecretOk = 71
)

const (
	ChannelOpen    = 10
	ChannelOpenOk  = 11
	ChannelFlow    = 20
	ChannelFlowOk  = 21
	ChannelClose   = 40
	ChannelCloseOk = 41
)

const (
	ExchangeDeclare   = 10
	ExchangeDeclareOk = 11
	ExchangeDelete    = 20
	ExchangeDeleteOk  = 21
	ExchangeBind      = 30
	ExchangeBindOk    = 31
	ExchangeUnbind    = 40
	ExchangeUnbindOk  = 51
)

const (
	QueueDeclare   = 10
	QueueDeclareOk = 11
	QueueBind      = 20
	QueueBindOk    = 21
	QueuePurge     = 30
	QueuePurgeOk   = 31
	QueueDelete    = 40
	QueueDeleteOk  = 41
	QueueUnbind    = 50
	QueueUnbindOk  = 51
)

const (
	BasicQos          = 10
	BasicQosOk        = 11
	BasicConsume      = 20
	BasicConsumeOk    = 21
	BasicCancel       = 30
	BasicCancelOk     = 31
	BasicPublish      = 40
	BasicReturn       = 50
	BasicDeliver      = 60
	BasicGet          = 70
	BasicGetOk        = 71
	BasicGetEmpty     = 72
	BasicAck          = 80
	BasicReject       = 90
	BasicRecoverAsync = 100
	BasicRecover      = 110
	BasicRecoverOk    = 111
	BasicNack         = 120
)

const (
	TxSelect     = 10
	TxSelectOk   = 11
	TxCommit     = 20
	TxCommitOk   = 21
	TxRollback   = 30
	TxRollbackOk = 31
)

const (
	ConfirmSelect   = 10
	ConfirmSelectOk = 11
)

// Method is any decoded method-frame payload: class/method id plus its
// argument list, marshaled independently of the frame header/trailer that
// carries it on the wire.
type Method interface {
	ClassID() uint16
	MethodID() uint16
	Marshal() []byte
}

// --- Connection class -------------------------------------------------

type ConnectionStartMethod struct {
	VersionMajor     uint8
	VersionMinor     uint8
	ServerProperties map[string]interface{}
	Mechanisms       string
	Locales          string
}

func (ConnectionStartMethod) ClassID() uint16  { return ClassConnection }
func (ConnectionStartMethod) MethodID() uint16 { return ConnectionStart }
func (m ConnectionStartMethod) Marshal() []byte {
	w := NewWriter()
	w.Octet(m.VersionMajor)
	w.Octet(m.VersionMinor)
	w.Table(m.ServerProperties)
	w.Longstr(m.Mechanisms)
	w.Longstr(m.Locales)
	return w.Bytes()
}

func UnmarshalConnectionStart(r *Reader) (*ConnectionStartMethod, error) {
	m := &ConnectionStartMethod{}
	var err error
	if m.VersionMajor, err = r.Octet(); err != nil {
		return nil, err
	}
	if m.VersionMinor, err = r.Octet(); err != nil {
		return nil, err
	}
	if m.ServerProperties, err = r.Table(); err != nil {
		return nil, err
	}
	if m.Mechanisms, err = r.Longstr(); err != nil {
		return nil, err
	}
	if m.Locales, err = r.Longstr(); err != nil {
		return nil, err
	}
	return m, nil
}

type ConnectionStartOkMethod struct {
	ClientProperties map[string]interface{}
	Mechanism        string
	Response         string
	Locale           string
}

func (ConnectionStartOkMethod) ClassID() uint16  { return ClassConnection }
func (ConnectionStartOkMethod) MethodID() uint16 { return ConnectionStartOk }
func (m ConnectionStartOkMethod) Marshal() []byte {
	w := NewWriter()
	w.Table(m.ClientProperties)
	w.Shortstr(m.Mechanism)
	w.Longstr(m.Response)
	w.Shortstr(m.Locale)
	return w.Bytes()
}

type ConnectionTuneMethod struct {
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  uint16
}

func (ConnectionTuneMethod) ClassID() uint16  { return ClassConnection }
func (ConnectionTuneMethod) MethodID() uint16 { return ConnectionTune }
func (m ConnectionTuneMethod) Marshal() []byte {
	w := NewWriter()
	w.Short(m.ChannelMax)
	w.Long(m.FrameMax)
	w.Short(m.Heartbeat)
	return w.Bytes()
}

func UnmarshalConnectionTune(r *Reader) (*ConnectionTuneMethod, error) {
	m := &ConnectionTuneMethod{}
	var err error
	if m.ChannelMax, err = r.Short(); err != nil {
		return nil, err
	}
	if m.FrameMax, err = r.Long(); err != nil {
		return nil, err
	}
	if m.Heartbeat, err = r.Short(); err != nil {
		return nil, err
	}
	return m, nil
}

type ConnectionTuneOkMethod ConnectionTuneMethod

func (ConnectionTuneOkMethod) ClassID() uint16  { return ClassConnection }
func (ConnectionTuneOkMethod) MethodID() uint16 { return ConnectionTuneOk }
func (m ConnectionTuneOkMethod) Marshal() []byte {
	return ConnectionTuneMethod(m).Marshal()
}

type ConnectionOpenMethod struct {
	VirtualHost string
}

func (ConnectionOpenMethod) ClassID() uint16  { return ClassConnection }
func (ConnectionOpenMethod) MethodID() uint16 { return ConnectionOpen }
func (m ConnectionOpenMethod) Marshal() []byte {
	w := NewWriter()
	w.Shortstr(m.VirtualHost)
	w.Shortstr("") // reserved-1 (capabilities)
	w.Bit(false)   // reserved-2 (insist)
	return w.Bytes()
}

type ConnectionOpenOkMethod struct{}

func (ConnectionOpenOkMethod) ClassID() uint16   { return ClassConnection }
func (ConnectionOpenOkMethod) MethodID() uint16  { return ConnectionOpenOk }
func (ConnectionOpenOkMethod) Marshal() []byte {
	w := NewWriter()
	w.Shortstr("")
	return w.Bytes()
}

type ConnectionCloseMethod struct {
	ReplyCode uint16
	ReplyText string
	ClassId   uint16
	MethodId  uint16
}

func (ConnectionCloseMethod) ClassID() uint16  { return ClassConnection }
func (ConnectionCloseMethod) MethodID() uint16 { return ConnectionClose }
func (m ConnectionCloseMethod) Marshal() []byte {
	w := NewWriter()
	w.Short(m.ReplyCode)
	w.Shortstr(m.ReplyText)
	w.Short(m.ClassId)
	w.Short(m.MethodId)
	return w.Bytes()
}

func UnmarshalConnectionClose(r *Reader) (*ConnectionCloseMethod, error) {
	m := &ConnectionCloseMethod{}
	var err error
	if m.ReplyCode, err = r.Short(); err != nil {
		return nil, err
	}
	if m.ReplyText, err = r.Shortstr(); err != nil {
		return nil, err
	}
	if m.ClassId, err = r.Short(); err != nil {
		return nil, err
	}
	if m.MethodId, err = r.Short(); err != nil {
		return nil, err
	}
	return m, nil
}

type ConnectionCloseOkMethod struct{}

func (ConnectionCloseOkMethod) ClassID() uint16  { return ClassConnection }
func (ConnectionCloseOkMethod) MethodID() uint16 { return ConnectionCloseOk }
func (ConnectionCloseOkMethod) Marshal() []byte  { return nil }

type ConnectionUpdateSecretMethod struct {
	NewSecret string
	Reason    string
}

func (ConnectionUpdateSecretMethod) ClassID() uint16  { return ClassConnection }
func (ConnectionUpdateSecretMethod) MethodID() uint16 { return ConnectionUpdateSecret }
func (m ConnectionUpdateSecretMethod) Marshal() []byte {
	w := NewWriter()
	w.Longstr(m.NewSecret)
	w.Shortstr(m.Reason)
	return w.Bytes()
}

type ConnectionUpdateSecretOkMethod struct{}

func (ConnectionUpdateSecretOkMethod) ClassID() uint16  { return ClassConnection }
func (ConnectionUpdateSecretOkMethod) MethodID() uint16 { return ConnectionUpdateSecretOk }
func (ConnectionUpdateSecretOkMethod) Marshal() []byte  { return nil }

type ConnectionBlockedMethod struct{ Reason string }

func (ConnectionBlockedMethod) ClassID() uint16  { return ClassConnection }
func (ConnectionBlockedMethod) MethodID() uint16 { return ConnectionBlocked }
func (m ConnectionBlockedMethod) Marshal() []byte {
	w := NewWriter()
	w.Shortstr(m.Reason)
	return w.Bytes()
}

func UnmarshalConnectionBlocked(r *Reader) (*ConnectionBlockedMethod, error) {
	reason, err := r.Shortstr()
	if err != nil {
		return nil, err
	}
	return &ConnectionBlockedMethod{Reason: reason}, nil
}

type ConnectionUnblockedMethod struct{}

func (ConnectionUnblockedMethod) ClassID() uint16  { return ClassConnection }
func (ConnectionUnblockedMethod) MethodID() uint16 { return ConnectionUnblocked }
func (ConnectionUnblockedMethod) Marshal() []byte  { return nil }

// --- Channel class ------------------------------------------------------

type ChannelOpenMethod struct{}

func (ChannelOpenMethod) ClassID() uint16  { return ClassChannel }
func (ChannelOpenMethod) MethodID() uint16 { return ChannelOpen }
func (ChannelOpenMethod) Marshal() []byte {
	w := NewWriter()
	w.Shortstr("")
	return w.Bytes()
}

type ChannelOpenOkMethod struct{}

func (ChannelOpenOkMethod) ClassID() uint16  { return ClassChannel }
func (ChannelOpenOkMethod) MethodID() uint16 { return ChannelOpenOk }
func (ChannelOpenOkMethod) Marshal() []byte {
	w := NewWriter()
	w.Longstr("")
	return w.Bytes()
}

type ChannelCloseMethod ConnectionCloseMethod

func (ChannelCloseMethod) ClassID() uint16  { return ClassChannel }
func (ChannelCloseMethod) MethodID() uint16 { return ChannelClose }
func (m ChannelCloseMethod) Marshal() []byte {
	return ConnectionCloseMethod(m).Marshal()
}

func UnmarshalChannelClose(r *Reader) (*ChannelCloseMethod, error) {
	m, err := UnmarshalConnectionClose(r)
	if err != nil {
		return nil, err
	}
	cc := ChannelCloseMethod(*m)
	return &cc, nil
}

type ChannelCloseOkMethod struct{}

func (ChannelCloseOkMethod) ClassID() uint16  { return ClassChannel }
func (ChannelCloseOkMethod) MethodID() uint16 { return ChannelCloseOk }
func (ChannelCloseOkMethod) Marshal() []byte  { return nil }

type ChannelFlowMethod struct{ Active bool }

func (ChannelFlowMethod) ClassID() uint16  { return ClassChannel }
func (ChannelFlowMethod) MethodID() uint16 { return ChannelFlow }
func (m ChannelFlowMethod) Marshal() []byte {
	w := NewWriter()
	w.Bit(m.Active)
	return w.Bytes()
}

func UnmarshalChannelFlow(r *Reader) (*ChannelFlowMethod, error) {
	active, err := r.Bit()
	if err != nil {
		return nil, err
	}
	return &ChannelFlowMethod{Active: active}, nil
}

type ChannelFlowOkMethod struct{ Active bool }

func (ChannelFlowOkMethod) ClassID() uint16  { return ClassChannel }
func (ChannelFlowOkMethod) MethodID() uint16 { return ChannelFlowOk }
func (m ChannelFlowOkMethod) Marshal() []byte {
	w := NewWriter()
	w.Bit(m.Active)
	return w.Bytes()
}

// --- Exchange class -------------------------------------------------

type ExchangeDeclareMethod struct {
	Exchange   string
	Type       string
	Passive    bool
	Durable    bool
	AutoDelete bool
	Internal   bool
	NoWait     bool
	Arguments  map[string]interface{}
}

func (ExchangeDeclareMethod) ClassID() uint16  { return ClassExchange }
func (ExchangeDeclareMethod) MethodID() uint16 { return ExchangeDeclare }
func (m ExchangeDeclareMethod) Marshal() []byte {
	w := NewWriter()
	w.Short(0) // reserved ticket
	w.Shortstr(m.Exchange)
	w.Shortstr(m.Type)
	w.Bit(m.Passive)
	w.Bit(m.Durable)
	w.Bit(m.AutoDelete)
	w.Bit(m.Internal)
	w.Bit(m.NoWait)
	w.Table(m.Arguments)
	return w.Bytes()
}

type ExchangeDeclareOkMethod struct{}

func (ExchangeDeclareOkMethod) ClassID() uint16  { return ClassExchange }
func (ExchangeDeclareOkMethod) MethodID() uint16 { return ExchangeDeclareOk }
func (ExchangeDeclareOkMethod) Marshal() []byte  { return nil }

type ExchangeDeleteMethod struct {
	Exchange string
	IfUnused bool
	NoWait   bool
}

func (ExchangeDeleteMethod) ClassID() uint16  { return ClassExchange }
func (ExchangeDeleteMethod) MethodID() uint16 { return ExchangeDelete }
func (m ExchangeDeleteMethod) Marshal() []byte {
	w := NewWriter()
	w.Short(0)
	w.Shortstr(m.Exchange)
	w.Bit(m.IfUnused)
	w.Bit(m.NoWait)
	return w.Bytes()
}

type ExchangeDeleteOkMethod struct{}

func (ExchangeDeleteOkMethod) ClassID() uint16  { return ClassExchange }
func (ExchangeDeleteOkMethod) MethodID() uint16 { return ExchangeDeleteOk }
func (ExchangeDeleteOkMethod) Marshal() []byte  { return nil }

type ExchangeBindMethod struct {
	Destination string
	Source      string
	RoutingKey  string
	NoWait      bool
	Arguments   map[string]interface{}
}

func (ExchangeBindMethod) ClassID() uint16  { return ClassExchange }
func (ExchangeBindMethod) MethodID() uint16 { return ExchangeBind }
func (m ExchangeBindMethod) Marshal() []byte {
	w := NewWriter()
	w.Short(0)
	w.Shortstr(m.Destination)
	w.Shortstr(m.Source)
	w.Shortstr(m.RoutingKey)
	w.Bit(m.NoWait)
	w.Table(m.Arguments)
	return w.Bytes()
}

type ExchangeBindOkMethod struct{}

func (ExchangeBindOkMethod) ClassID() uint16  { return ClassExchange }
func (ExchangeBindOkMethod) MethodID() uint16 { return ExchangeBindOk }
func (ExchangeBindOkMethod) Marshal() []byte  { return nil }

type ExchangeUnbindMethod ExchangeBindMethod

func (ExchangeUnbindMethod) ClassID() uint16  { return ClassExchange }
func (ExchangeUnbindMethod) MethodID() uint16 { return ExchangeUnbind }
func (m ExchangeUnbindMethod) Marshal() []byte {
	return ExchangeBindMethod(m).Marshal()
}

type ExchangeUnbindOkMethod struct{}

func (ExchangeUnbindOkMethod) ClassID() uint16  { return ClassExchange }
func (ExchangeUnbindOkMethod) MethodID() uint16 { return ExchangeUnbindOk }
func (ExchangeUnbindOkMethod) Marshal() []byte  { return nil }

// --- Queue class ---------------------------------------------------

type QueueDeclareMethod struct {
	Queue      string
	Passive    bool
	Durable    bool
	Exclusive  bool
	AutoDelete bool
	NoWait     bool
	Arguments  map[string]interface{}
}

func (QueueDeclareMethod) ClassID() uint16  { return ClassQueue }
func (QueueDeclareMethod) MethodID() uint16 { return QueueDeclare }
func (m QueueDeclareMethod) Marshal() []byte {
	w := NewWriter()
	w.Short(0)
	w.Shortstr(m.Queue)
	w.Bit(m.Passive)
	w.Bit(m.Durable)
	w.Bit(m.Exclusive)
	w.Bit(m.AutoDelete)
	w.Bit(m.NoWait)
	w.Table(m.Arguments)
	return w.Bytes()
}

type QueueDeclareOkMethod struct {
	Queue         string
	MessageCount  uint32
	ConsumerCount uint32
}

func (QueueDeclareOkMethod) ClassID() uint16  { return ClassQueue }
func (QueueDeclareOkMethod) MethodID() uint16 { return QueueDeclareOk }
func (m QueueDeclareOkMethod) Marshal() []byte {
	w := NewWriter()
	w.Shortstr(m.Queue)
	w.Long(m.MessageCount)
	w.Long(m.ConsumerCount)
	return w.Bytes()
}

func UnmarshalQueueDeclareOk(r *Reader) (*QueueDeclareOkMethod, error) {
	m := &QueueDeclareOkMethod{}
	var err error
	if m.Queue, err = r.Shortstr(); err != nil {
		return nil, err
	}
	if m.MessageCount, err = r.Long(); err != nil {
		return nil, err
	}
	if m.ConsumerCount, err = r.Long(); err != nil {
		return nil, err
	}
	return m, nil
}

type QueueBindMethod struct {
	Queue      string
	Exchange   string
	RoutingKey string
	NoWait     bool
	Arguments  map[string]interface{}
}

func (QueueBindMethod) ClassID() uint16  { return ClassQueue }
func (QueueBindMethod) MethodID() uint16 { return QueueBind }
func (m QueueBindMethod) Marshal() []byte {
	w := NewWriter()
	w.Short(0)
	w.Shortstr(m.Queue)
	w.Shortstr(m.Exchange)
	w.Shortstr(m.RoutingKey)
	w.Bit(m.NoWait)
	w.Table(m.Arguments)
	return w.Bytes()
}

type QueueBindOkMethod struct{}

func (QueueBindOkMethod) ClassID() uint16  { return ClassQueue }
func (QueueBindOkMethod) MethodID() uint16 { return QueueBindOk }
func (QueueBindOkMethod) Marshal() []byte  { return nil }

type QueueUnbindMethod QueueBindMethod

func (QueueUnbindMethod) ClassID() uint16  { return ClassQueue }
func (QueueUnbindMethod) MethodID() uint16 { return QueueUnbind }
func (m QueueUnbindMethod) Marshal() []byte {
	w := NewWriter()
	w.Short(0)
	w.Shortstr(m.Queue)
	w.Shortstr(m.Exchange)
	w.Shortstr(m.RoutingKey)
	w.Table(m.Arguments)
	return w.Bytes()
}

type QueueUnbindOkMethod struct{}

func (QueueUnbindOkMethod) ClassID() uint16  { return ClassQueue }
func (QueueUnbindOkMethod) MethodID() uint16 { return QueueUnbindOk }
func (QueueUnbindOkMethod) Marshal() []byte  { return nil }

type QueuePurgeMethod struct {
	Queue  string
	NoWait bool
}

func (QueuePurgeMethod) ClassID() uint16  { return ClassQueue }
func (QueuePurgeMethod) MethodID() uint16 { return QueuePurge }
func (m QueuePurgeMethod) Marshal() []byte {
	w := NewWriter()
	w.Short(0)
	w.Shortstr(m.Queue)
	w.Bit(m.NoWait)
	return w.Bytes()
}

type QueuePurgeOkMethod struct{ MessageCount uint32 }

func (QueuePurgeOkMethod) ClassID() uint16  { return ClassQueue }
func (QueuePurgeOkMethod) MethodID() uint16 { return QueuePurgeOk }
func (m QueuePurgeOkMethod) Marshal() []byte {
	w := NewWriter()
	w.Long(m.MessageCount)
	return w.Bytes()
}

func UnmarshalQueuePurgeOk(r *Reader) (*QueuePurgeOkMethod, error) {
	n, err := r.Long()
	if err != nil {
		return nil, err
	}
	return &QueuePurgeOkMethod{MessageCount: n}, nil
}

type QueueDeleteMethod struct {
	Queue    string
	IfUnused bool
	IfEmpty  bool
	NoWait   bool
}

func (QueueDeleteMethod) ClassID() uint16  { return ClassQueue }
func (QueueDeleteMethod) MethodID() uint16 { return QueueDelete }
func (m QueueDeleteMethod) Marshal() []byte {
	w := NewWriter()
	w.Short(0)
	w.Shortstr(m.Queue)
	w.Bit(m.IfUnused)
	w.Bit(m.IfEmpty)
	w.Bit(m.NoWait)
	return w.Bytes()
}

type QueueDeleteOkMethod struct{ MessageCount uint32 }

func (QueueDeleteOkMethod) ClassID() uint16  { return ClassQueue }
func (QueueDeleteOkMethod) MethodID() uint16 { return QueueDeleteOk }
func (m QueueDeleteOkMethod) Marshal() []byte {
	w := NewWriter()
	w.Long(m.MessageCount)
	return w.Bytes()
}

func UnmarshalQueueDeleteOk(r *Reader) (*QueueDeleteOkMethod, error) {
	n, err := r.Long()
	if err != nil {
		return nil, err
	}
	return &QueueDeleteOkMethod{MessageCount: n}, nil
}

// --- Basic class ---------------------------------------------------

type BasicQosMethod struct {
	PrefetchSize  uint32
	PrefetchCount uint16
	Global        bool
}

func (BasicQosMethod) ClassID() uint16  { return ClassBasic }
func (BasicQosMethod) MethodID() uint16 { return BasicQos }
func (m BasicQosMethod) Marshal() []byte {
	w := NewWriter()
	w.Long(m.PrefetchSize)
	w.Short(m.PrefetchCount)
	w.Bit(m.Global)
	return w.Bytes()
}

type BasicQosOkMethod struct{}

func (BasicQosOkMethod) ClassID() uint16  { return ClassBasic }
func (BasicQosOkMethod) MethodID() uint16 { return BasicQosOk }
func (BasicQosOkMethod) Marshal() []byte  { return nil }

type BasicConsumeMethod struct {
	Queue       string
	ConsumerTag string
	NoLocal     bool
	NoAck       bool
	Exclusive   bool
	NoWait      bool
	Arguments   map[string]interface{}
}

func (BasicConsumeMethod) ClassID() uint16  { return ClassBasic }
func (BasicConsumeMethod) MethodID() uint16 { return BasicConsume }
func (m BasicConsumeMethod) Marshal() []byte {
	w := NewWriter()
	w.Short(0)
	w.Shortstr(m.Queue)
	w.Shortstr(m.ConsumerTag)
	w.Bit(m.NoLocal)
	w.Bit(m.NoAck)
	w.Bit(m.Exclusive)
	w.Bit(m.NoWait)
	w.Table(m.Arguments)
	return w.Bytes()
}

type BasicConsumeOkMethod struct{ ConsumerTag string }

func (BasicConsumeOkMethod) ClassID() uint16  { return ClassBasic }
func (BasicConsumeOkMethod) MethodID() uint16 { return BasicConsumeOk }
func (m BasicConsumeOkMethod) Marshal() []byte {
	w := NewWriter()
	w.Shortstr(m.ConsumerTag)
	return w.Bytes()
}

func UnmarshalBasicConsumeOk(r *Reader) (*BasicConsumeOkMethod, error) {
	tag, err := r.Shortstr()
	if err != nil {
		return nil, err
	}
	return &BasicConsumeOkMethod{ConsumerTag: tag}, nil
}

type BasicCancelMethod struct {
	ConsumerTag string
	NoWait      bool
}

func (BasicCancelMethod) ClassID() uint16  { return ClassBasic }
func (BasicCancelMethod) MethodID() uint16 { return BasicCancel }
func (m BasicCancelMethod) Marshal() []byte {
	w := NewWriter()
	w.Shortstr(m.ConsumerTag)
	w.Bit(m.NoWait)
	return w.Bytes()
}

type BasicCancelOkMethod struct{ ConsumerTag string }

func (BasicCancelOkMethod) ClassID() uint16  { return ClassBasic }
func (BasicCancelOkMethod) MethodID() uint16 { return BasicCancelOk }
func (m BasicCancelOkMethod) Marshal() []byte {
	w := NewWriter()
	w.Shortstr(m.ConsumerTag)
	return w.Bytes()
}

func UnmarshalBasicCancelOk(r *Reader) (*BasicCancelOkMethod, error) {
	tag, err := r.Shortstr()
	if err != nil {
		return nil, err
	}
	return &BasicCancelOkMethod{ConsumerTag: tag}, nil
}

type BasicPublishMethod struct {
	Exchange   string
	RoutingKey string
	Mandatory  bool
	Immediate  bool
}

func (BasicPublishMethod) ClassID() uint16  { return ClassBasic }
func (BasicPublishMethod) MethodID() uint16 { return BasicPublish }
func (m BasicPublishMethod) Marshal() []byte {
	w := NewWriter()
	w.Short(0)
	w.Shortstr(m.Exchange)
	w.Shortstr(m.RoutingKey)
	w.Bit(m.Mandatory)
	w.Bit(m.Immediate)
	return w.Bytes()
}

type BasicReturnMethod struct {
	ReplyCode  uint16
	ReplyText  string
	Exchange   string
	RoutingKey string
}

func (BasicReturnMethod) ClassID() uint16  { return ClassBasic }
func (BasicReturnMethod) MethodID() uint16 { return BasicReturn }
func (m BasicReturnMethod) Marshal() []byte {
	w := NewWriter()
	w.Short(m.ReplyCode)
	w.Shortstr(m.ReplyText)
	w.Shortstr(m.Exchange)
	w.Shortstr(m.RoutingKey)
	return w.Bytes()
}

func UnmarshalBasicReturn(r *Reader) (*BasicReturnMethod, error) {
	m := &BasicReturnMethod{}
	var err error
	if m.ReplyCode, err = r.Short(); err != nil {
		return nil, err
	}
	if m.ReplyText, err = r.Shortstr(); err != nil {
		return nil, err
	}
	if m.Exchange, err = r.Shortstr(); err != nil {
		return nil, err
	}
	if m.RoutingKey, err = r.Shortstr(); err != nil {
		return nil, err
	}
	return m, nil
}

type BasicDeliverMethod struct {
	ConsumerTag string
	DeliveryTag uint64
	Redelivered bool
	Exchange    string
	RoutingKey  string
}

func (BasicDeliverMethod) ClassID() uint16  { return ClassBasic }
func (BasicDeliverMethod) MethodID() uint16 { return BasicDeliver }
func (m BasicDeliverMethod) Marshal() []byte {
	w := NewWriter()
	w.Shortstr(m.ConsumerTag)
	w.Longlong(m.DeliveryTag)
	w.Bit(m.Redelivered)
	w.Shortstr(m.Exchange)
	w.Shortstr(m.RoutingKey)
	return w.Bytes()
}

func UnmarshalBasicDeliver(r *Reader) (*BasicDeliverMethod, error) {
	m := &BasicDeliverMethod{}
	var err error
	if m.ConsumerTag, err = r.Shortstr(); err != nil {
		return nil, err
	}
	if m.DeliveryTag, err = r.Longlong(); err != nil {
		return nil, err
	}
	if m.Redelivered, err = r.Bit(); err != nil {
		return nil, err
	}
	if m.Exchange, err = r.Shortstr(); err != nil {
		return nil, err
	}
	if m.RoutingKey, err = r.Shortstr(); err != nil {
		return nil, err
	}
	return m, nil
}

type BasicGetMethod struct {
	Queue  string
	NoAck  bool
}

func (BasicGetMethod) ClassID() uint16  { return ClassBasic }
func (BasicGetMethod) MethodID() uint16 { return BasicGet }
func (m BasicGetMethod) Marshal() []byte {
	w := NewWriter()
	w.Short(0)
	w.Shortstr(m.Queue)
	w.Bit(m.NoAck)
	return w.Bytes()
}

type BasicGetOkMethod struct {
	DeliveryTag  uint64
	Redelivered  bool
	Exchange     string
	RoutingKey   string
	MessageCount uint32
}

func (BasicGetOkMethod) ClassID() uint16  { return ClassBasic }
func (BasicGetOkMethod) MethodID() uint16 { return BasicGetOk }
func (m BasicGetOkMethod) Marshal() []byte {
	w := NewWriter()
	w.Longlong(m.DeliveryTag)
	w.Bit(m.Redelivered)
	w.Shortstr(m.Exchange)
	w.Shortstr(m.RoutingKey)
	w.Long(m.MessageCount)
	return w.Bytes()
}

func UnmarshalBasicGetOk(r *Reader) (*BasicGetOkMethod, error) {
	m := &BasicGetOkMethod{}
	var err error
	if m.DeliveryTag, err = r.Longlong(); err != nil {
		return nil, err
	}
	if m.Redelivered, err = r.Bit(); err != nil {
		return nil, err
	}
	if m.Exchange, err = r.Shortstr(); err != nil {
		return nil, err
	}
	if m.RoutingKey, err = r.Shortstr(); err != nil {
		return nil, err
	}
	if m.MessageCount, err = r.Long(); err != nil {
		return nil, err
	}
	return m, nil
}

type BasicGetEmptyMethod struct{}

func (BasicGetEmptyMethod) ClassID() uint16  { return ClassBasic }
func (BasicGetEmptyMethod) MethodID() uint16 { return BasicGetEmpty }
func (BasicGetEmptyMethod) Marshal() []byte {
	w := NewWriter()
	w.Shortstr("")
	return w.Bytes()
}

type BasicAckMethod struct {
	DeliveryTag uint64
	Multiple    bool
}

func (BasicAckMethod) ClassID() uint16  { return ClassBasic }
func (BasicAckMethod) MethodID() uint16 { return BasicAck }
func (m BasicAckMethod) Marshal() []byte {
	w := NewWriter()
	w.Longlong(m.DeliveryTag)
	w.Bit(m.Multiple)
	return w.Bytes()
}

func UnmarshalBasicAck(r *Reader) (*BasicAckMethod, error) {
	m := &BasicAckMethod{}
	var err error
	if m.DeliveryTag, err = r.Longlong(); err != nil {
		return nil, err
	}
	if m.Multiple, err = r.Bit(); err != nil {
		return nil, err
	}
	return m, nil
}

type BasicRejectMethod struct {
	DeliveryTag uint64
	Requeue     bool
}

func (BasicRejectMethod) ClassID() uint16  { return ClassBasic }
func (BasicRejectMethod) MethodID() uint16 { return BasicReject }
func (m BasicRejectMethod) Marshal() []byte {
	w := NewWriter()
	w.Longlong(m.DeliveryTag)
	w.Bit(m.Requeue)
	return w.Bytes()
}

type BasicNackMethod struct {
	DeliveryTag uint64
	Multiple    bool
	Requeue     bool
}

func (BasicNackMethod) ClassID() uint16  { return ClassBasic }
func (BasicNackMethod) MethodID() uint16 { return BasicNack }
func (m BasicNackMethod) Marshal() []byte {
	w := NewWriter()
	w.Longlong(m.DeliveryTag)
	w.Bit(m.Multiple)
	w.Bit(m.Requeue)
	return w.Bytes()
}

func UnmarshalBasicNack(r *Reader) (*BasicNackMethod, error) {
	m := &BasicNackMethod{}
	var err error
	if m.DeliveryTag, err = r.Longlong(); err != nil {
		return nil, err
	}
	if m.Multiple, err = r.Bit(); err != nil {
		return nil, err
	}
	if m.Requeue, err = r.Bit(); err != nil {
		return nil, err
	}
	return m, nil
}

type BasicRecoverAsyncMethod struct{ Requeue bool }

func (BasicRecoverAsyncMethod) ClassID() uint16  { return ClassBasic }
func (BasicRecoverAsyncMethod) MethodID() uint16 { return BasicRecoverAsync }
func (m BasicRecoverAsyncMethod) Marshal() []byte {
	w := NewWriter()
	w.Bit(m.Requeue)
	return w.Bytes()
}

type BasicRecoverMethod struct{ Requeue bool }

func (BasicRecoverMethod) ClassID() uint16  { return ClassBasic }
func (BasicRecoverMethod) MethodID() uint16 { return BasicRecover }
func (m BasicRecoverMethod) Marshal() []byte {
	w := NewWriter()
	w.Bit(m.Requeue)
	return w.Bytes()
}

type BasicRecoverOkMethod struct{}

func (BasicRecoverOkMethod) ClassID() uint16  { return ClassBasic }
func (BasicRecoverOkMethod) MethodID() uint16 { return BasicRecoverOk }
func (BasicRecoverOkMethod) Marshal() []byte  { return nil }

// --- Tx class --------------------------------------------------------

type TxSelectMethod struct{}

func (TxSelectMethod) ClassID() uint16  { return ClassTx }
func (TxSelectMethod) MethodID() uint16 { return TxSelect }
func (TxSelectMethod) Marshal() []byte  { return nil }

type TxSelectOkMethod struct{}

func (TxSelectOkMethod) ClassID() uint16  { return ClassTx }
func (TxSelectOkMethod) MethodID() uint16 { return TxSelectOk }
func (TxSelectOkMethod) Marshal() []byte  { return nil }

type TxCommitMethod struct{}

func (TxCommitMethod) ClassID() uint16  { return ClassTx }
func (TxCommitMethod) MethodID() uint16 { return TxCommit }
func (TxCommitMethod) Marshal() []byte  { return nil }

type TxCommitOkMethod struct{}

func (TxCommitOkMethod) ClassID() uint16  { return ClassTx }
func (TxCommitOkMethod) MethodID() uint16 { return TxCommitOk }
func (TxCommitOkMethod) Marshal() []byte  { return nil }

type TxRollbackMethod struct{}

func (TxRollbackMethod) ClassID() uint16  { return ClassTx }
func (TxRollbackMethod) MethodID() uint16 { return TxRollback }
func (TxRollbackMethod) Marshal() []byte  { return nil }

type TxRollbackOkMethod struct{}

func (TxRollbackOkMethod) ClassID() uint16  { return ClassTx }
func (TxRollbackOkMethod) MethodID() uint16 { return TxRollbackOk }
func (TxRollbackOkMethod) Marshal() []byte  { return nil }

// --- Confirm class -----------------------------------------------------

type ConfirmSelectMethod struct{ NoWait bool }

func (ConfirmSelectMethod) ClassID() uint16  { return ClassConfirm }
func (ConfirmSelectMethod) MethodID() uint16 { return ConfirmSelect }
func (m ConfirmSelectMethod) Marshal() []byte {
	w := NewWriter()
	w.Bit(m.NoWait)
	return w.Bytes()
}

type ConfirmSelectOkMethod struct{}

func (ConfirmSelectOkMethod) ClassID() uint16  { return ClassConfirm }
func (ConfirmSelectOkMethod) MethodID() uint16 { return ConfirmSelectOk }
func (ConfirmSelectOkMethod) Marshal() []byte  { return nil }

// --- Content header/body, and method header (class/method dispatch) ----

// MethodHeader is the 4-byte class-id/method-id pair every method frame's
// payload starts with, read before the argument list can be decoded.
type MethodHeader struct {
	ClassID  uint16
	MethodID uint16
}

func UnmarshalMethodHeader(r *Reader) (*MethodHeader, error) {
	h := &MethodHeader{}
	var err error
	if h.ClassID, err = r.Short(); err != nil {
		return nil, err
	}
	if h.MethodID, err = r.Short(); err != nil {
		return nil, err
	}
	return h, nil
}

// MarshalMethod wraps a Method's argument list with its class/method header.
func MarshalMethod(m Method) []byte {
	w := NewWriter()
	w.Short(m.ClassID())
	w.Short(m.MethodID())
	w.buf = append(w.buf, m.Marshal()...)
	return w.Bytes()
}

// ContentHeader is the frame that follows Basic.Publish/Deliver/Return/GetOk,
// carrying the message's total body size and its per-message properties.
type ContentHeader struct {
	ClassID       uint16
	Weight        uint16
	BodySize      uint64
	ContentType   string
	ContentEnc    string
	Headers       map[string]interface{}
	DeliveryMode  uint8
	Priority      uint8
	CorrelationID string
	ReplyTo       string
	Expiration    string
	MessageID     string
	Timestamp     time.Time
	Type          string
	UserID        string
	AppID         string
	HasContentType   bool
	HasContentEnc    bool
	HasHeaders       bool
	HasDeliveryMode  bool
	HasPriority      bool
	HasCorrelationID bool
	HasReplyTo       bool
	HasExpiration    bool
	HasMessageID     bool
	HasTimestamp     bool
	HasType          bool
	HasUserID        bool
	HasAppID         bool
}

// property flag bits, basic-class property list, most-significant-bit-first
// ordering per the protocol (content-type is bit 15).
const (
	flagContentType   = 1 << 15
	flagContentEnc    = 1 << 14
	flagHeaders       = 1 << 13
	flagDeliveryMode  = 1 << 12
	flagPriority      = 1 << 11
	flagCorrelationID = 1 << 10
	flagReplyTo       = 1 << 9
	flagExpiration    = 1 << 8
	flagMessageID     = 1 << 7
	flagTimestamp     = 1 << 6
	flagType          = 1 << 5
	flagUserID        = 1 << 4
	flagAppID         = 1 << 3
)

func (h *ContentHeader) Marshal() []byte {
	w := NewWriter()
	w.Short(h.ClassID)
	w.Short(h.Weight)
	w.Longlong(h.BodySize)

	var flags uint16
	if h.HasContentType {
		flags |= flagContentType
	}
	if h.HasContentEnc {
		flags |= flagContentEnc
	}
	if h.HasHeaders {
		flags |= flagHeaders
	}
	if h.HasDeliveryMode {
		flags |= flagDeliveryMode
	}
	if h.HasPriority {
		flags |= flagPriority
	}
	if h.HasCorrelationID {
		flags |= flagCorrelationID
	}
	if h.HasReplyTo {
		flags |= flagReplyTo
	}
	if h.HasExpiration {
		flags |= flagExpiration
	}
	if h.HasMessageID {
		flags |= flagMessageID
	}
	if h.HasTimestamp {
		flags |= flagTimestamp
	}
	if h.HasType {
		flags |= flagType
	}
	if h.HasUserID {
		flags |= flagUserID
	}
	if h.HasAppID {
		flags |= flagAppID
	}
	w.Short(flags)

	if h.HasContentType {
		w.Shortstr(h.ContentType)
	}
	if h.HasContentEnc {
		w.Shortstr(h.ContentEnc)
	}
	if h.HasHeaders {
		w.Table(h.Headers)
	}
	if h.HasDeliveryMode {
		w.Octet(h.DeliveryMode)
	}
	if h.HasPriority {
		w.Octet(h.Priority)
	}
	if h.HasCorrelationID {
		w.Shortstr(h.CorrelationID)
	}
	if h.HasReplyTo {
		w.Shortstr(h.ReplyTo)
	}
	if h.HasExpiration {
		w.Shortstr(h.Expiration)
	}
	if h.HasMessageID {
		w.Shortstr(h.MessageID)
	}
	if h.HasTimestamp {
		w.Timestamp(h.Timestamp)
	}
	if h.HasType {
		w.Shortstr(h.Type)
	}
	if h.HasUserID {
		w.Shortstr(h.UserID)
	}
	if h.HasAppID {
		w.Shortstr(h.AppID)
	}
	return w.Bytes()
}

func UnmarshalContentHeader(r *Reader) (*ContentHeader, error) {
	h := &ContentHeader{}
	var err error
	if h.ClassID, err = r.Short(); err != nil {
		return nil, err
	}
	if h.Weight, err = r.Short(); err != nil {
		return nil, err
	}
	if h.BodySize, err = r.Longlong(); err != nil {
		return nil, err
	}
	flags, err := r.Short()
	if err != nil {
		return nil, err
	}
	if h.HasContentType = flags&flagContentType != 0; h.HasContentType {
		if h.ContentType, err = r.Shortstr(); err != nil {
			return nil, err
		}
	}
	if h.HasContentEnc = flags&flagContentEnc != 0; h.HasContentEnc {
		if h.ContentEnc, err = r.Shortstr(); err != nil {
			return nil, err
		}
	}
	if h.HasHeaders = flags&flagHeaders != 0; h.HasHeaders {
		if h.Headers, err = r.Table(); err != nil {
			return nil, err
		}
	}
	if h.HasDeliveryMode = flags&flagDeliveryMode != 0; h.HasDeliveryMode {
		if h.DeliveryMode, err = r.Octet(); err != nil {
			return nil, err
		}
	}
	if h.HasPriority = flags&flagPriority != 0; h.HasPriority {
		if h.Priority, err = r.Octet(); err != nil {
			return nil, err
		}
	}
	if h.HasCorrelationID = flags&flagCorrelationID != 0; h.HasCorrelationID {
		if h.CorrelationID, err = r.Shortstr(); err != nil {
			return nil, err
		}
	}
	if h.HasReplyTo = flags&flagReplyTo != 0; h.HasReplyTo {
		if h.ReplyTo, err = r.Shortstr(); err != nil {
			return nil, err
		}
	}
	if h.HasExpiration = flags&flagExpiration != 0; h.HasExpiration {
		if h.Expiration, err = r.Shortstr(); err != nil {
			return nil, err
		}
	}
	if h.HasMessageID = flags&flagMessageID != 0; h.HasMessageID {
		if h.MessageID, err = r.Shortstr(); err != nil {
			return nil, err
		}
	}
	if h.HasTimestamp = flags&flagTimestamp != 0; h.HasTimestamp {
		if h.Timestamp, err = r.Timestamp(); err != nil {
			return nil, err
		}
	}
	if h.HasType = flags&flagType != 0; h.HasType {
		if h.Type, err = r.Shortstr(); err != nil {
			return nil, err
		}
	}
	if h.HasUserID = flags&flagUserID != 0; h.HasUserID {
		if h.UserID, err = r.Shortstr(); err != nil {
			return nil, err
		}
	}
	if h.HasAppID = flags&flagAppID != 0; h.HasAppID {
		if h.AppID, err = r.Shortstr(); err != nil {
			return nil, err
		}
	}
	return h, nil
}
