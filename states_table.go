package amqp

// State identifies a point in the connection's lifecycle. Values and the
// transition table below are a line-for-line port of aiorabbit/client.py's
// STATE_* constants, _STATE_MAP, _IDLE_STATE and _STATE_TRANSITIONS — the
// exact data this client's state manager (C1) validates every transition
// against.
type State uint16

const (
	StateUninitialized State = 0x00
	StateException     State = 0x01

	StateDisconnected              State = 0x11
	StateConnecting                State = 0x12
	StateConnected                 State = 0x13
	StateOpened                    State = 0x14
	StateUpdateSecretSent          State = 0x15
	StateUpdateSecretOkReceived    State = 0x16
	StateOpeningChannel            State = 0x17
	StateChannelOpenSent           State = 0x20
	StateChannelOpenOkReceived     State = 0x21
	StateChannelCloseReceived      State = 0x22
	StateChannelCloseSent          State = 0x23
	StateChannelCloseOkReceived    State = 0x24
	StateChannelCloseOkSent        State = 0x25
	StateChannelFlowReceived       State = 0x26
	StateChannelFlowOkSent         State = 0x27
	StateConfirmSelectSent         State = 0x30
	StateConfirmSelectOkReceived   State = 0x31
	StateExchangeBindSent          State = 0x40
	StateExchangeBindOkReceived    State = 0x41
	StateExchangeDeclareSent       State = 0x42
	StateExchangeDeclareOkReceived State = 0x43
	StateExchangeDeleteSent        State = 0x44
	StateExchangeDeleteOkReceived  State = 0x45
	StateExchangeUnbindSent        State = 0x46
	StateExchangeUnbindOkReceived  State = 0x47
	StateQueueBindSent             State = 0x50
	StateQueueBindOkReceived       State = 0x51
	StateQueueDeclareSent          State = 0x52
	StateQueueDeclareOkReceived    State = 0x53
	StateQueueDeleteSent           State = 0x54
	StateQueueDeleteOkReceived     State = 0x55
	StateQueuePurgeSent            State = 0x56
	StateQueuePurgeOkReceived      State = 0x57
	StateQueueUnbindSent           State = 0x58
	StateQueueUnbindOkReceived     State = 0x59
	StateTxSelectSent              State = 0x60
	StateTxSelectOkReceived        State = 0x61
	StateTxCommitSent              State = 0x62
	StateTxCommitOkReceived        State = 0x63
	StateTxRollbackSent            State = 0x64
	StateTxRollbackOkReceived      State = 0x65
	StateBasicAckReceived          State = 0x70
	StateBasicAckSent              State = 0x71
	StateBasicCancelReceived       State = 0x72
	StateBasicCancelSent           State = 0x73
	StateBasicCancelOkReceived     State = 0x74
	StateBasicCancelOkSent         State = 0x75
	StateBasicConsumeSent          State = 0x76
	StateBasicConsumeOkReceived    State = 0x77
	StateBasicDeliverReceived      State = 0x78
	StateContentHeaderReceived     State = 0x79
	StateContentBodyReceived       State = 0x80
	StateBasicGetSent              State = 0x81
	StateBasicGetEmptyReceived     State = 0x82
	StateBasicGetOkReceived        State = 0x83
	StateBasicNackReceived         State = 0x84
	StateBasicNackSent             State = 0x85
	StateBasicPublishSent          State = 0x86
	StateContentHeaderSent         State = 0x87
	StateContentBodySent           State = 0x88
	StateBasicQosSent              State = 0x89
	StateBasicQosOkReceived        State = 0x90
	StateBasicRecoverSent          State = 0x91
	StateBasicRecoverOkReceived    State = 0x92
	StateBasicRejectReceived       State = 0x93
	StateBasicRejectSent           State = 0x94
	StateBasicReturnReceived       State = 0x95
	StateMessageAssembled          State = 0x96
	StateClosing                   State = 0x100
	StateClosed                    State = 0x101
)

var stateNames = map[State]string{
	StateUninitialized:             "Uninitialized",
	StateException:                 "Exception Raised",
	StateDisconnected:              "Disconnected",
	StateConnecting:                "Connecting",
	StateConnected:                 "Connected",
	StateOpened:                    "Opened",
	StateUpdateSecretSent:          "Updating Secret",
	StateUpdateSecretOkReceived:    "Secret Updated",
	StateOpeningChannel:            "Opening Channel",
	StateChannelOpenSent:           "Channel Requested",
	StateChannelOpenOkReceived:     "Channel Open",
	StateChannelCloseReceived:      "Channel Close Received",
	StateChannelCloseSent:          "Channel Close Sent",
	StateChannelCloseOkReceived:    "Channel CloseOk Received",
	StateChannelCloseOkSent:        "Channel CloseOk Sent",
	StateChannelFlowReceived:       "Channel Flow Received",
	StateChannelFlowOkSent:         "Channel FlowOk Sent",
	StateConfirmSelectSent:         "Enabling Publisher Confirmations",
	StateConfirmSelectOkReceived:   "Publisher Confirmations Enabled",
	StateExchangeBindSent:          "Binding Exchange",
	StateExchangeBindOkReceived:    "Exchange Bound",
	StateExchangeDeclareSent:       "Declaring Exchange",
	StateExchangeDeclareOkReceived: "Exchange Declared",
	StateExchangeDeleteSent:        "Deleting Exchange",
	StateExchangeDeleteOkReceived:  "Exchange Deleted",
	StateExchangeUnbindSent:        "Unbinding Exchange",
	StateExchangeUnbindOkReceived:  "Exchange unbound",
	StateQueueBindSent:             "Binding Queue",
	StateQueueBindOkReceived:       "Queue Bound",
	StateQueueDeclareSent:          "Declaring Queue",
	StateQueueDeclareOkReceived:    "Queue Declared",
	StateQueueDeleteSent:           "Deleting Queue",
	StateQueueDeleteOkReceived:     "Queue Deleted",
	StateQueuePurgeSent:            "Purging Queue",
	StateQueuePurgeOkReceived:      "Queue Purged",
	StateQueueUnbindSent:           "Unbinding Queue",
	StateQueueUnbindOkReceived:     "Queue unbound",
	StateTxSelectSent:              "Starting Transaction",
	StateTxSelectOkReceived:        "Transaction started",
	StateTxCommitSent:              "Committing Transaction",
	StateTxCommitOkReceived:        "Transaction committed",
	StateTxRollbackSent:            "Aborting Transaction",
	StateTxRollbackOkReceived:      "Transaction aborted",
	StateBasicAckReceived:          "Received message acknowledgement",
	StateBasicAckSent:              "Sent message acknowledgement",
	StateBasicCancelReceived:       "Server canceled consumer",
	StateBasicCancelSent:           "Cancelling Consumer",
	StateBasicCancelOkReceived:     "Consumer cancelled",
	StateBasicCancelOkSent:         "Acknowledging cancelled consumer",
	StateBasicConsumeSent:          "Initiating consuming of messages",
	StateBasicConsumeOkReceived:    "Consuming of messages initiated",
	StateBasicDeliverReceived:      "Server delivered message",
	StateContentHeaderReceived:     "Received content header",
	StateContentBodyReceived:       "Received content body",
	StateBasicGetSent:              "Requesting individual message",
	StateBasicGetEmptyReceived:     "Message not available",
	StateBasicGetOkReceived:        "Individual message to be delivered",
	StateBasicNackReceived:         "Server sent negative acknowledgement",
	StateBasicNackSent:             "Sending negative acknowledgement",
	StateBasicPublishSent:          "Publishing Message",
	StateContentHeaderSent:         "Message Content Header sent",
	StateContentBodySent:           "Message Body sent",
	StateBasicQosSent:              "Setting QoS",
	StateBasicQosOkReceived:        "QoS set",
	StateBasicRecoverSent:          "Sending recover request",
	StateBasicRecoverOkReceived:    "Recover request received",
	StateBasicRejectReceived:       "Server rejected Message",
	StateBasicRejectSent:           "Sending Message rejection",
	StateBasicReturnReceived:       "Server returned message",
	StateMessageAssembled:          "Message assembled",
	StateClosing:                   "Closing",
	StateClosed:                    "Closed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// idleStates is the shared successor set of every quiescent state (one not
// waiting on a pending server reply): the request-sent states a new
// operation moves into, plus the server-initiated states that may arrive
// while the channel is otherwise idle.
var idleStates = []State{
	StateUpdateSecretSent,
	StateBasicCancelReceived,
	StateBasicCancelSent,
	StateChannelCloseReceived,
	StateChannelCloseSent,
	StateChannelFlowReceived,
	StateConfirmSelectSent,
	StateExchangeBindSent,
	StateExchangeDeclareSent,
	StateExchangeDeleteSent,
	StateExchangeUnbindSent,
	StateQueueBindSent,
	StateQueueDeclareSent,
	StateQueueDeleteSent,
	StateQueuePurgeSent,
	StateQueueUnbindSent,
	StateTxSelectSent,
	StateTxCommitSent,
	StateTxRollbackSent,
	StateBasicConsumeSent,
	StateBasicDeliverReceived,
	StateBasicGetSent,
	StateBasicPublishSent,
	StateBasicQosSent,
	StateBasicRecoverSent,
	StateClosing,
	StateClosed,
}

func withIdle(extra ...State) []State { return append(append([]State{}, idleStates...), extra...) }

// stateTransitions is the transition table: for each state, the set of
// states a _set_state call may legally move to from there. An attempt to
// move somewhere not listed here is an invalid transition (StateTransitionError).
var stateTransitions = map[State][]State{
	StateUninitialized: {StateDisconnected},
	StateException:     {StateClosing, StateClosed, StateDisconnected},

	StateDisconnected:   {StateConnecting},
	StateConnecting:     {StateConnected, StateClosed},
	StateConnected:      {StateOpened, StateClosed},
	StateOpened:         {StateOpeningChannel},
	StateOpeningChannel: {StateChannelOpenSent},

	StateUpdateSecretSent:       {StateUpdateSecretOkReceived},
	StateUpdateSecretOkReceived: idleStates,

	StateChannelOpenSent:       {StateChannelOpenOkReceived},
	StateChannelOpenOkReceived: idleStates,

	StateChannelCloseReceived:   {StateChannelCloseOkSent},
	StateChannelCloseSent:       {StateChannelCloseOkReceived},
	StateChannelCloseOkReceived: {StateOpeningChannel, StateClosing},
	StateChannelCloseOkSent:     {StateOpeningChannel},

	StateChannelFlowReceived: {StateChannelFlowOkSent},
	StateChannelFlowOkSent:   idleStates,

	StateConfirmSelectSent:       {StateConfirmSelectOkReceived},
	StateConfirmSelectOkReceived: idleStates,

	StateExchangeBindSent:          {StateChannelCloseReceived, StateExchangeBindOkReceived},
	StateExchangeBindOkReceived:    idleStates,
	StateExchangeDeclareSent:       {StateChannelCloseReceived, StateExchangeDeclareOkReceived},
	StateExchangeDeclareOkReceived: idleStates,
	StateExchangeDeleteSent:        {StateChannelCloseReceived, StateExchangeDeleteOkReceived},
	StateExchangeDeleteOkReceived:  idleStates,
	StateExchangeUnbindSent:        {StateChannelCloseReceived, StateExchangeUnbindOkReceived},
	StateExchangeUnbindOkReceived:  idleStates,

	StateQueueBindSent:          {StateChannelCloseReceived, StateQueueBindOkReceived},
	StateQueueBindOkReceived:    idleStates,
	StateQueueDeclareSent:       {StateChannelCloseReceived, StateQueueDeclareOkReceived},
	StateQueueDeclareOkReceived: idleStates,
	StateQueueDeleteSent:        {StateChannelCloseReceived, StateQueueDeleteOkReceived},
	StateQueueDeleteOkReceived:  idleStates,
	StateQueuePurgeSent:         {StateChannelCloseReceived, StateQueuePurgeOkReceived},
	StateQueuePurgeOkReceived:   idleStates,
	StateQueueUnbindSent:        {StateChannelCloseReceived, StateQueueUnbindOkReceived},
	StateQueueUnbindOkReceived:  idleStates,

	StateTxSelectSent:         {StateTxSelectOkReceived},
	StateTxSelectOkReceived:   withIdle(StateTxCommitSent, StateTxRollbackSent),
	StateTxCommitSent:         {StateTxCommitOkReceived},
	StateTxCommitOkReceived:   idleStates,
	StateTxRollbackSent:       {StateTxRollbackOkReceived},
	StateTxRollbackOkReceived: idleStates,

	StateBasicAckReceived:      idleStates,
	StateBasicAckSent:          idleStates,
	StateBasicCancelReceived:   idleStates,
	StateBasicCancelSent:       {StateBasicCancelOkReceived},
	StateBasicCancelOkReceived: idleStates,
	StateBasicCancelOkSent:     idleStates,

	StateBasicConsumeSent:       {StateChannelCloseReceived, StateBasicConsumeOkReceived},
	StateBasicConsumeOkReceived: idleStates,

	StateBasicDeliverReceived: {StateContentHeaderReceived},
	// StateMessageAssembled is reachable directly from here too: a
	// zero-length body completes the assembler on the content header alone,
	// with no content-body frame ever arriving to pass through
	// StateContentBodyReceived.
	StateContentHeaderReceived: {StateContentBodyReceived, StateMessageAssembled},
	StateContentBodyReceived:   {StateMessageAssembled},

	StateBasicGetSent:          {StateChannelCloseReceived, StateBasicGetEmptyReceived, StateBasicGetOkReceived},
	StateBasicGetEmptyReceived: idleStates,
	StateBasicGetOkReceived:    {StateContentHeaderReceived},

	StateBasicNackReceived: idleStates,
	StateBasicNackSent:     idleStates,

	StateBasicPublishSent:  {StateContentHeaderSent},
	StateContentHeaderSent: {StateContentBodySent},
	StateContentBodySent:   withIdle(
		StateBasicAckReceived,
		StateBasicNackReceived,
		StateBasicRejectReceived,
		StateBasicReturnReceived,
	),

	StateBasicQosSent:       {StateChannelCloseReceived, StateBasicQosOkReceived},
	StateBasicQosOkReceived: idleStates,

	StateBasicRecoverSent:       {StateBasicRecoverOkReceived},
	StateBasicRecoverOkReceived: idleStates,

	StateBasicRejectReceived: idleStates,
	StateBasicRejectSent:     idleStates,
	StateBasicReturnReceived: {StateContentHeaderReceived},

	StateMessageAssembled: withIdle(
		StateBasicAckReceived,
		StateBasicAckSent,
		StateBasicNackSent,
		StateBasicNackReceived,
		StateBasicRejectSent,
		StateBasicRejectReceived,
	),

	StateClosing: {StateClosed},
	StateClosed:  {StateConnecting},
}

func isIdleState(s State) bool {
	for _, idle := range idleStates {
		if idle == s {
			return true
		}
	}
	return false
}
