package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/chative-sei/agent/contract"
	nodex "github.com/tanpawarit/chative-sei/agent/nodes/orchestrator"
	statex "github.com/tanpawarit/chative-sei/agent/state"
	metricsx "github.com/tanpawarit/chative-sei/pkg/metrics"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

const (
	DefaultMaxToolRounds = 4
	DefaultHistoryWindow = 10
)

// Config is loaded with the AGENT prefix.
type Config struct {
	ChannelType   string `envconfig:"CHANNEL_TYPE" split_words:"true" default:"chat"`
	MaxToolRounds int    `envconfig:"MAX_TOOL_ROUNDS" split_words:"true" default:"4"`
	HistoryWindow int    `envconfig:"HISTORY_WINDOW" split_words:"true" default:"10"`
}

// Result is the outcome of one handled message.
type Result struct {
	Reply     string `json:"reply"`
	Route     string `json:"route"`
	ToolCalls int    `json:"tool_calls"`
}

type Orchestrator struct {
	store    statex.Store
	models   contractx.Registry
	tools    contractx.ToolGateway
	recorder *metricsx.Recorder

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	channelType   string
	maxToolRounds int
	historyWindow int

	now func() time.Time
}

type Option func(*Orchestrator)

func WithRecorder(r *metricsx.Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func New(
	store statex.Store,
	models contractx.Registry,
	tools contractx.ToolGateway,
	cfg Config,
	opts ...Option,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}

	channelType := strings.TrimSpace(cfg.ChannelType)
	if channelType == "" {
		channelType = "chat"
	}
	maxToolRounds := cfg.MaxToolRounds
	if maxToolRounds <= 0 {
		maxToolRounds = DefaultMaxToolRounds
	}
	historyWindow := cfg.HistoryWindow
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}

	o := &Orchestrator{
		store:         store,
		models:        models,
		tools:         tools,
		channelType:   channelType,
		maxToolRounds: maxToolRounds,
		historyWindow: historyWindow,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID string, text string) (string, error) {
	out, err := o.Handle(ctx, sessionID, "", text)
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}

// Handle answers one message of a session. An empty channelType uses the
// configured default.
func (o *Orchestrator) Handle(ctx context.Context, sessionID, channelType, text string) (Result, error) {
	started := o.now()
	channel := strings.TrimSpace(channelType)
	if channel == "" {
		channel = o.channelType
	}

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID:   sessionID,
		Text:        text,
		ChannelType: channel,
	})
	o.recorder.ObserveTurn(channel, err)
	if err != nil {
		log.Error().Err(err).
			Str("session_id", sessionID).
			Str("channel", channel).
			Msg("handle message failed")
		return Result{}, err
	}

	log.Info().
		Str("session_id", sessionID).
		Str("channel", channel).
		Str("route", out.Route).
		Int("tool_calls", out.ToolCalls).
		Dur("took", o.now().Sub(started)).
		Msg("message handled")

	return Result{
		Reply:     out.Reply,
		Route:     out.Route,
		ToolCalls: out.ToolCalls,
	}, nil
}

// Reset forgets a session's history.
func (o *Orchestrator) Reset(ctx context.Context, sessionID string) error {
	return o.store.Delete(ctx, sessionID)
}
