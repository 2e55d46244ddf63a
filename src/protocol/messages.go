// Package protocol defines the JSON messages exchanged with WebSocket clients.
package protocol

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"quote-bridge/src/helpers"
	"quote-bridge/src/models"

	"github.com/segmentio/encoding/json"
	"github.com/shopspring/decimal"
)

// Client message types.
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypePing        = "ping"
)

// Server message types.
const (
	TypeStatus     = "status"
	TypeSubscribed = "subscribed"
	TypePong       = "pong"
	TypeQuote      = "quote"
)

// GreetingMessage is sent to every client right after the upgrade.
const GreetingMessage = "Connected to quote bridge"

// -----------------------------------------------------------------------------
// Inbound variants
// -----------------------------------------------------------------------------

// ClientMessage is one of Subscribe, Unsubscribe or Ping.
type ClientMessage interface {
	clientMessage()
}

type Subscribe struct {
	Contract models.MOptionContract
}

type Unsubscribe struct {
	Contract models.MOptionContract
}

type Ping struct{}

func (Subscribe) clientMessage()   {}
func (Unsubscribe) clientMessage() {}
func (Ping) clientMessage()        {}

type inbound struct {
	Type       string          `json:"type"`
	Expiration string          `json:"expiration"`
	Strike     json.RawMessage `json:"strike"`
	OptionType string          `json:"optionType"`
}

// ParseClientMessage decodes one text frame from a client.
// Malformed input yields a ProtocolError; a well-formed message with an
// unrecognized type yields an error wrapping helpers.ErrUnknownMessageType.
func ParseClientMessage(data []byte) (ClientMessage, error) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, helpers.NewProtocolError("invalid message from client", err)
	}

	switch msg.Type {
	case TypeSubscribe:
		c, err := msg.contract()
		if err != nil {
			return nil, err
		}
		return Subscribe{Contract: c}, nil
	case TypeUnsubscribe:
		c, err := msg.contract()
		if err != nil {
			return nil, err
		}
		return Unsubscribe{Contract: c}, nil
	case TypePing:
		return Ping{}, nil
	case "":
		return nil, helpers.NewProtocolError("message has no type", nil)
	default:
		return nil, fmt.Errorf("%w: %s", helpers.ErrUnknownMessageType, msg.Type)
	}
}

func (m inbound) contract() (models.MOptionContract, error) {
	exp, err := time.Parse(models.ExpirationLayout, m.Expiration)
	if err != nil {
		return models.MOptionContract{}, helpers.NewProtocolError(fmt.Sprintf("invalid expiration %q", m.Expiration), err)
	}

	strike, err := parseStrike(m.Strike)
	if err != nil {
		return models.MOptionContract{}, err
	}

	var typ models.OptionType
	switch models.OptionType(strings.ToUpper(m.OptionType)) {
	case models.OptionCall:
		typ = models.OptionCall
	case models.OptionPut:
		typ = models.OptionPut
	default:
		return models.MOptionContract{}, helpers.NewProtocolError(fmt.Sprintf("invalid optionType %q", m.OptionType), nil)
	}

	return models.MOptionContract{Expiration: exp, Strike: strike, OptionType: typ}, nil
}

// parseStrike accepts a JSON number or a numeric string.
func parseStrike(raw json.RawMessage) (decimal.Decimal, error) {
	s := string(bytes.Trim(bytes.TrimSpace(raw), `"`))
	if s == "" || s == "null" {
		return decimal.Decimal{}, helpers.NewProtocolError("missing strike", nil)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, helpers.NewProtocolError(fmt.Sprintf("invalid strike %q", s), err)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, helpers.NewProtocolError(fmt.Sprintf("strike must be positive, got %s", d), nil)
	}
	return d, nil
}

// -----------------------------------------------------------------------------
// Outbound encoders
// -----------------------------------------------------------------------------

type greeting struct {
	Type            string `json:"type"`
	Message         string `json:"message"`
	SourceConnected bool   `json:"sourceConnected"`
}

type subscribed struct {
	Type       string            `json:"type"`
	Symbol     string            `json:"symbol"`
	Expiration string            `json:"expiration"`
	Strike     json.Number       `json:"strike"`
	OptionType models.OptionType `json:"optionType"`
}

type pong struct {
	Type string `json:"type"`
}

// wireSample renders the strike as a bare JSON number.
type wireSample struct {
	models.MQuoteSample
	Strike json.Number `json:"strike"`
}

type quote struct {
	Type string     `json:"type"`
	Data wireSample `json:"data"`
}

func EncodeGreeting(sourceConnected bool) ([]byte, error) {
	return json.Marshal(greeting{Type: TypeStatus, Message: GreetingMessage, SourceConnected: sourceConnected})
}

func EncodeSubscribed(sub models.MSubscription) ([]byte, error) {
	return json.Marshal(subscribed{
		Type:       TypeSubscribed,
		Symbol:     sub.Symbol,
		Expiration: sub.Contract.ExpirationString(),
		Strike:     json.Number(sub.Contract.Strike.String()),
		OptionType: sub.Contract.OptionType,
	})
}

func EncodePong() ([]byte, error) {
	return json.Marshal(pong{Type: TypePong})
}

// EncodeQuote serializes a sample once for delivery to every client.
func EncodeQuote(sample models.MQuoteSample) ([]byte, error) {
	return json.Marshal(quote{
		Type: TypeQuote,
		Data: wireSample{MQuoteSample: sample, Strike: json.Number(sample.Strike.String())},
	})
}
