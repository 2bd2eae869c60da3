package announce

import (
	"github.com/shintopc/UPI-voice-alert/internal/model"
	"github.com/shopspring/decimal"
)

// Result is the terminal state of one announcement.
type Result string

// Announcement results.
const (
	ResultSpoken        Result = "spoken"
	ResultMuted         Result = "muted"
	ResultVoiceDisabled Result = "voice_disabled"
	ResultFailed        Result = "failed"
	ResultTimedOut      Result = "timed_out"
	ResultDropped       Result = "dropped"
)

// Request is one queued announcement: either a payment (Amount, PayerName)
// or a pre-formatted Message spoken verbatim.
type Request struct {
	// OnDone, when set, is called exactly once with the outcome after the
	// audio session has been released.
	OnDone     func(Result)
	Amount     decimal.Decimal
	PayerName  string
	Language   model.Language
	Message    string
	SpeechRate float64
}

// PaymentRequest builds a payment announcement.
func PaymentRequest(amount decimal.Decimal, payer string, lang model.Language, rate float64) Request {
	return Request{
		Amount:     amount,
		PayerName:  payer,
		Language:   lang,
		SpeechRate: rate,
	}
}

// MessageRequest builds an announcement that speaks text verbatim.
func MessageRequest(text string, lang model.Language, rate float64) Request {
	return Request{
		Message:    text,
		Language:   lang,
		SpeechRate: rate,
	}
}

// IsRaw reports whether the request carries a pre-formatted message.
func (r Request) IsRaw() bool {
	return r.Message != ""
}

// Text resolves the sentence to speak.
func (r Request) Text() string {
	if r.IsRaw() {
		return r.Message
	}
	return RenderMessage(r.Language, r.Amount, r.PayerName)
}

// Utterance resolves the text, voice and rate handed to the synthesizer.
func (r Request) Utterance() Utterance {
	rate := r.SpeechRate
	if rate <= 0 {
		rate = 1.0
	}
	return Utterance{
		Text:   r.Text(),
		Locale: Locale(r.Language),
		Rate:   BaseRate(r.Language) * rate,
	}
}
