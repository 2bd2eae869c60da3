package announce

import (
	"github.com/shintopc/UPI-voice-alert/internal/model"
	"github.com/shopspring/decimal"
)

type voice struct {
	withPayer    func(payer, amount string) string
	withoutPayer func(amount string) string
	locale       string
	baseRate     float64
}

var voices = map[model.Language]voice{
	model.LanguageEnglish: {
		locale:       "en-IN",
		baseRate:     1.0,
		withPayer:    func(p, a string) string { return "Received ₹" + a + " from " + p },
		withoutPayer: func(a string) string { return "Received ₹" + a },
	},
	model.LanguageHindi: {
		locale:       "hi-IN",
		baseRate:     1.0,
		withPayer:    func(p, a string) string { return p + " se ₹" + a + " रुपये प्राप्त हुए" },
		withoutPayer: func(a string) string { return "₹" + a + " रुपये प्राप्त हुए" },
	},
	// Malayalam engines read "₹500" digit by digit; the amount is glued to
	// the currency word instead.
	model.LanguageMalayalam: {
		locale:       "ml-IN",
		baseRate:     0.85,
		withPayer:    func(p, a string) string { return p + " " + a + "രൂപ പേയ്‌മെന്റ് ചെയ്തിരിക്കുന്നു" },
		withoutPayer: func(a string) string { return a + "രൂപ പേയ്‌മെന്റ് ചെയ്തിരിക്കുന്നു" },
	},
	model.LanguageBengali: {
		locale:       "bn-IN",
		baseRate:     1.0,
		withPayer:    func(p, a string) string { return p + " ের থেকে ₹" + a + " প্রাপ্ত হয়েছে" },
		withoutPayer: func(a string) string { return "₹" + a + " প্রাপ্ত হয়েছে" },
	},
	model.LanguageGujarati: {
		locale:       "gu-IN",
		baseRate:     1.0,
		withPayer:    func(p, a string) string { return p + " તરફથી ₹" + a + " મળ્યા છે" },
		withoutPayer: func(a string) string { return "₹" + a + " મળ્યા છે" },
	},
	model.LanguageKannada: {
		locale:       "kn-IN",
		baseRate:     1.0,
		withPayer:    func(p, a string) string { return p + " ರವರಿಂದ ₹" + a + " ಸ್ವೀಕರಿಸಲಾಗಿದೆ" },
		withoutPayer: func(a string) string { return "₹" + a + " ಸ್ವೀಕರಿಸಲಾಗಿದೆ" },
	},
	model.LanguageMarathi: {
		locale:       "mr-IN",
		baseRate:     1.0,
		withPayer:    func(p, a string) string { return p + " कडून ₹" + a + " प्राप्त झाले" },
		withoutPayer: func(a string) string { return "₹" + a + " प्राप्त झाले" },
	},
	model.LanguageTamil: {
		locale:       "ta-IN",
		baseRate:     1.0,
		withPayer:    func(p, a string) string { return p + " இடமிருந்து ₹" + a + " பெறப்பட்டது" },
		withoutPayer: func(a string) string { return "₹" + a + " பெறப்பட்டது" },
	},
	model.LanguageTelugu: {
		locale:       "te-IN",
		baseRate:     1.0,
		withPayer:    func(p, a string) string { return p + " నుండి ₹" + a + " స్వీకరించబడింది" },
		withoutPayer: func(a string) string { return "₹" + a + " స్వీకరించబడింది" },
	},
	model.LanguageUrdu: {
		locale:       "ur-IN",
		baseRate:     1.0,
		withPayer:    func(p, a string) string { return p + " سے ₹" + a + " وصول ہوئے" },
		withoutPayer: func(a string) string { return "₹" + a + " وصول ہوئے" },
	},
}

func voiceFor(lang model.Language) voice {
	if v, ok := voices[lang]; ok {
		return v
	}
	return voices[model.LanguageEnglish]
}

// FormatAmount renders integral amounts without a fractional part and all
// others at full precision: 500 -> "500", 500.50 -> "500.5".
func FormatAmount(amount decimal.Decimal) string {
	if amount.IsInteger() {
		return amount.Truncate(0).String()
	}
	return amount.String()
}

// RenderMessage builds the spoken sentence for a payment. The payer is left
// out when it is empty or unknown.
func RenderMessage(lang model.Language, amount decimal.Decimal, payer string) string {
	v := voiceFor(lang)
	formatted := FormatAmount(amount)
	if payer == "" || payer == model.UnknownPayer {
		return v.withoutPayer(formatted)
	}
	return v.withPayer(payer, formatted)
}

// Locale returns the BCP 47 tag used to select a synthesis voice.
func Locale(lang model.Language) string {
	return voiceFor(lang).locale
}

// BaseRate is the per-language speech rate the user speed is multiplied by.
func BaseRate(lang model.Language) float64 {
	return voiceFor(lang).baseRate
}
