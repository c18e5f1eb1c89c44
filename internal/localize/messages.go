package localize

import (
	"github.com/jinzhu/copier"

	"sarthi/internal/domain"
	"sarthi/internal/language"
)

var fallbackMessages = map[language.Code]string{
	language.English:    "Sorry, I don't know the answer yet.",
	language.Hindi:      "क्षमा करें, मुझे अभी इसका उत्तर नहीं पता।",
	language.Marathi:    "माफ करा, मला अजून उत्तर माहिती नाही.",
	language.Gujarati:   "માફ કરશો, મને હજી જવાબ ખબર નથી.",
	language.Bengali:    "দুঃখিত, আমি এখনো উত্তর জানি না।",
	language.Tamil:      "மன்னிக்கவும், எனக்கு இதற்கு பதில் தெரியவில்லை.",
	language.Telugu:     "క్షమించండి, నాకు ఇంకా సమాధానం తెలియదు।",
	language.Kannada:    "ಕ್ಷಮಿಸಿ, ನನಗೆ ಇನ್ನೂ ಉತ್ತರ ತಿಳಿದಿಲ್ಲ।",
	language.Malayalam:  "ക്ഷമിക്കണം, എനിക്ക് ഇതുവരെ ഉത്തരമറിയില്ല।",
	language.Punjabi:    "ਮਾਫ਼ ਕਰਨਾ, ਮੈਨੂੰ ਹੁਣ ਤੱਕ ਜਵਾਬ ਨਹੀਂ ਪਤਾ।",
	language.Rajasthani: "माफ करना, मुझे अभी इसका उत्तर नहीं पता।",
}

// FallbackMessage returns the "no answer" text for lang, or the pivot one.
func FallbackMessage(lang language.Code) string {
	if msg, ok := fallbackMessages[lang]; ok {
		return msg
	}
	return fallbackMessages[language.Pivot]
}

var greetings = map[language.Code]string{
	language.English:    "Hi! I'm Campus Sarthi, your college assistant. How can I help you today?",
	language.Hindi:      "नमस्ते! मैं कैंपस सारथी हूँ, आपका कॉलेज सहायक। मैं आज आपकी किस प्रकार मदद कर सकता हूँ?",
	language.Marathi:    "नमस्कार! मी कॅम्पस सारथी, तुमचा कॉलेज सहाय्यक. मी आज तुम्हाला कशी मदत करू शकतो?",
	language.Gujarati:   "નમસ્તે! હું કેમ્પસ સારથી છું, તમારો કોલેજ સહાયક. આજે હું તમને કેવી રીતે મદદ કરી શકું?",
	language.Bengali:    "হ্যালো! আমি ক্যাম্পাস সারথি, আপনার কলেজ সহায়ক। আজ আমি কিভাবে আপনাকে সাহায্য করতে পারি?",
	language.Tamil:      "வணக்கம்! நான் காம்பஸ் சாரதி, உங்கள் கல்லூரி உதவியாளர். இன்று நான் உங்களுக்கு எப்படி உதவலாம்?",
	language.Telugu:     "హలో! నేను క్యాంపస్ సారథి, మీ కాలేజ్ సహాయకుడు. నేను ఈరోజు మీకు ఎలా సహాయం చేయగలను?",
	language.Kannada:    "ನಮಸ್ಕಾರ! ನಾನು ಕ್ಯಾಂಪಸ್ ಸಾರಥಿ, ನಿಮ್ಮ ಕಾಲೇಜು ಸಹಾಯಕ. ನಾನು ಇಂದು ನಿಮಗೆ ಹೇಗೆ ಸಹಾಯ ಮಾಡಬಹುದು?",
	language.Malayalam:  "ഹലോ! ഞാൻ ക്യാമ്പസ് സാരഥി, നിങ്ങളുടെ കോളേജ് സഹായി. ഇന്ന് ഞാൻ നിങ്ങളെ എങ്ങനെ സഹായിക്കാം?",
	language.Punjabi:    "ਸਤ ਸ੍ਰੀ ਅਕਾਲ! ਮੈਂ ਕੈਂਪਸ ਸਾਰਥੀ ਹਾਂ, ਤੁਹਾਡਾ ਕਾਲਜ ਸਹਾਇਕ। ਮੈਂ ਅੱਜ ਤੁਹਾਡੀ ਕਿਵੇਂ ਮਦਦ ਕਰ ਸਕਦਾ ਹਾਂ?",
	language.Rajasthani: "राम राम! मैं कैंपस सारथी हूँ, आपका कॉलेज सहायक। मैं आज आपकी किस प्रकार मदद कर सकता हूँ?",
}

const (
	payloadCampusMap = "campus map"
	payloadTimings   = "college timings"
	payloadContact   = "contact info"
)

func replies(campusMap, timings, contact string) []domain.QuickReply {
	return []domain.QuickReply{
		{Text: campusMap, Payload: payloadCampusMap},
		{Text: timings, Payload: payloadTimings},
		{Text: contact, Payload: payloadContact},
	}
}

var greetingReplies = map[language.Code][]domain.QuickReply{
	language.English:    replies("Show me campus map", "College timings", "Contact info"),
	language.Hindi:      replies("कैंपस का नक्शा दिखाएँ", "कॉलेज का समय", "संपर्क जानकारी"),
	language.Marathi:    replies("कॅम्पस नकाशा दाखवा", "कॉलेजचे वेळापत्रक", "संपर्क माहिती"),
	language.Gujarati:   replies("કેમ્પસ નકશો બતાવો", "કૉલેજના સમય", "સંપર્ક માહિતી"),
	language.Bengali:    replies("ক্যাম্পাস মানচিত্র দেখান", "কলেজ সময়সূচী", "যোগাযোগের তথ্য"),
	language.Tamil:      replies("கேம்பஸ் வரைபடத்தை காட்டவும்", "கல்லூரி நேரம்", "தொடர்பு தகவல்"),
	language.Telugu:     replies("క్యాంపస్ మ్యాప్ చూపించండి", "కళాశాల సమయాలు", "సంపర్క్ సమాచారం"),
	language.Kannada:    replies("ಕ್ಯಾಂಪಸ್ ನಕ್ಷೆ ತೋರಿಸಿ", "ಕಾಲೇಜ್ ಸಮಯಗಳು", "ಸಂಪರ್ಕ ಮಾಹಿತಿ"),
	language.Malayalam:  replies("ക്യാമ്പസ് മാപ്പ് കാണിക്കുക", "കോളേജ് സമയങ്ങൾ", "ബന്ധപ്പെടാനുള്ള വിവരങ്ങൾ"),
	language.Punjabi:    replies("ਕੈਂਪਸ ਦਾ ਨਕਸ਼ਾ ਦਿਖਾਓ", "ਕਾਲਜ ਸਮੇਂ", "ਸੰਪਰਕ ਜਾਣਕਾਰੀ"),
	language.Rajasthani: replies("कैंपस रो नक्शो देखावो", "कॉलेज रो टाइमिंग", "संपर्क जानकारी"),
}

// Greeting is the welcome message shown before the first question.
type Greeting struct {
	Answer           string              `json:"answer"`
	QuickReplies     []domain.QuickReply `json:"quick_replies"`
	SelectedLanguage language.Code       `json:"selected_language"`
	ThemeColor       string              `json:"theme_color"`
}

// Greet returns the greeting for a language tag. theme is echoed back untouched.
func Greet(tag, theme string) Greeting {
	lang, _ := language.Normalize(tag)
	if tag == "" {
		lang = language.Pivot
	}
	if theme == "" {
		theme = "default"
	}
	src := greetingReplies[lang]
	var qr []domain.QuickReply
	if err := copier.CopyWithOption(&qr, src, copier.Option{DeepCopy: true}); err != nil || qr == nil {
		qr = append([]domain.QuickReply{}, src...)
	}
	return Greeting{
		Answer:           greetings[lang],
		QuickReplies:     qr,
		SelectedLanguage: lang,
		ThemeColor:       theme,
	}
}
