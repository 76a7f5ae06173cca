package intent

// Vocabulary entries are upper-case and matched on whole tokens; entries with
// spaces match a run of consecutive tokens.

var greetingVocabulary = []string{
	"HELLO", "HI", "HEY", "SUP", "YO", "HIYA", "GREETINGS", "HOWDY",
	"GOOD MORNING", "GOOD AFTERNOON", "GOOD EVENING",
	// es
	"HOLA", "BUENAS", "BUENOS DÍAS", "BUENAS TARDES", "BUENAS NOCHES",
	// ru
	"ПРИВЕТ", "ЗДРАВСТВУЙТЕ", "ДОБРЫЙ ДЕНЬ", "САЛЮТ",
	// hi
	"NAMASTE", "नमस्ते", "नमस्कार",
}

var helpVocabulary = []string{
	"HELP", "COMMANDS", "CAPABILITIES", "SUPPORTED", "SUPPORT", "DO YOU SUPPORT",
	"PAIRS", "DATA SOURCES", "SOURCES", "WHAT CAN YOU DO",
	// es
	"AYUDA", "PARES", "QUÉ PUEDES HACER", "QUE PUEDES HACER",
	// ru
	"ПОМОЩЬ", "ПАРЫ", "ЧТО ТЫ УМЕЕШЬ", "ИСТОЧНИКИ",
	// hi
	"मदद", "सहायता",
}

// wordLikeTickers double as English words; a bare mention only counts when
// typed in upper case ("NEAR price", not "the near term").
var wordLikeTickers = map[string]bool{
	"NEAR": true, "TON": true, "OP": true, "UNI": true, "LINK": true,
	"DOT": true, "SUI": true, "ARB": true, "APT": true,
}

// actionVerbs make a bare ticker mention an instrument query.
var actionVerbs = []string{
	"ANALYZE", "ANALYSE", "ANALYSIS", "PRICE", "PRICES", "CHART", "LOOK", "CHECK",
	"QUOTE", "RATE", "TREND", "OUTLOOK",
	// es
	"ANALIZA", "ANALIZAR", "PRECIO", "GRÁFICO",
	// ru
	"АНАЛИЗ", "ЦЕНА", "КУРС", "ГРАФИК",
	// hi
	"कीमत", "विश्लेषण",
}

// bareSymbolQuotes are the quote assets recognised at the end of a bare
// run such as BTCUSDT.
var bareSymbolQuotes = []string{"USDT"}
