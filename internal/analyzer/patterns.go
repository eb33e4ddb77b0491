package analyzer

// PatternType identifies a farming topic recognized in a query.
type PatternType string

const (
	PatternWeather           PatternType = "weather"
	PatternMarketPrices      PatternType = "market_prices"
	PatternCropDisease       PatternType = "crop_disease"
	PatternSoilManagement    PatternType = "soil_management"
	PatternIrrigation        PatternType = "irrigation"
	PatternGovernmentSchemes PatternType = "government_schemes"
)

type topicPattern struct {
	Type     PatternType
	Keywords []string
	Tools    []string
}

// topicPatterns is evaluated in a fixed order so RequiredTools is
// deterministic for a given query.
var topicPatterns = []topicPattern{
	{
		Type:     PatternWeather,
		Keywords: []string{"weather", "rain", "temperature", "forecast", "humidity", "wind", "climate", "monsoon"},
		Tools:    []string{"weather_api"},
	},
	{
		Type:     PatternMarketPrices,
		Keywords: []string{"price", "market", "rate", "sell", "mandi", "cost", "profit", "demand"},
		Tools:    []string{"market_api", "price_trends"},
	},
	{
		Type:     PatternCropDisease,
		Keywords: []string{"disease", "pest", "infection", "fungus", "blight", "insect", "yellowing", "spots", "wilting"},
		Tools:    []string{"disease_db"},
	},
	{
		Type:     PatternSoilManagement,
		Keywords: []string{"soil", "fertilizer", "nutrient", "compost", "manure", "urea", "nitrogen", "ph"},
		Tools:    []string{"soil_db"},
	},
	{
		Type:     PatternIrrigation,
		Keywords: []string{"water", "irrigation", "drip", "sprinkler", "moisture", "drought"},
		Tools:    []string{"irrigation_guide", "weather_api"},
	},
	{
		Type:     PatternGovernmentSchemes,
		Keywords: []string{"scheme", "subsidy", "loan", "insurance", "kisan", "government", "credit"},
		Tools:    []string{"schemes_db"},
	},
}

// seasonKeywords maps query terms to the Indian cropping season they imply.
// Ordered so the first match wins deterministically.
var seasonKeywords = []struct {
	Keyword string
	Season  string
}{
	{"monsoon", "kharif"},
	{"kharif", "kharif"},
	{"rainy", "kharif"},
	{"winter", "rabi"},
	{"rabi", "rabi"},
	{"summer", "zaid"},
	{"zaid", "zaid"},
	{"harvest", "harvest"},
}

var urgentKeywords = []string{
	"urgent", "immediately", "emergency", "dying", "spreading", "asap", "quickly", "today",
}

// knownCrops drives contextual crop extraction from query text.
var knownCrops = []string{
	"rice", "wheat", "maize", "cotton", "sugarcane", "tomato", "potato", "onion",
	"soybean", "mustard", "bajra", "jowar", "groundnut", "chilli", "banana", "mango",
}
