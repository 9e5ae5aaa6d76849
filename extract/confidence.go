package extract

// Confidences holds the confidence assigned by each extraction stage.
type Confidences struct {
	NameWithTime   float64
	Conversational float64
	Hashtag        float64
	Tagger         float64
	Email          float64
	Money          float64
	GivenName      float64
}

// DefaultConfidences returns the stock confidence values.
func DefaultConfidences() Confidences {
	return Confidences{
		NameWithTime:   0.9,
		Conversational: 0.95,
		Hashtag:        0.8,
		Tagger:         1.0,
		Email:          1.0,
		Money:          1.0,
		GivenName:      0.85,
	}
}
