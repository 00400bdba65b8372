package model

// EngagementBundle measures how actively viewers interact with the channel.
type EngagementBundle struct {
	CommentToViewRatio Metric         `json:"commentToViewRatio"`
	QuestionDensity    Metric         `json:"questionDensity"`
	ReplyDepthRatio    Metric         `json:"replyDepthRatio"`
	Sentiment          map[string]int `json:"sentimentDistribution"`
	RepeatAuthorRatio  Metric         `json:"repeatAuthorRatio"`
}

// LandscapeBundle describes what the channel already covers.
type LandscapeBundle struct {
	Topics          []Topic `json:"topics"`
	CoverageIndex   Metric  `json:"coverageIndex"`
	FormatDiversity int     `json:"formatDiversity"`
	Freshness       Metric  `json:"freshness"`
}

// DemandBundle carries mined viewer demand, ranked by severity.
type DemandBundle struct {
	PainPoints        []PainPoint       `json:"painPoints"`
	QuestionFrequency map[string]Metric `json:"questionFrequency"`
	RawComments       int               `json:"rawComments"`
	HighSignal        int               `json:"highSignalComments"`
}

// SatisfactionBundle estimates whether existing content answers its viewers.
type SatisfactionBundle struct {
	Index                 Metric `json:"satisfactionIndex"`
	EngagementQuality     Metric `json:"engagementQuality"`
	RetentionProxy        Metric `json:"retentionProxy"`
	ImplementationSuccess Metric `json:"implementationSuccess"`
	Clarity               Metric `json:"clarityScore"`
}

// SEOBundle scores titles and descriptions as search surfaces.
type SEOBundle struct {
	TitleEffectiveness Metric `json:"titleEffectiveness"`
	DescriptionQuality Metric `json:"descriptionQuality"`
}

// GrowthBundle captures upload cadence and format patterns.
type GrowthBundle struct {
	UploadConsistency   Metric `json:"uploadConsistency"`
	ConsistencyClass    string `json:"consistencyClass"`
	SeriesEffectiveness Metric `json:"seriesEffectiveness"`
	MultiFormat         bool   `json:"multiFormat"`
}

// TitleScore is the hook analysis of a single title.
type TitleScore struct {
	VideoID   string  `json:"videoId"`
	HookType  string  `json:"hookType"`
	HookScore float64 `json:"hookScore"`
	CTRBoost  float64 `json:"ctrBoost"`
	LengthFit float64 `json:"lengthFit"`
	Overall   Metric  `json:"overall"`
}

// TitleBundle is the CTR-proxy analysis of every title in the snapshot.
type TitleBundle struct {
	Titles       []TitleScore `json:"titles"`
	AverageScore Metric       `json:"averageScore"`
	HookBand     string       `json:"hookBand"`
}

// MetricSet is the fan-in of all seven independent scorers.
type MetricSet struct {
	Engagement   EngagementBundle   `json:"engagement"`
	Landscape    LandscapeBundle    `json:"contentLandscape"`
	Demand       DemandBundle       `json:"demandSignals"`
	Satisfaction SatisfactionBundle `json:"satisfaction"`
	SEO          SEOBundle          `json:"seoMetadata"`
	Growth       GrowthBundle       `json:"growthPatterns"`
	Titles       TitleBundle        `json:"titleHooks"`
}
