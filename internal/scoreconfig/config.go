package scoreconfig

// Config는 6개 Predictor와 Synthesizer/Classifier의 임계값 전체 설정
// ⭐ SSOT: 점수 산출 임계값은 여기서만 정의 (코어에 전역 상태 없음)
type Config struct {
	Meta             Meta             `yaml:"meta" json:"meta"`
	EPSDivergence    EPSDivergence    `yaml:"eps_divergence" json:"eps_divergence"`
	CreditDanger     CreditDanger     `yaml:"credit_danger" json:"credit_danger"`
	DividendFloor    DividendFloor    `yaml:"dividend_floor" json:"dividend_floor"`
	LiquidationFloor LiquidationFloor `yaml:"liquidation_floor" json:"liquidation_floor"`
	WhaleTracker     WhaleTracker     `yaml:"whale_tracker" json:"whale_tracker"`
	ChickenSurvivor  ChickenSurvivor  `yaml:"chicken_survivor" json:"chicken_survivor"`
	Synthesis        Synthesis        `yaml:"synthesis" json:"synthesis"`
	Classification   Classification   `yaml:"classification" json:"classification"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID    string `yaml:"config_id" json:"config_id" default:"prophet_default" validate:"required"`
	Version     string `yaml:"version" json:"version" default:"1"`
	Description string `yaml:"description" json:"description"`
}

// EPSDivergence: 적정가 대비 괴리 (0 ~ 30)
type EPSDivergence struct {
	FairPER            float64 `yaml:"fair_per" json:"fair_per" default:"12" validate:"gt=0"`
	FullScaleGap       float64 `yaml:"full_scale_gap" json:"full_scale_gap" default:"1.0" validate:"gt=0"`
	GrowthThresholdPct float64 `yaml:"growth_threshold_pct" json:"growth_threshold_pct" default:"5" validate:"gte=0"` // 패턴 라벨용
}

// CreditDanger: 신용잔고 과열 (-50 ~ 0)
type CreditDanger struct {
	FearBottomRatio float64 `yaml:"fear_bottom_ratio" json:"fear_bottom_ratio" default:"0.30" validate:"gte=0,lte=1"`
	SafeRatio       float64 `yaml:"safe_ratio" json:"safe_ratio" default:"0.70" validate:"gte=0,lte=1"`
	CriticalRatio   float64 `yaml:"critical_ratio" json:"critical_ratio" default:"0.90" validate:"gte=0,lte=1"`
	ChangeWeight    float64 `yaml:"change_weight" json:"change_weight" default:"1.0" validate:"gte=0"`
}

// DividendFloor: 배당수익률 하방 지지 (0 ~ 15)
type DividendFloor struct {
	FloorYieldPct   float64 `yaml:"floor_yield_pct" json:"floor_yield_pct" default:"2.0" validate:"gte=0"`
	CeilingYieldPct float64 `yaml:"ceiling_yield_pct" json:"ceiling_yield_pct" default:"5.0" validate:"gt=0"`
}

// LiquidationFloor: 반대매매 가격 근접도 (0 ~ 5)
type LiquidationFloor struct {
	Band float64 `yaml:"band" json:"band" default:"0.20" validate:"gt=0"`
}

// WhaleTracker: 연기금/외국인 연속 순매수 (0 ~ 15)
type WhaleTracker struct {
	Accounts           []string `yaml:"accounts" json:"accounts" default:"[\"foreign\",\"pension\"]" validate:"min=1,unique,dive,oneof=foreign pension institution"`
	LookbackDays       int      `yaml:"lookback_days" json:"lookback_days" default:"20" validate:"gte=1"`
	MinConsecutiveDays int      `yaml:"min_consecutive_days" json:"min_consecutive_days" default:"5" validate:"gte=1"`
	SaturationDays     int      `yaml:"saturation_days" json:"saturation_days" default:"10" validate:"gte=1"`
	MinNetBuy          float64  `yaml:"min_net_buy" json:"min_net_buy" default:"0"`
	AccountPoints      float64  `yaml:"account_points" json:"account_points" default:"10" validate:"gte=0"`
	LargeHoldingBonus  float64  `yaml:"large_holding_bonus" json:"large_holding_bonus" default:"5" validate:"gte=0"`
}

// ChickenSurvivor: 치킨게임 생존자 (0 ~ 10)
type ChickenSurvivor struct {
	ShakeoutStates  []string `yaml:"shakeout_states" json:"shakeout_states" default:"[\"consolidating\",\"survivor\"]" validate:"min=1,dive,required"`
	ShareSaturation float64  `yaml:"share_saturation" json:"share_saturation" default:"0.30" validate:"gt=0,lte=1"`
}

// Synthesis: 합산/클램프/거부권
type Synthesis struct {
	ClampMin      float64 `yaml:"clamp_min" json:"clamp_min" default:"-50"`
	ClampMax      float64 `yaml:"clamp_max" json:"clamp_max" default:"100"`
	VetoThreshold float64 `yaml:"veto_threshold" json:"veto_threshold" default:"-30"`
	VetoSentinel  float64 `yaml:"veto_sentinel" json:"veto_sentinel" default:"-100"`
}

// Classification: 등급 경계 (하한 포함)
type Classification struct {
	Imminent float64 `yaml:"imminent" json:"imminent" default:"80"`
	Likely   float64 `yaml:"likely" json:"likely" default:"60"`
	Watch    float64 `yaml:"watch" json:"watch" default:"40"`
}
