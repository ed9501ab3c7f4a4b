package contracts

// Ticker identifies a listed security (e.g. "005930").
type Ticker string

// String returns the ticker code
func (t Ticker) String() string {
	return string(t)
}

// Feature names
// ⭐ SSOT: Collector와 Predictor가 공유하는 피처 이름은 여기서만 정의
const (
	// Numbers
	FeaturePrice                   = "price"                     // 현재가
	FeatureTrailingEPS             = "eps_trailing"              // 최근 4분기 EPS
	FeatureForwardEPS              = "eps_forward"               // 컨센서스 EPS
	FeatureEPSGrowthPct            = "eps_growth_pct"            // EPS 증가율 (%)
	FeaturePriceChangePct          = "price_change_pct"          // 3개월 주가 변동률 (%)
	FeatureDividendYieldPct        = "dividend_yield_pct"        // 배당수익률 (%)
	FeatureMarginDebtRatio         = "margin_debt_ratio"         // 신용잔고 백분위 (0~1)
	FeatureMarginDebtChange        = "margin_debt_change"        // 신용잔고 변화율
	FeatureLiquidationTriggerPrice = "liquidation_trigger_price" // 담보 반대매매 가격
	FeatureLargeHoldingFilings     = "large_holding_filings"     // 대량보유 공시 건수
	FeatureIndustryConcentration   = "industry_concentration"    // 업종 집중도 (0~1)
	FeatureMarketShare             = "market_share"              // 시장 점유율 (0~1)

	// Labels
	FeatureIndustryState = "industry_state"

	// Series (oldest -> newest)
	FeatureNetBuyForeign     = "net_buy.foreign"
	FeatureNetBuyPension     = "net_buy.pension"
	FeatureNetBuyInstitution = "net_buy.institution"
)

// NetBuySeries returns the series feature name for an investor account
func NetBuySeries(account string) string {
	return "net_buy." + account
}
