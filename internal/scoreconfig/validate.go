package scoreconfig

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Fixed predictor ranges the thresholds are checked against
const (
	CreditMin = -50.0
	CreditMax = 0.0

	// 6개 Predictor 최대값 합 (30 + 0 + 15 + 5 + 15 + 10)
	MaxAttainableTotal = 75.0
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// 에러 필드명을 YAML 키로 표시
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (어떤 점수 계산보다 먼저 호출)
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fromValidator(err)
	}

	// === Credit Danger ===
	c := cfg.CreditDanger
	if !(c.FearBottomRatio < c.SafeRatio && c.SafeRatio < c.CriticalRatio) {
		return ValidationError{"credit_danger", "must satisfy fear_bottom_ratio < safe_ratio < critical_ratio"}
	}

	// === Dividend Floor ===
	if cfg.DividendFloor.FloorYieldPct >= cfg.DividendFloor.CeilingYieldPct {
		return ValidationError{"dividend_floor", "floor_yield_pct must be < ceiling_yield_pct"}
	}

	// === Whale Tracker ===
	w := cfg.WhaleTracker
	if w.MinConsecutiveDays > w.LookbackDays {
		return ValidationError{"whale_tracker.min_consecutive_days", fmt.Sprintf("must be <= lookback_days=%d", w.LookbackDays)}
	}
	if w.SaturationDays < w.MinConsecutiveDays {
		return ValidationError{"whale_tracker.saturation_days", fmt.Sprintf("must be >= min_consecutive_days=%d", w.MinConsecutiveDays)}
	}

	// === Synthesis ===
	s := cfg.Synthesis
	if !(s.ClampMin < 0 && s.ClampMax > 0) {
		return ValidationError{"synthesis", "must satisfy clamp_min < 0 < clamp_max"}
	}
	// 거부권 임계값은 Credit Danger 범위 안의 음수
	if s.VetoThreshold < CreditMin || s.VetoThreshold >= CreditMax {
		return ValidationError{"synthesis.veto_threshold", fmt.Sprintf("must be in [%.0f, %.0f)", CreditMin, CreditMax)}
	}
	if s.VetoSentinel >= 0 {
		return ValidationError{"synthesis.veto_sentinel", "must be < 0 (below the NONE cutoff)"}
	}

	// === Classification ===
	k := cfg.Classification
	if !(0 < k.Watch && k.Watch < k.Likely && k.Likely < k.Imminent) {
		return ValidationError{"classification", "must satisfy 0 < watch < likely < imminent"}
	}
	if k.Imminent > s.ClampMax {
		return ValidationError{"classification.imminent", fmt.Sprintf("must be <= synthesis.clamp_max=%.0f", s.ClampMax)}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 6개 점수 최대 합(75)으로 도달 불가한 등급
	if cfg.Classification.Imminent > MaxAttainableTotal {
		warnings = append(warnings, Warning{
			Code:    "UNREACHABLE_TIER",
			Message: fmt.Sprintf("imminent=%.0f > 최대 합계 %.0f: IMMINENT 등급 도달 불가", cfg.Classification.Imminent, MaxAttainableTotal),
		})
	}

	// 음수 순매수도 연속일로 인정
	if cfg.WhaleTracker.MinNetBuy < 0 {
		warnings = append(warnings, Warning{
			Code:    "NEGATIVE_NET_BUY",
			Message: "whale_tracker.min_net_buy < 0: 순매도일도 연속 매수로 집계됨",
		})
	}

	// 적정 PER 과대 가정
	if cfg.EPSDivergence.FairPER > 30 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_FAIR_PER",
			Message: "eps_divergence.fair_per > 30: 대부분 종목이 저평가로 판정됨",
		})
	}

	// 좁은 거부권 (critical 근처에서만 발동)
	if cfg.Synthesis.VetoThreshold < -45 {
		warnings = append(warnings, Warning{
			Code:    "NARROW_VETO",
			Message: "synthesis.veto_threshold < -45: 거부권이 극단 구간에서만 발동",
		})
	}

	return warnings
}

// fromValidator converts the first tag violation into a ValidationError
func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ValidationError{Field: "config", Message: err.Error()}
	}

	fe := verrs[0]
	// "Config.whale_tracker.lookback_days" -> "whale_tracker.lookback_days"
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "required"
	case "gt":
		msg = "must be > " + fe.Param()
	case "gte":
		msg = "must be >= " + fe.Param()
	case "lte":
		msg = "must be <= " + fe.Param()
	case "min":
		msg = "must have at least " + fe.Param() + " entries"
	case "unique":
		msg = "must not contain duplicates"
	case "oneof":
		msg = "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		msg = "failed validation: " + fe.Tag()
	}

	return ValidationError{Field: field, Message: msg}
}
