package forecast

import (
	"fmt"
	"sort"
	"time"

	"github.com/yanqian/codify/pkg/util"
)

// Horizon is the closed range of supported offsets in days.
type Horizon struct {
	MinDays int
	MaxDays int
}

// Contains reports whether offset lies in the horizon.
func (h Horizon) Contains(offset int) bool {
	return offset >= h.MinDays && offset <= h.MaxDays
}

// WindowConfig describes a provider's issue schedule.
type WindowConfig struct {
	Name         string
	IssueHours   []int
	Horizon      Horizon
	PublishDelay time.Duration
	Candidates   int
}

// Window is the issue timestamp chosen for a target date.
type Window struct {
	IssueTime  time.Time `json:"issueTime"`
	TargetDate time.Time `json:"targetDate"`
	OffsetDays int       `json:"offsetDays"`
}

// IssueDate is the YYYYMMDD issue date.
func (w Window) IssueDate() string { return w.IssueTime.Format("20060102") }

// IssueStamp is the YYYYMMDDHHmm issue timestamp.
func (w Window) IssueStamp() string { return w.IssueTime.Format("200601021504") }

// BaseTime is the HHmm issue time.
func (w Window) BaseTime() string { return w.IssueTime.Format("1504") }

// HorizonCode classifies horizon failures.
type HorizonCode string

const (
	HorizonOK      HorizonCode = ""
	HorizonPast    HorizonCode = "past"
	HorizonTooNear HorizonCode = "too_near"
	HorizonBeyond  HorizonCode = "beyond_horizon"
)

// HorizonCheck is the result of InSupportedHorizon.
type HorizonCheck struct {
	InRange bool        `json:"inRange"`
	Code    HorizonCode `json:"code,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

// WindowSelector chooses forecast issue windows for target dates.
type WindowSelector struct {
	cfg   WindowConfig
	hours []int
	loc   *time.Location
	now   func() time.Time
}

// NewWindowSelector builds a selector for the issue schedule in loc.
func NewWindowSelector(cfg WindowConfig, loc *time.Location) *WindowSelector {
	if loc == nil {
		loc = util.KST
	}
	if cfg.Candidates <= 0 {
		cfg.Candidates = 4
	}
	hours := append([]int(nil), cfg.IssueHours...)
	sort.Sort(sort.Reverse(sort.IntSlice(hours)))
	return &WindowSelector{cfg: cfg, hours: hours, loc: loc, now: time.Now}
}

// Horizon returns the configured horizon.
func (s *WindowSelector) Horizon() Horizon { return s.cfg.Horizon }

// Location returns the provider time zone.
func (s *WindowSelector) Location() *time.Location { return s.loc }

// Today is the current provider-local date.
func (s *WindowSelector) Today() time.Time { return util.DateOnly(s.now(), s.loc) }

// InSupportedHorizon reports whether any recent published issue covers
// target. A date is too near only when every candidate issue puts it below
// the horizon, and beyond only when even the newest issue does not reach it.
func (s *WindowSelector) InSupportedHorizon(target time.Time) HorizonCheck {
	_, check := s.choose(target)
	return check
}

// SelectWindow returns the most recent issue whose offset to target lies in
// the horizon. It fails exactly when InSupportedHorizon rejects target.
func (s *WindowSelector) SelectWindow(target time.Time) (Window, bool) {
	w, check := s.choose(target)
	return w, check.InRange
}

func (s *WindowSelector) choose(target time.Time) (Window, HorizonCheck) {
	target = util.DateOnly(target, s.loc)
	if target.Before(s.Today()) {
		return Window{}, HorizonCheck{Code: HorizonPast, Reason: "과거 날짜는 예보할 수 없습니다"}
	}
	issues := s.recentIssues()
	if len(issues) == 0 {
		return Window{}, HorizonCheck{Code: HorizonTooNear, Reason: "발표된 예보가 아직 없습니다"}
	}
	h := s.cfg.Horizon
	// Offsets never shrink for older issues.
	if util.DaysBetween(issues[0], target) > h.MaxDays {
		return Window{}, HorizonCheck{Code: HorizonBeyond, Reason: fmt.Sprintf("예보 범위 밖입니다 (%d일 초과)", h.MaxDays)}
	}
	for _, issue := range issues {
		offset := util.DaysBetween(issue, target)
		if h.Contains(offset) {
			return Window{IssueTime: issue, TargetDate: target, OffsetDays: offset}, HorizonCheck{InRange: true}
		}
	}
	return Window{}, HorizonCheck{Code: HorizonTooNear, Reason: fmt.Sprintf("%s는 %d~%d일만 제공됩니다", s.name(), h.MinDays, h.MaxDays)}
}

// recentIssues lists published issue times, most recent first.
func (s *WindowSelector) recentIssues() []time.Time {
	now := s.now().In(s.loc)
	today := util.DateOnly(now, s.loc)
	out := make([]time.Time, 0, s.cfg.Candidates)
	if len(s.hours) == 0 {
		return out
	}
	for day := 0; len(out) < s.cfg.Candidates; day++ {
		date := today.AddDate(0, 0, -day)
		for _, hour := range s.hours {
			issue := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, s.loc)
			if issue.Add(s.cfg.PublishDelay).After(now) {
				continue
			}
			out = append(out, issue)
			if len(out) == s.cfg.Candidates {
				break
			}
		}
	}
	return out
}

func (s *WindowSelector) name() string {
	if s.cfg.Name != "" {
		return s.cfg.Name
	}
	return "예보"
}
